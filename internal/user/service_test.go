package user

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/qu-security/guardforce/internal"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockRepository struct {
	users       map[int64]*User
	byUsername  map[string]*User
	nextID      int64
	returnError bool
}

func newMockRepository() *mockRepository {
	users := map[int64]*User{
		1: {ID: 1, Username: "ana_guard", Email: "ana@example.com", FirstName: "Ana", LastName: "Silva", IsActive: true},
		2: {ID: 2, Username: "staff_admin", Email: "staff@example.com", IsStaff: true, IsActive: true},
	}
	byUsername := make(map[string]*User, len(users))
	for _, u := range users {
		byUsername[u.Username] = u
	}
	return &mockRepository{
		users:      users,
		byUsername: byUsername,
		nextID:     3,
	}
}

func (m *mockRepository) Create(u *User) error {
	if m.returnError {
		return errors.New("database error")
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	m.byUsername[u.Username] = u
	return nil
}

func (m *mockRepository) GetByID(id int64) (*User, bool, error) {
	if m.returnError {
		return nil, false, errors.New("database error")
	}
	u, ok := m.users[id]
	if !ok {
		return nil, false, nil
	}
	copied := *u
	return &copied, true, nil
}

func (m *mockRepository) GetByUsername(username string) (*User, bool, error) {
	if m.returnError {
		return nil, false, errors.New("database error")
	}
	u, ok := m.byUsername[username]
	if !ok {
		return nil, false, nil
	}
	copied := *u
	return &copied, true, nil
}

func (m *mockRepository) List(limit, offset int) ([]*User, error) {
	if m.returnError {
		return nil, errors.New("database error")
	}
	var out []*User
	for id := m.nextID - 1; id >= 1; id-- {
		if u, ok := m.users[id]; ok && (u.IsStaff || u.IsSuperuser) {
			out = append(out, u)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) Update(u *User) error {
	if m.returnError {
		return errors.New("database error")
	}
	stored, ok := m.users[u.ID]
	if !ok {
		return errors.New("missing row")
	}
	stored.Email = u.Email
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	return nil
}

func (m *mockRepository) Deactivate(id int64) error {
	if m.returnError {
		return errors.New("database error")
	}
	if u, ok := m.users[id]; ok {
		u.IsActive = false
	}
	return nil
}

type mockHasher struct {
	fail bool
}

func (m *mockHasher) HashPassword(password string) (string, error) {
	if m.fail {
		return "", errors.New("hash failure")
	}
	return "hashed:" + password, nil
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
		hasher   *mockHasher
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		hasher = &mockHasher{}
		service = NewService(mockRepo, hasher, slog.Default())
	})

	ginkgo.Describe("Register", func() {
		ginkgo.Context("when the registration is valid", func() {
			ginkgo.It("should create an active account with a hashed password", func() {
				// Given
				dto := &RegisterDTO{
					Username:  "new_guard",
					Email:     "new@example.com",
					Password:  "long-enough-pw",
					FirstName: "New",
					LastName:  "Guard",
				}

				// When
				created, err := service.Register(dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.ID).To(gomega.BeNumerically(">", 0))
				gomega.Expect(created.IsActive).To(gomega.BeTrue())
				gomega.Expect(created.PasswordHash).To(gomega.Equal("hashed:long-enough-pw"))
				gomega.Expect(created.IsStaff).To(gomega.BeFalse())
				gomega.Expect(created.IsSuperuser).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("when the username is already taken", func() {
			ginkgo.It("should return a conflict error", func() {
				// Given
				dto := &RegisterDTO{Username: "ana_guard", Email: "other@example.com", Password: "long-enough-pw"}

				// When
				created, err := service.Register(dto)

				// Then
				gomega.Expect(created).To(gomega.BeNil())
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateUsername))
			})
		})

		ginkgo.Context("when the password is too short", func() {
			ginkgo.It("should reject the registration", func() {
				// Given
				dto := &RegisterDTO{Username: "new_guard", Email: "new@example.com", Password: "short"}

				// When
				created, err := service.Register(dto)

				// Then
				gomega.Expect(created).To(gomega.BeNil())
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when required fields are missing", func() {
			ginkgo.It("should reject the registration", func() {
				// Given
				dto := &RegisterDTO{Username: "", Email: "", Password: ""}

				// When
				_, err := service.Register(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when the email has no domain part", func() {
			ginkgo.It("should reject the registration", func() {
				// Given
				dto := &RegisterDTO{Username: "new_guard", Email: "not-an-email", Password: "long-enough-pw"}

				// When
				_, err := service.Register(dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when hashing fails", func() {
			ginkgo.It("should return an internal error", func() {
				// Given
				hasher.fail = true
				dto := &RegisterDTO{Username: "new_guard", Email: "new@example.com", Password: "long-enough-pw"}

				// When
				created, err := service.Register(dto)

				// Then
				gomega.Expect(created).To(gomega.BeNil())
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})
	})

	ginkgo.Describe("GetByID", func() {
		ginkgo.Context("when the user exists", func() {
			ginkgo.It("should return the user", func() {
				// When
				u, err := service.GetByID(1)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(u.Username).To(gomega.Equal("ana_guard"))
				gomega.Expect(u.FullName()).To(gomega.Equal("Ana Silva"))
			})
		})

		ginkgo.Context("when the user does not exist", func() {
			ginkgo.It("should return a not found error", func() {
				// When
				u, err := service.GetByID(999)

				// Then
				gomega.Expect(u).To(gomega.BeNil())
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserNotFound))
			})
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("should only surface staff and superuser accounts", func() {
			// When
			users, err := service.List(0, 0)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(users).To(gomega.HaveLen(1))
			gomega.Expect(users[0].Username).To(gomega.Equal("staff_admin"))
		})

		ginkgo.It("should return nothing past the last page", func() {
			// When
			users, err := service.List(20, 5)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(users).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.Context("when patching a subset of fields", func() {
			ginkgo.It("should leave omitted fields unchanged", func() {
				// Given
				newEmail := "ana.new@example.com"
				dto := &UpdateUserDTO{Email: &newEmail}

				// When
				updated, err := service.Update(1, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(updated.Email).To(gomega.Equal("ana.new@example.com"))
				gomega.Expect(updated.FirstName).To(gomega.Equal("Ana"))
				gomega.Expect(updated.LastName).To(gomega.Equal("Silva"))
			})
		})

		ginkgo.Context("when the user does not exist", func() {
			ginkgo.It("should return a not found error", func() {
				// Given
				newEmail := "missing@example.com"
				dto := &UpdateUserDTO{Email: &newEmail}

				// When
				updated, err := service.Update(999, dto)

				// Then
				gomega.Expect(updated).To(gomega.BeNil())
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserNotFound))
			})
		})

		ginkgo.Context("when the new email is malformed", func() {
			ginkgo.It("should reject the update", func() {
				// Given
				bad := "nope"
				dto := &UpdateUserDTO{Email: &bad}

				// When
				_, err := service.Update(1, dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})
	})

	ginkgo.Describe("Deactivate", func() {
		ginkgo.Context("when the user exists", func() {
			ginkgo.It("should flag the account inactive", func() {
				// When
				err := service.Deactivate(1)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(mockRepo.users[1].IsActive).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("when the user does not exist", func() {
			ginkgo.It("should return a not found error", func() {
				// When
				err := service.Deactivate(999)

				// Then
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserNotFound))
			})
		})
	})
})
