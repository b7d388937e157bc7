package guard

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
)

func TestGuard(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Guard Module Suite")
}

const (
	adminCaller   = int64(10)
	guardCaller   = int64(201)
	clientCaller  = int64(301)
	regularCaller = int64(20)
)

type mockRepository struct {
	guards      map[int64]*Guard
	users       map[int64]bool
	usedEmails  map[string]bool
	shiftCounts map[int64]int64
	workloads   map[int64][]*PropertyShifts
	assignments map[int64][]int64
	nextID      int64
	nextUserID  int64
	returnError bool
}

func newMockRepository() *mockRepository {
	guards := map[int64]*Guard{
		1: {ID: 1, UserID: 201, Username: "ana_guard", Email: "ana@example.com", FirstName: "Ana", LastName: "Silva", Phone: "555-0100", IsActive: true},
		2: {ID: 2, UserID: 202, Username: "old_guard", Email: "old@example.com", IsActive: false},
	}
	usedEmails := make(map[string]bool, len(guards))
	for _, g := range guards {
		usedEmails[strings.ToLower(g.Email)] = true
	}
	return &mockRepository{
		guards:      guards,
		users:       map[int64]bool{201: true, 202: true, 300: true},
		usedEmails:  usedEmails,
		shiftCounts: map[int64]int64{1: 4},
		workloads: map[int64][]*PropertyShifts{
			1: {
				{
					Property: &PropertySummary{ID: 7, Name: "Acme Warehouse"},
					Shifts:   []*ShiftSummary{{ID: 70, PropertyID: 7, Status: "completed", HoursWorked: 8}},
				},
			},
		},
		// assignments maps client ids to the guard ids serving them.
		assignments: map[int64][]int64{401: {1}},
		nextID:      3,
		nextUserID:  500,
	}
}

func (m *mockRepository) Create(g *Guard) error {
	if m.returnError {
		return errors.New("database error")
	}
	g.ID = m.nextID
	m.nextID++
	m.guards[g.ID] = g
	return nil
}

func (m *mockRepository) CreateWithUser(g *Guard) error {
	if m.returnError {
		return errors.New("database error")
	}
	g.ID = m.nextID
	m.nextID++
	g.UserID = m.nextUserID
	m.nextUserID++
	if at := strings.Index(g.Email, "@"); at > 0 {
		g.Username = g.Email[:at]
	}
	m.guards[g.ID] = g
	m.users[g.UserID] = true
	m.usedEmails[strings.ToLower(g.Email)] = true
	return nil
}

func (m *mockRepository) GetByID(id int64) (*Guard, bool, error) {
	if m.returnError {
		return nil, false, errors.New("database error")
	}
	g, ok := m.guards[id]
	if !ok {
		return nil, false, nil
	}
	copied := *g
	return &copied, true, nil
}

func (m *mockRepository) List(q listing.Query, rf permissions.RowFilter) ([]*Guard, error) {
	if m.returnError {
		return nil, errors.New("database error")
	}
	var out []*Guard
	for id := int64(1); id < m.nextID; id++ {
		g, ok := m.guards[id]
		if !ok {
			continue
		}
		if !g.IsActive && !q.IncludeInactive {
			continue
		}
		switch rf.Scope {
		case permissions.ScopeAll:
		case permissions.ScopeSelfUser:
			if g.UserID != rf.UserID {
				continue
			}
		case permissions.ScopeOwnerClient:
			served := false
			for _, gid := range m.assignments[rf.ClientID] {
				if gid == g.ID {
					served = true
				}
			}
			if !served {
				continue
			}
		default:
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *mockRepository) Update(g *Guard) error {
	if m.returnError {
		return errors.New("database error")
	}
	stored, ok := m.guards[g.ID]
	if !ok {
		return errors.New("missing row")
	}
	*stored = *g
	return nil
}

func (m *mockRepository) SetActive(id int64, active bool) error {
	if m.returnError {
		return errors.New("database error")
	}
	if g, ok := m.guards[id]; ok {
		g.IsActive = active
	}
	return nil
}

func (m *mockRepository) ShiftsCount(guardID int64) (int64, error) {
	if m.returnError {
		return 0, errors.New("database error")
	}
	return m.shiftCounts[guardID], nil
}

func (m *mockRepository) PropertiesShifts(guardID int64) ([]*PropertyShifts, error) {
	if m.returnError {
		return nil, errors.New("database error")
	}
	return m.workloads[guardID], nil
}

func (m *mockRepository) HasProfile(userID int64) (bool, error) {
	if m.returnError {
		return false, errors.New("database error")
	}
	for _, g := range m.guards {
		if g.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) UserExists(userID int64) (bool, error) {
	if m.returnError {
		return false, errors.New("database error")
	}
	return m.users[userID], nil
}

func (m *mockRepository) EmailInUse(email string, excludeUserID int64) (bool, error) {
	if m.returnError {
		return false, errors.New("database error")
	}
	for _, g := range m.guards {
		if strings.EqualFold(g.Email, email) && g.UserID != excludeUserID {
			return true, nil
		}
	}
	return m.usedEmails[strings.ToLower(email)] && excludeUserID == 0, nil
}

type mockPermissionChecker struct {
	admins map[int64]bool
	scopes map[int64]permissions.RowFilter
}

func (m *mockPermissionChecker) IsAdminOrManager(userID int64) (bool, error) {
	return m.admins[userID], nil
}

func (m *mockPermissionChecker) ReadScope(userID int64, resourceType permissions.ResourceType) (permissions.RowFilter, error) {
	if rf, ok := m.scopes[userID]; ok {
		return rf, nil
	}
	return permissions.FilterNone(), nil
}

type mockRoleAssigner struct {
	assigned map[int64]string
	fail     bool
}

func (m *mockRoleAssigner) AssignRole(dto permissions.AssignRoleDTO, performedBy int64) (*permissions.RoleAssignmentResponse, error) {
	if m.fail {
		return nil, errors.New("assignment failure")
	}
	if m.assigned == nil {
		m.assigned = make(map[int64]string)
	}
	m.assigned[dto.UserID] = dto.Role
	return &permissions.RoleAssignmentResponse{UserID: dto.UserID, Role: dto.Role}, nil
}

var _ = ginkgo.Describe("GuardService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
		assigner *mockRoleAssigner
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		assigner = &mockRoleAssigner{}
		perms := &mockPermissionChecker{
			admins: map[int64]bool{adminCaller: true},
			scopes: map[int64]permissions.RowFilter{
				adminCaller:  permissions.FilterAll(),
				guardCaller:  permissions.FilterSelfUser(201),
				clientCaller: permissions.FilterOwnerClient(401),
			},
		}
		service = NewService(mockRepo, perms, assigner, slog.Default())
	})

	ginkgo.Describe("List", func() {
		ginkgo.Context("when the caller is an admin", func() {
			ginkgo.It("should return every active guard", func() {
				// When
				guards, err := service.List(adminCaller, listing.Query{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(guards).To(gomega.HaveLen(1))
				gomega.Expect(guards[0].Username).To(gomega.Equal("ana_guard"))
			})
		})

		ginkgo.Context("when the caller is a guard", func() {
			ginkgo.It("should only return their own profile", func() {
				// When
				guards, err := service.List(guardCaller, listing.Query{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(guards).To(gomega.HaveLen(1))
				gomega.Expect(guards[0].UserID).To(gomega.Equal(int64(201)))
			})
		})

		ginkgo.Context("when the caller is a client", func() {
			ginkgo.It("should return the guards serving their properties", func() {
				// When
				guards, err := service.List(clientCaller, listing.Query{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(guards).To(gomega.HaveLen(1))
				gomega.Expect(guards[0].ID).To(gomega.Equal(int64(1)))
			})
		})

		ginkgo.Context("when the caller has no scope", func() {
			ginkgo.It("should return an empty list", func() {
				// When
				guards, err := service.List(regularCaller, listing.Query{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(guards).To(gomega.BeEmpty())
			})
		})
	})

	ginkgo.Describe("GetByID", func() {
		ginkgo.It("should include the shift counter", func() {
			// When
			detail, err := service.GetByID(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(detail.Name()).To(gomega.Equal("Ana Silva"))
			gomega.Expect(detail.ShiftsCount).To(gomega.Equal(int64(4)))
		})

		ginkgo.It("should return a not found error for unknown ids", func() {
			// When
			detail, err := service.GetByID(adminCaller, 999)

			// Then
			gomega.Expect(detail).To(gomega.BeNil())
			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeGuardNotFound))
		})
	})

	ginkgo.Describe("Create", func() {
		ginkgo.Context("when attaching to an existing user", func() {
			ginkgo.It("should create the profile and assign the guard role", func() {
				// Given
				userID := int64(300)
				dto := &CreateGuardDTO{UserID: &userID, Phone: "555-0300"}

				// When
				created, err := service.Create(adminCaller, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.UserID).To(gomega.Equal(int64(300)))
				gomega.Expect(assigner.assigned[300]).To(gomega.Equal("guard"))
			})
		})

		ginkgo.Context("when the user already has a guard profile", func() {
			ginkgo.It("should return a conflict error", func() {
				// Given
				userID := int64(201)
				dto := &CreateGuardDTO{UserID: &userID}

				// When
				created, err := service.Create(adminCaller, dto)

				// Then
				gomega.Expect(created).To(gomega.BeNil())
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateProfile))
			})
		})

		ginkgo.Context("when the named user does not exist", func() {
			ginkgo.It("should return a not found error", func() {
				// Given
				userID := int64(999)
				dto := &CreateGuardDTO{UserID: &userID}

				// When
				_, err := service.Create(adminCaller, dto)

				// Then
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeUserNotFound))
			})
		})

		ginkgo.Context("when creating a fresh account from an email", func() {
			ginkgo.It("should derive the username and assign the guard role", func() {
				// Given
				dto := &CreateGuardDTO{Email: "rookie@example.com", FirstName: "Ro", LastName: "Okie"}

				// When
				created, err := service.Create(adminCaller, dto)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created.Username).To(gomega.Equal("rookie"))
				gomega.Expect(created.UserID).To(gomega.BeNumerically(">", 0))
				gomega.Expect(assigner.assigned[created.UserID]).To(gomega.Equal("guard"))
			})
		})

		ginkgo.Context("when the email is already in use", func() {
			ginkgo.It("should return a conflict error", func() {
				// Given
				dto := &CreateGuardDTO{Email: "ana@example.com"}

				// When
				created, err := service.Create(adminCaller, dto)

				// Then
				gomega.Expect(created).To(gomega.BeNil())
				var appErr *internal.AppError
				gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
				gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateEmail))
			})
		})

		ginkgo.Context("when neither user nor email is provided", func() {
			ginkgo.It("should reject the request", func() {
				// When
				_, err := service.Create(adminCaller, &CreateGuardDTO{Phone: "555-0300"})

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when the caller is not an admin or manager", func() {
			ginkgo.It("should deny the request", func() {
				// Given
				dto := &CreateGuardDTO{Email: "rookie@example.com"}

				// When
				_, err := service.Create(regularCaller, dto)

				// Then
				gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
			})
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should patch only the provided fields", func() {
			// Given
			phone := "555-0111"
			dto := &UpdateGuardDTO{Phone: &phone}

			// When
			updated, err := service.Update(adminCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Phone).To(gomega.Equal("555-0111"))
			gomega.Expect(updated.FirstName).To(gomega.Equal("Ana"))
		})

		ginkgo.It("should reject an email that belongs to another user", func() {
			// Given
			email := "old@example.com"
			dto := &UpdateGuardDTO{Email: &email}

			// When
			_, err := service.Update(adminCaller, 1, dto)

			// Then
			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateEmail))
		})

		ginkgo.It("should accept the guard keeping their own email", func() {
			// Given
			email := "ana@example.com"
			phone := "555-0112"
			dto := &UpdateGuardDTO{Email: &email, Phone: &phone}

			// When
			updated, err := service.Update(adminCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Email).To(gomega.Equal("ana@example.com"))
		})

		ginkgo.It("should parse a birth date patch", func() {
			// Given
			birthDate := "1990-06-15"
			dto := &UpdateGuardDTO{BirthDate: &birthDate}

			// When
			updated, err := service.Update(adminCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.BirthDate).ToNot(gomega.BeNil())
			gomega.Expect(updated.BirthDate.Format("2006-01-02")).To(gomega.Equal("1990-06-15"))
		})
	})

	ginkgo.Describe("Delete and Restore", func() {
		ginkgo.It("should soft delete and bring the guard back", func() {
			// When
			err := service.Delete(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.guards[1].IsActive).To(gomega.BeFalse())

			// When
			err = service.Restore(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.guards[1].IsActive).To(gomega.BeTrue())
		})

		ginkgo.It("should deny non-admin callers", func() {
			// When
			err := service.Delete(guardCaller, 1)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("PropertiesShifts", func() {
		ginkgo.It("should group the guard's shifts by property", func() {
			// When
			workload, err := service.PropertiesShifts(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(workload.Guard.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(workload.PropertiesAndShifts).To(gomega.HaveLen(1))
			gomega.Expect(workload.PropertiesAndShifts[0].Property.Name).To(gomega.Equal("Acme Warehouse"))
			gomega.Expect(workload.PropertiesAndShifts[0].Shifts).To(gomega.HaveLen(1))
		})

		ginkgo.It("should return a not found error for unknown guards", func() {
			// When
			_, err := service.PropertiesShifts(adminCaller, 999)

			// Then
			var appErr *internal.AppError
			gomega.Expect(errors.As(err, &appErr)).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeGuardNotFound))
		})
	})
})
