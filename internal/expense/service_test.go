package expense

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
)

func TestExpense(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Expense Module Suite")
}

const (
	adminCaller   = int64(10)
	guardCaller   = int64(201)
	clientCaller  = int64(301)
	regularCaller = int64(20)
)

type mockRepository struct {
	expenses    map[int64]*Expense
	properties  map[int64]int64
	nextID      int64
	returnError bool
}

func newMockRepository(now time.Time) *mockRepository {
	return &mockRepository{
		expenses: map[int64]*Expense{
			// Client 401's property carries a repair booked last week.
			1: {
				ID: 1, PropertyID: 7, PropertyAddress: "12 Harbor Rd",
				PropertyOwnerID: 401, Description: "Gate motor repair",
				Amount: 450.00, ExpenseDate: now.AddDate(0, 0, -7),
				IsActive: true,
			},
			// Another client's property, out of 401's reach.
			2: {
				ID: 2, PropertyID: 8, PropertyAddress: "9 Quarry Ln",
				PropertyOwnerID: 402, Description: "Fuel for patrol vehicle",
				Amount: 90.50, ExpenseDate: now.AddDate(0, 0, -2),
				IsActive: true,
			},
			// Soft-deleted invoice on property 7.
			3: {
				ID: 3, PropertyID: 7, PropertyAddress: "12 Harbor Rd",
				PropertyOwnerID: 401, Description: "Old lighting invoice",
				Amount: 120.00, ExpenseDate: now.AddDate(0, -1, 0),
				IsActive: false,
			},
		},
		properties: map[int64]int64{7: 401, 8: 402},
		nextID:     4,
	}
}

func (m *mockRepository) Create(e *Expense) error {
	if m.returnError {
		return errors.New("database error")
	}
	e.ID = m.nextID
	m.nextID++
	e.PropertyOwnerID = m.properties[e.PropertyID]
	m.expenses[e.ID] = e
	return nil
}

func (m *mockRepository) GetByID(id int64) (*Expense, bool, error) {
	if m.returnError {
		return nil, false, errors.New("database error")
	}
	e, ok := m.expenses[id]
	if !ok {
		return nil, false, nil
	}
	copied := *e
	return &copied, true, nil
}

func (m *mockRepository) List(q listing.Query, rf permissions.RowFilter, f Filter) ([]*Expense, error) {
	if m.returnError {
		return nil, errors.New("database error")
	}
	var out []*Expense
	for id := int64(1); id < m.nextID; id++ {
		e, ok := m.expenses[id]
		if !ok {
			continue
		}
		if !e.IsActive && !q.IncludeInactive {
			continue
		}
		switch rf.Scope {
		case permissions.ScopeAll:
		case permissions.ScopeOwnerClient:
			if e.PropertyOwnerID != rf.ClientID {
				continue
			}
		default:
			continue
		}
		if f.PropertyID != nil && e.PropertyID != *f.PropertyID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockRepository) Update(e *Expense) error {
	if m.returnError {
		return errors.New("database error")
	}
	stored, ok := m.expenses[e.ID]
	if !ok {
		return errors.New("missing row")
	}
	*stored = *e
	return nil
}

func (m *mockRepository) SetActive(id int64, active bool) error {
	if m.returnError {
		return errors.New("database error")
	}
	if e, ok := m.expenses[id]; ok {
		e.IsActive = active
	}
	return nil
}

func (m *mockRepository) PropertyExists(propertyID int64) (bool, error) {
	if m.returnError {
		return false, errors.New("database error")
	}
	_, ok := m.properties[propertyID]
	return ok, nil
}

type mockPermissionChecker struct {
	admins   map[int64]bool
	scopes   map[int64]permissions.RowFilter
	creators map[int64]bool
	grants   map[int64]int64
}

func (m *mockPermissionChecker) CanCreateExpenses(userID int64, propertyID int64) (bool, error) {
	if m.creators[userID] {
		return true, nil
	}
	if granted, ok := m.grants[userID]; ok && granted == propertyID {
		return true, nil
	}
	return false, nil
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

type mockProfileResolver struct {
	clients map[int64]int64
}

func (m *mockProfileResolver) ClientIDByUserID(userID int64) (int64, bool, error) {
	id, ok := m.clients[userID]
	return id, ok, nil
}

var _ = ginkgo.Describe("ExpenseService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
		perms    *mockPermissionChecker
		now      time.Time
	)

	ginkgo.BeforeEach(func() {
		now = time.Now()
		mockRepo = newMockRepository(now)
		perms = &mockPermissionChecker{
			admins: map[int64]bool{adminCaller: true},
			scopes: map[int64]permissions.RowFilter{
				adminCaller:  permissions.FilterAll(),
				clientCaller: permissions.FilterOwnerClient(401),
			},
			creators: map[int64]bool{adminCaller: true, clientCaller: true},
			grants:   map[int64]int64{guardCaller: 8},
		}
		profiles := &mockProfileResolver{clients: map[int64]int64{clientCaller: 401}}
		service = NewService(mockRepo, perms, profiles, slog.Default())
	})

	ginkgo.Describe("List", func() {
		ginkgo.Context("when the caller is an admin", func() {
			ginkgo.It("should return every active expense", func() {
				// When
				expenses, err := service.List(adminCaller, listing.Query{}, Filter{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(expenses).To(gomega.HaveLen(2))
			})

			ginkgo.It("should include soft-deleted rows on request", func() {
				// When
				expenses, err := service.List(adminCaller, listing.Query{IncludeInactive: true}, Filter{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(expenses).To(gomega.HaveLen(3))
			})

			ginkgo.It("should narrow to one property when filtered", func() {
				// Given
				propertyID := int64(8)

				// When
				expenses, err := service.List(adminCaller, listing.Query{}, Filter{PropertyID: &propertyID})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(expenses).To(gomega.HaveLen(1))
				gomega.Expect(expenses[0].ID).To(gomega.Equal(int64(2)))
			})
		})

		ginkgo.Context("when the caller is a client", func() {
			ginkgo.It("should only return expenses on their own properties", func() {
				// When
				expenses, err := service.List(clientCaller, listing.Query{}, Filter{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(expenses).To(gomega.HaveLen(1))
				gomega.Expect(expenses[0].PropertyOwnerID).To(gomega.Equal(int64(401)))
			})

			ginkgo.It("should ignore include_inactive for non-managers", func() {
				// When
				expenses, err := service.List(clientCaller, listing.Query{IncludeInactive: true}, Filter{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(expenses).To(gomega.HaveLen(1))
			})
		})

		ginkgo.Context("when the caller has no expense scope", func() {
			ginkgo.It("should return an empty list", func() {
				// When
				expenses, err := service.List(guardCaller, listing.Query{}, Filter{})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(expenses).To(gomega.BeEmpty())
			})
		})
	})

	ginkgo.Describe("GetByID", func() {
		ginkgo.It("should return an expense on the caller's property", func() {
			// When
			e, err := service.GetByID(clientCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Description).To(gomega.Equal("Gate motor repair"))
			gomega.Expect(e.PropertyAddress).To(gomega.Equal("12 Harbor Rd"))
		})

		ginkgo.It("should hide expenses outside the caller's scope", func() {
			// When
			_, err := service.GetByID(clientCaller, 2)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeExpenseNotFound))
		})

		ginkgo.It("should return not found for an unknown id", func() {
			// When
			_, err := service.GetByID(adminCaller, 999)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeExpenseNotFound))
		})
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should book an expense for the owning client", func() {
			// Given
			dto := &CreateExpenseDTO{PropertyID: 7, Description: "Fence repainting", Amount: 300}

			// When
			e, err := service.Create(clientCaller, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.ID).To(gomega.Equal(int64(4)))
			gomega.Expect(e.CreatedBy).ToNot(gomega.BeNil())
			gomega.Expect(*e.CreatedBy).To(gomega.Equal(clientCaller))
			gomega.Expect(e.ExpenseDate.Format("2006-01-02")).To(gomega.Equal(now.Format("2006-01-02")))
		})

		ginkgo.It("should honor an explicit expense date", func() {
			// Given
			date := "2026-08-01"
			dto := &CreateExpenseDTO{PropertyID: 7, Description: "Camera swap", Amount: 85.25, ExpenseDate: &date}

			// When
			e, err := service.Create(clientCaller, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.ExpenseDate.Format("2006-01-02")).To(gomega.Equal(date))
		})

		ginkgo.It("should let a per-property grant create on that property only", func() {
			// Given
			dto := &CreateExpenseDTO{PropertyID: 8, Description: "Spare radio batteries", Amount: 40}

			// When
			e, err := service.Create(guardCaller, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.PropertyID).To(gomega.Equal(int64(8)))

			// When the grant does not cover the property
			dto = &CreateExpenseDTO{PropertyID: 7, Description: "Spare radio batteries", Amount: 40}
			_, err = service.Create(guardCaller, dto)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})

		ginkgo.It("should deny callers without the create capability", func() {
			// Given
			dto := &CreateExpenseDTO{PropertyID: 7, Description: "Lock change", Amount: 60}

			// When
			_, err := service.Create(regularCaller, dto)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject an unknown property", func() {
			// Given
			dto := &CreateExpenseDTO{PropertyID: 99, Description: "Lock change", Amount: 60}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})

		ginkgo.It("should reject a zero amount", func() {
			// Given
			dto := &CreateExpenseDTO{PropertyID: 7, Description: "Lock change", Amount: 0}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})

		ginkgo.It("should reject a malformed expense date", func() {
			// Given
			date := "01-08-2026"
			dto := &CreateExpenseDTO{PropertyID: 7, Description: "Lock change", Amount: 60, ExpenseDate: &date}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should let the owning client amend their expense", func() {
			// Given
			amount := 475.50
			description := "Gate motor repair and alignment"
			dto := &UpdateExpenseDTO{Amount: &amount, Description: &description}

			// When
			e, err := service.Update(clientCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.Amount).To(gomega.Equal(475.50))
			gomega.Expect(e.Description).To(gomega.Equal(description))
		})

		ginkgo.It("should let an admin move an expense to another property", func() {
			// Given
			propertyID := int64(8)
			dto := &UpdateExpenseDTO{PropertyID: &propertyID}

			// When
			e, err := service.Update(adminCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.PropertyID).To(gomega.Equal(int64(8)))
		})

		ginkgo.It("should reject a move to an unknown property", func() {
			// Given
			propertyID := int64(99)
			dto := &UpdateExpenseDTO{PropertyID: &propertyID}

			// When
			_, err := service.Update(adminCaller, 1, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})

		ginkgo.It("should hide expenses on other clients' properties", func() {
			// Given
			amount := 10.0
			dto := &UpdateExpenseDTO{Amount: &amount}

			// When
			_, err := service.Update(clientCaller, 2, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeExpenseNotFound))
		})

		ginkgo.It("should deny a caller who can read but does not own", func() {
			// Given a caller with full read scope but no manager standing
			perms.scopes[regularCaller] = permissions.FilterAll()
			amount := 10.0
			dto := &UpdateExpenseDTO{Amount: &amount}

			// When
			_, err := service.Update(regularCaller, 1, dto)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Delete and Restore", func() {
		ginkgo.It("should let the owning client write off and recover an expense", func() {
			// When
			err := service.Delete(clientCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.expenses[1].IsActive).To(gomega.BeFalse())

			// When an admin restores it
			err = service.Restore(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.expenses[1].IsActive).To(gomega.BeTrue())
		})

		ginkgo.It("should hide other clients' expenses from deletion", func() {
			// When
			err := service.Delete(clientCaller, 2)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeExpenseNotFound))
		})

		ginkgo.It("should deny restore to callers without a claim", func() {
			// Given
			perms.scopes[regularCaller] = permissions.FilterAll()

			// When
			err := service.Restore(regularCaller, 3)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})
	})
})
