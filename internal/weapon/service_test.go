package weapon

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
)

func TestWeapon(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Weapon Module Suite")
}

const (
	adminCaller   = int64(10)
	guardCaller   = int64(201)
	regularCaller = int64(20)
)

func strPtr(v string) *string {
	return &v
}

type mockRepository struct {
	weapons     map[int64]*Weapon
	guards      map[int64]bool
	nextID      int64
	returnError bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		weapons: map[int64]*Weapon{
			1: {ID: 1, GuardID: 1, GuardName: "Ana Silva", SerialNumber: "SN-100", Model: "Glock 17", Caliber: "9mm", IsActive: true},
			2: {ID: 2, GuardID: 1, GuardName: "Ana Silva", SerialNumber: "SN-200", Model: "Mossberg 500", IsActive: true},
			// Retired weapon under guard 2, still holding its serial.
			3: {ID: 3, GuardID: 2, GuardName: "Bo Chen", SerialNumber: "SN-100", Model: "Glock 19", IsActive: false},
		},
		guards: map[int64]bool{1: true, 2: true},
		nextID: 4,
	}
}

func (m *mockRepository) Create(w *Weapon) error {
	if m.returnError {
		return errors.New("database error")
	}
	w.ID = m.nextID
	m.nextID++
	m.weapons[w.ID] = w
	return nil
}

func (m *mockRepository) GetByID(id int64) (*Weapon, bool, error) {
	if m.returnError {
		return nil, false, errors.New("database error")
	}
	w, ok := m.weapons[id]
	if !ok {
		return nil, false, nil
	}
	copied := *w
	return &copied, true, nil
}

func (m *mockRepository) List(q listing.Query, rf permissions.RowFilter, f Filter) ([]*Weapon, error) {
	if m.returnError {
		return nil, errors.New("database error")
	}
	if rf.Scope != permissions.ScopeAll {
		return []*Weapon{}, nil
	}
	var out []*Weapon
	for id := int64(1); id < m.nextID; id++ {
		w, ok := m.weapons[id]
		if !ok {
			continue
		}
		if !w.IsActive && !q.IncludeInactive {
			continue
		}
		if f.GuardID != nil && w.GuardID != *f.GuardID {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *mockRepository) Update(w *Weapon) error {
	if m.returnError {
		return errors.New("database error")
	}
	stored, ok := m.weapons[w.ID]
	if !ok {
		return errors.New("missing row")
	}
	*stored = *w
	return nil
}

func (m *mockRepository) SetActive(id int64, active bool) error {
	if m.returnError {
		return errors.New("database error")
	}
	if w, ok := m.weapons[id]; ok {
		w.IsActive = active
	}
	return nil
}

func (m *mockRepository) GuardExists(guardID int64) (bool, error) {
	if m.returnError {
		return false, errors.New("database error")
	}
	return m.guards[guardID], nil
}

func (m *mockRepository) SerialTaken(guardID int64, serialNumber string, excludeID int64) (bool, error) {
	if m.returnError {
		return false, errors.New("database error")
	}
	for _, w := range m.weapons {
		if w.GuardID == guardID && w.SerialNumber == serialNumber && w.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type mockPermissionChecker struct {
	admins map[int64]bool
}

func (m *mockPermissionChecker) IsAdminOrManager(userID int64) (bool, error) {
	return m.admins[userID], nil
}

var _ = ginkgo.Describe("WeaponService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		perms := &mockPermissionChecker{
			admins: map[int64]bool{adminCaller: true},
		}
		service = NewService(mockRepo, perms, slog.Default())
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("should return the register to managers", func() {
			// When
			weapons, err := service.List(adminCaller, listing.Query{}, Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(weapons).To(gomega.HaveLen(2))
		})

		ginkgo.It("should return an empty page to everyone else", func() {
			// When
			forGuard, err := service.List(guardCaller, listing.Query{}, Filter{})
			forRegular, err2 := service.List(regularCaller, listing.Query{}, Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(err2).ToNot(gomega.HaveOccurred())
			gomega.Expect(forGuard).To(gomega.BeEmpty())
			gomega.Expect(forRegular).To(gomega.BeEmpty())
		})

		ginkgo.It("should narrow to one guard when filtered", func() {
			// Given
			guardID := int64(1)

			// When
			weapons, err := service.List(adminCaller, listing.Query{}, Filter{GuardID: &guardID})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(weapons).To(gomega.HaveLen(2))
		})

		ginkgo.It("should include retired weapons for managers on request", func() {
			// When
			weapons, err := service.List(adminCaller, listing.Query{IncludeInactive: true}, Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(weapons).To(gomega.HaveLen(3))
		})
	})

	ginkgo.Describe("GetByID", func() {
		ginkgo.It("should return the weapon to managers", func() {
			// When
			w, err := service.GetByID(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(w.SerialNumber).To(gomega.Equal("SN-100"))
			gomega.Expect(w.GuardName).To(gomega.Equal("Ana Silva"))
		})

		ginkgo.It("should hide weapons from non-managers", func() {
			// When
			_, err := service.GetByID(guardCaller, 1)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeWeaponNotFound))
		})

		ginkgo.It("should return not found for an unknown id", func() {
			// When
			_, err := service.GetByID(adminCaller, 999)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeWeaponNotFound))
		})
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should register a weapon for a manager", func() {
			// Given
			dto := &CreateWeaponDTO{GuardID: 2, SerialNumber: "SN-300", Model: "Beretta 92", Caliber: "9mm"}

			// When
			w, err := service.Create(adminCaller, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(w.ID).To(gomega.Equal(int64(4)))
			gomega.Expect(w.IsActive).To(gomega.BeTrue())
		})

		ginkgo.It("should allow the same serial under a different guard", func() {
			// Given
			dto := &CreateWeaponDTO{GuardID: 2, SerialNumber: "SN-200", Model: "Mossberg 500"}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should reject a serial the guard already holds", func() {
			// Given
			dto := &CreateWeaponDTO{GuardID: 1, SerialNumber: "SN-100", Model: "Glock 17"}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateSerial))
		})

		ginkgo.It("should count retired weapons when checking serials", func() {
			// Given guard 2's retired weapon still holds SN-100
			dto := &CreateWeaponDTO{GuardID: 2, SerialNumber: "SN-100", Model: "Glock 19"}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateSerial))
		})

		ginkgo.It("should reject an unknown guard", func() {
			// Given
			dto := &CreateWeaponDTO{GuardID: 99, SerialNumber: "SN-300", Model: "Beretta 92"}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})

		ginkgo.It("should deny non-managers", func() {
			// Given
			dto := &CreateWeaponDTO{GuardID: 1, SerialNumber: "SN-300", Model: "Beretta 92"}

			// When
			_, err := service.Create(guardCaller, dto)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a missing serial number", func() {
			// Given
			dto := &CreateWeaponDTO{GuardID: 1, Model: "Beretta 92"}

			// When
			_, err := service.Create(adminCaller, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should patch the weapon for a manager", func() {
			// Given
			dto := &UpdateWeaponDTO{SerialNumber: strPtr("SN-101"), PermitNumber: strPtr("P-77")}

			// When
			w, err := service.Update(adminCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(w.SerialNumber).To(gomega.Equal("SN-101"))
			gomega.Expect(w.PermitNumber).To(gomega.Equal("P-77"))
		})

		ginkgo.It("should accept resubmitting the current serial", func() {
			// Given
			dto := &UpdateWeaponDTO{SerialNumber: strPtr("SN-100"), Model: strPtr("Glock 17 Gen5")}

			// When
			w, err := service.Update(adminCaller, 1, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(w.Model).To(gomega.Equal("Glock 17 Gen5"))
		})

		ginkgo.It("should reject a serial another of the guard's weapons holds", func() {
			// Given
			dto := &UpdateWeaponDTO{SerialNumber: strPtr("SN-200")}

			// When
			_, err := service.Update(adminCaller, 1, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeDuplicateSerial))
		})

		ginkgo.It("should deny non-managers", func() {
			// Given
			dto := &UpdateWeaponDTO{Model: strPtr("Renamed")}

			// When
			_, err := service.Update(guardCaller, 1, dto)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})

		ginkgo.It("should return not found for an unknown id", func() {
			// Given
			dto := &UpdateWeaponDTO{Model: strPtr("Renamed")}

			// When
			_, err := service.Update(adminCaller, 999, dto)

			// Then
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeWeaponNotFound))
		})
	})

	ginkgo.Describe("Delete and Restore", func() {
		ginkgo.It("should retire and reinstate a weapon for managers", func() {
			// When
			err := service.Delete(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.weapons[1].IsActive).To(gomega.BeFalse())

			// When reinstated
			err = service.Restore(adminCaller, 1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.weapons[1].IsActive).To(gomega.BeTrue())
		})

		ginkgo.It("should deny non-managers", func() {
			// When
			err := service.Delete(guardCaller, 1)
			restoreErr := service.Restore(guardCaller, 3)

			// Then
			gomega.Expect(errors.Is(err, internal.ErrPermissionDenied)).To(gomega.BeTrue())
			gomega.Expect(errors.Is(restoreErr, internal.ErrPermissionDenied)).To(gomega.BeTrue())
		})
	})
})
