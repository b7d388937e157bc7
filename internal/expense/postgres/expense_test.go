package postgres

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	expenseDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/expense"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	"github.com/qu-security/guardforce/internal/expense"
	"github.com/qu-security/guardforce/internal/permissions"
)

func TestExpenseRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Expense Repository Suite")
}

var _ = ginkgo.Describe("ExpenseRepository", func() {
	var (
		db   *gorm.DB
		repo expense.Repository
		q    listing.Query
	)

	seedExpense := func(propertyID int64, description string, amount float64, active bool) int64 {
		row := &expenseDatamodel.Expense{
			PropertyID:  propertyID,
			Description: description,
			Amount:      amount,
			ExpenseDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			IsActive:    active,
		}
		err := db.Create(row).Error
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return row.ID
	}

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&propertyDatamodel.Property{}, &expenseDatamodel.Expense{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		properties := []*propertyDatamodel.Property{
			{ID: 1, OwnerID: 100, Name: "Harbor warehouse", Address: "12 Harbor Rd", IsActive: true},
			{ID: 2, OwnerID: 200, Name: "Quarry depot", Address: "9 Quarry Ln", IsActive: true},
		}
		for _, p := range properties {
			gomega.Expect(db.Create(p).Error).ToNot(gomega.HaveOccurred())
		}

		repo = NewExpenseRepository(db)
		q = listing.Query{}.Normalize()
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should insert and return the joined view", func() {
			// Given
			createdBy := int64(42)
			e := &expense.Expense{
				PropertyID:  1,
				Description: "Gate motor repair",
				Amount:      450.00,
				ExpenseDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
				CreatedBy:   &createdBy,
				IsActive:    true,
			}

			// When
			err := repo.Create(e)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(e.ID).ToNot(gomega.BeZero())
			gomega.Expect(e.PropertyAddress).To(gomega.Equal("12 Harbor Rd"))
			gomega.Expect(e.PropertyOwnerID).To(gomega.Equal(int64(100)))
		})
	})

	ginkgo.Describe("GetByID", func() {
		ginkgo.It("should find an existing expense", func() {
			// Given
			id := seedExpense(2, "Fuel for patrol vehicle", 90.50, true)

			// When
			found, ok, err := repo.GetByID(id)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(found.Description).To(gomega.Equal("Fuel for patrol vehicle"))
			gomega.Expect(found.PropertyOwnerID).To(gomega.Equal(int64(200)))
		})

		ginkgo.It("should report a missing expense without error", func() {
			// When
			_, ok, err := repo.GetByID(9999)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.BeforeEach(func() {
			seedExpense(1, "Gate motor repair", 450.00, true)
			seedExpense(1, "Old lighting invoice", 120.00, false)
			seedExpense(2, "Fuel for patrol vehicle", 90.50, true)
		})

		ginkgo.It("should return all active rows for a full scope", func() {
			// When
			expenses, err := repo.List(q, permissions.FilterAll(), expense.Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.HaveLen(2))
		})

		ginkgo.It("should order by id descending by default", func() {
			// When
			expenses, err := repo.List(q, permissions.FilterAll(), expense.Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses[0].Description).To(gomega.Equal("Fuel for patrol vehicle"))
		})

		ginkgo.It("should restrict an owner scope to their properties", func() {
			// When
			expenses, err := repo.List(q, permissions.FilterOwnerClient(100), expense.Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.HaveLen(1))
			gomega.Expect(expenses[0].PropertyID).To(gomega.Equal(int64(1)))
		})

		ginkgo.It("should return nothing for an empty scope", func() {
			// When
			expenses, err := repo.List(q, permissions.FilterNone(), expense.Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.BeEmpty())
		})

		ginkgo.It("should narrow by property", func() {
			// Given
			propertyID := int64(2)

			// When
			expenses, err := repo.List(q, permissions.FilterAll(), expense.Filter{PropertyID: &propertyID})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.HaveLen(1))
			gomega.Expect(expenses[0].PropertyAddress).To(gomega.Equal("9 Quarry Ln"))
		})

		ginkgo.It("should include soft-deleted rows on request", func() {
			// Given
			withInactive := q
			withInactive.IncludeInactive = true

			// When
			expenses, err := repo.List(withInactive, permissions.FilterAll(), expense.Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.HaveLen(3))
		})

		ginkgo.It("should honor a requested ordering", func() {
			// Given
			byAmount := q
			byAmount.Ordering = "amount"

			// When
			expenses, err := repo.List(byAmount, permissions.FilterAll(), expense.Filter{})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses[0].Amount).To(gomega.Equal(90.50))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should persist changed fields", func() {
			// Given
			id := seedExpense(1, "Gate motor repair", 450.00, true)
			loaded, _, err := repo.GetByID(id)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			loaded.Description = "Gate motor repair and alignment"
			loaded.Amount = 475.50

			// When
			err = repo.Update(loaded)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			reloaded, _, err := repo.GetByID(id)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(reloaded.Description).To(gomega.Equal("Gate motor repair and alignment"))
			gomega.Expect(reloaded.Amount).To(gomega.Equal(475.50))
		})
	})

	ginkgo.Describe("SetActive", func() {
		ginkgo.It("should soft delete and restore a row", func() {
			// Given
			id := seedExpense(1, "Gate motor repair", 450.00, true)

			// When
			err := repo.SetActive(id, false)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			expenses, err := repo.List(q, permissions.FilterAll(), expense.Filter{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.BeEmpty())

			// When restored
			err = repo.SetActive(id, true)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			expenses, err = repo.List(q, permissions.FilterAll(), expense.Filter{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(expenses).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("PropertyExists", func() {
		ginkgo.It("should check the properties table", func() {
			// When
			exists, err := repo.PropertyExists(1)
			missing, err2 := repo.PropertyExists(777)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(err2).ToNot(gomega.HaveOccurred())
			gomega.Expect(exists).To(gomega.BeTrue())
			gomega.Expect(missing).To(gomega.BeFalse())
		})
	})
})
