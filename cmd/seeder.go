package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/permissions"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initGorm(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			tables := []string{
				"notes", "expenses", "shifts", "weapons", "services",
				"guard_property_tariffs", "property_type_links", "property_types",
				"properties", "guards", "clients",
				"permission_logs", "property_access_grants", "resource_grants",
				"user_groups", "role_assignments", "users",
			}
			for _, t := range tables {
				if err := db.Exec("DELETE FROM " + t).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", t, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminID := ensureUser(db, "admin", "admin@guardforce.local", "Site", "Admin", string(hash), true, true)
		ensureRole(db, adminID, permissions.RoleAdmin, adminID)

		managerID := ensureUser(db, "mralvarez", "m.alvarez@guardforce.local", "Marta", "Alvarez", string(hash), true, false)
		ensureRole(db, managerID, permissions.RoleManager, adminID)

		clientUserID := ensureUser(db, "northgate", "office@northgate.example", "North", "Gate", string(hash), false, false)
		ensureRole(db, clientUserID, permissions.RoleClient, adminID)
		clientID := ensureScalar(db,
			"SELECT id FROM clients WHERE user_id = ?",
			"INSERT INTO clients (user_id, phone, balance, is_active, created_at, updated_at) VALUES (?, '+1-555-0170', 0, true, now(), now())",
			clientUserID)

		guardUserID := ensureUser(db, "jokamau", "j.okamau@guardforce.local", "Joseph", "Okamau", string(hash), false, false)
		ensureRole(db, guardUserID, permissions.RoleGuard, adminID)
		guardID := ensureScalar(db,
			"SELECT id FROM guards WHERE user_id = ?",
			"INSERT INTO guards (user_id, phone, ssn, address, is_active, created_at, updated_at) VALUES (?, '+1-555-0188', '', '12 Harbor Rd', true, now(), now())",
			guardUserID)

		propertyID := ensureScalar(db,
			"SELECT id FROM properties WHERE owner_id = ? AND name = 'Northgate Mall'",
			"INSERT INTO properties (owner_id, name, address, monthly_rate, total_hours, is_active, created_at, updated_at) VALUES (?, 'Northgate Mall', '400 Commerce Ave', 4800.00, 0, true, now(), now())",
			clientID)

		var exists int
		if err := db.Raw("SELECT 1 FROM guard_property_tariffs WHERE guard_id = ? AND property_id = ? AND is_active", guardID, propertyID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO guard_property_tariffs (guard_id, property_id, rate, is_active, created_at, updated_at) VALUES (?, ?, 22.50, true, now(), now())", guardID, propertyID).Error; err != nil {
				log.Fatalf("failed to insert tariff: %v", err)
			}
			fmt.Println("Seeded tariff for guard at Northgate Mall")
		}

		fmt.Println("Seed complete. Login with admin / password")
	},
}

// ensureUser inserts the user unless the username is already taken, and
// returns the user id either way.
func ensureUser(db *gorm.DB, username, email, first, last, hash string, staff, superuser bool) int64 {
	var id int64
	if err := db.Raw("SELECT id FROM users WHERE username = ?", username).Row().Scan(&id); err == nil {
		fmt.Printf("user %s already exists\n", username)
		return id
	}
	err := db.Exec(
		"INSERT INTO users (username, email, first_name, last_name, password_hash, is_staff, is_superuser, is_active, date_joined, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, true, now(), now())",
		username, email, first, last, hash, staff, superuser,
	).Error
	if err != nil {
		log.Fatalf("failed to insert user %s: %v", username, err)
	}
	if err := db.Raw("SELECT id FROM users WHERE username = ?", username).Row().Scan(&id); err != nil {
		log.Fatalf("failed to look up user %s after insert: %v", username, err)
	}
	fmt.Printf("Seeded user: %s\n", username)
	return id
}

// ensureRole makes the role the user's single active assignment and keeps
// the derived group row in step with it.
func ensureRole(db *gorm.DB, userID int64, role permissions.Role, performedBy int64) {
	var current string
	if err := db.Raw("SELECT role FROM role_assignments WHERE user_id = ? AND is_active", userID).Row().Scan(&current); err == nil && current == string(role) {
		return
	}
	if err := db.Exec("UPDATE role_assignments SET is_active = false, updated_at = now() WHERE user_id = ? AND is_active", userID).Error; err != nil {
		log.Fatalf("failed to deactivate roles for user %d: %v", userID, err)
	}
	if err := db.Exec("INSERT INTO role_assignments (user_id, role, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())", userID, string(role)).Error; err != nil {
		log.Fatalf("failed to assign role %s to user %d: %v", role, userID, err)
	}
	if err := db.Exec("DELETE FROM user_groups WHERE user_id = ?", userID).Error; err != nil {
		log.Fatalf("failed to clear groups for user %d: %v", userID, err)
	}
	if group := permissions.GroupForRole(role); group != "" {
		if err := db.Exec("INSERT INTO user_groups (user_id, name, created_at) VALUES (?, ?, now())", userID, group).Error; err != nil {
			log.Fatalf("failed to add user %d to group %s: %v", userID, group, err)
		}
	}
	fmt.Printf("Assigned role %s to user %d\n", role, userID)
}

// ensureScalar runs selectSQL with arg; when no row matches it runs
// insertSQL with the same arg and selects again. Returns the id.
func ensureScalar(db *gorm.DB, selectSQL, insertSQL string, arg int64) int64 {
	var id int64
	if err := db.Raw(selectSQL, arg).Row().Scan(&id); err == nil {
		return id
	}
	if err := db.Exec(insertSQL, arg).Error; err != nil {
		log.Fatalf("seed insert failed: %v", err)
	}
	if err := db.Raw(selectSQL, arg).Row().Scan(&id); err != nil {
		log.Fatalf("seed lookup failed after insert: %v", err)
	}
	return id
}
