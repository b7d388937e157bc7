package postgres

import (
	"database/sql"
	"time"

	"github.com/qu-security/guardforce/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const accountColumns = `id, username, email, first_name, last_name, password_hash, is_staff, is_superuser, is_active`

func (r *Repository) GetAccountByUsername(username string) (*auth.Account, bool, error) {
	row := r.db.Raw(`SELECT `+accountColumns+` FROM users WHERE username = ?`, username).Row()
	return scanAccount(row)
}

func (r *Repository) GetAccountByID(userID int64) (*auth.Account, bool, error) {
	row := r.db.Raw(`SELECT `+accountColumns+` FROM users WHERE id = ?`, userID).Row()
	return scanAccount(row)
}

func (r *Repository) UpdateLastLogin(userID int64, at time.Time) error {
	return r.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, at, userID).Error
}

func scanAccount(row *sql.Row) (*auth.Account, bool, error) {
	var account auth.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.PasswordHash,
		&account.IsStaff,
		&account.IsSuperuser,
		&account.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &account, true, nil
}

var _ auth.UserRepository = (*Repository)(nil)
