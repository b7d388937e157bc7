package user

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Repository is the persistence surface the user service depends on.
type Repository interface {
	Create(user *User) error
	GetByID(id int64) (*User, bool, error)
	GetByUsername(username string) (*User, bool, error)
	List(limit, offset int) ([]*User, error)
	Update(user *User) error
	Deactivate(id int64) error
}

// PasswordHasher abstracts password hashing so the service does not
// depend on the auth package directly.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: log,
	}
}

func (s *Service) Register(dto *RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	_, taken, err := s.repo.GetByUsername(dto.Username)
	if err != nil {
		s.logger.Error("failed to check username availability", "username", dto.Username, "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}
	if taken {
		return nil, internal.NewConflictError("username is already taken", internal.ErrCodeDuplicateUsername)
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	user := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(user); err != nil {
		s.logger.Error("failed to create user", "username", dto.Username, "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	user, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	return user, nil
}

// List pages through the staff/superuser directory. The repository applies
// the staff filter; regular accounts never appear here.
func (s *Service) List(limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.repo.List(limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) Update(id int64, dto *UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	if dto.Email != nil {
		user.Email = *dto.Email
	}
	if dto.FirstName != nil {
		user.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		user.LastName = *dto.LastName
	}

	if err := s.repo.Update(user); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return user, nil
}

// Deactivate soft-disables the account. Login and token refresh reject
// inactive users, so access ends without destroying history.
func (s *Service) Deactivate(id int64) error {
	_, found, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewInternalError("failed to get user", err)
	}
	if !found {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate user", "user_id", id, "error", err)
		return internal.NewInternalError("failed to deactivate user", err)
	}
	s.logger.Info("user deactivated", "user_id", id)
	return nil
}
