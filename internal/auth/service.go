package auth

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/qu-security/guardforce/internal/permissions"
)

type UserRepository interface {
	GetAccountByUsername(username string) (*Account, bool, error)
	GetAccountByID(userID int64) (*Account, bool, error)
	UpdateLastLogin(userID int64, at time.Time) error
}

// SnapshotProvider assembles the permission summary embedded in access
// tokens. Satisfied by the permission engine.
type SnapshotProvider interface {
	Snapshot(userID int64) (*permissions.ClaimsSnapshot, error)
}

type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	snapshots      SnapshotProvider
	logger         *slog.Logger
	bcryptCost     int
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, snapshots SnapshotProvider, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		snapshots:      snapshots,
		logger:         logger,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// Authenticate validates credentials and returns a token pair. The access
// token carries a fresh permission snapshot computed at this moment.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	account, found, err := s.userRepo.GetAccountByUsername(dto.Username)
	if err != nil {
		s.logger.Error("login: account lookup failed", "error", err)
		return AuthTokens{}, err
	}
	if !found {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if !account.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	tokens, err := s.issueTokens(account)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.userRepo.UpdateLastLogin(account.ID, time.Now()); err != nil {
		s.logger.Warn("login: failed to record last login", "error", err, "user_id", account.ID)
	}

	s.logger.Info("user authenticated", "user_id", account.ID, "username", account.Username)
	return tokens, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The permission
// snapshot is recomputed, so role changes since login take effect here.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	account, found, err := s.userRepo.GetAccountByID(claims.UserID)
	if err != nil {
		s.logger.Error("refresh: account lookup failed", "error", err, "user_id", claims.UserID)
		return AuthTokens{}, err
	}
	if !found {
		return AuthTokens{}, ErrInvalidToken
	}
	if !account.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(account)
}

func (s *Service) issueTokens(account *Account) (AuthTokens, error) {
	snapshot, err := s.snapshots.Snapshot(account.ID)
	if err != nil {
		s.logger.Error("failed to build permission snapshot", "error", err, "user_id", account.ID)
		return AuthTokens{}, err
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(account, snapshot)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(account.ID)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		Access:  accessToken,
		Refresh: refreshToken,
	}, nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// UserContext loads the caller for the request context. Reading the row
// on every request means deactivating an account takes effect
// immediately, not at token expiry.
func (s *Service) UserContext(userID int64) (*User, error) {
	account, found, err := s.userRepo.GetAccountByID(userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidToken
	}
	if !account.IsActive {
		return nil, ErrUserInactive
	}

	return &User{
		ID:          account.ID,
		Username:    account.Username,
		Email:       account.Email,
		IsStaff:     account.IsStaff,
		IsSuperuser: account.IsSuperuser,
	}, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}
