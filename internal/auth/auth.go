package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/qu-security/guardforce/internal/permissions"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated caller placed on the request context by the
// auth middleware. It carries identity only; authorization always goes
// back to the permission engine.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// Account is the credential row the login flow reads, password hash
// included. It never leaves the auth package.
type Account struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
}

// Claims is the JWT payload. The permission fields are an advisory
// snapshot for frontends; the server re-checks every request against the
// stores, so a stale token cannot widen access.
type Claims struct {
	UserID               int64               `json:"user_id"`
	Username             string              `json:"username"`
	IsStaff              bool                `json:"is_staff"`
	IsSuperuser          bool                `json:"is_superuser"`
	Role                 string              `json:"role"`
	AccessibleProperties []int64             `json:"accessible_properties"`
	ResourcePermissions  map[string][]string `json:"resource_permissions"`
	IsAdmin              bool                `json:"is_admin"`
	TokenType            string              `json:"token_type"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenGenerator interface {
	GenerateAccessToken(account *Account, snapshot *permissions.ClaimsSnapshot) (string, error)
	GenerateRefreshToken(userID int64) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	UserContext(userID int64) (*User, error)
	HashPassword(password string) (string, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
