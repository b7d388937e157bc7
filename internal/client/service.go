package client

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/pkg/logger"
)

type Repository interface {
	// CreateWithUser inserts the user account and the client profile in
	// one transaction. The repository derives a unique username from the
	// email local part and leaves the password unset.
	CreateWithUser(c *Client) error
	GetByID(id int64) (*Client, bool, error)
	List(q listing.Query) ([]*Client, error)
	Update(c *Client) error
	SetActive(id int64, active bool) error
	OwnedProperties(clientID int64) ([]*OwnedProperty, error)
	EmailInUse(email string) (bool, error)
}

// RoleChecker is the slice of the permission engine this service needs.
type RoleChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
}

type Service struct {
	repo   Repository
	perms  RoleChecker
	logger *slog.Logger
}

func NewService(repo Repository, perms RoleChecker, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{repo: repo, perms: perms, logger: log}
}

// List is open to any authenticated user. The inactive toggle only takes
// effect for admins and managers; for everyone else it is ignored.
func (s *Service) List(callerID int64, q listing.Query) ([]*Client, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	clients, err := s.repo.List(q)
	if err != nil {
		s.logger.Error("failed to list clients", "error", err)
		return nil, internal.NewInternalError("failed to list clients", err)
	}
	return clients, nil
}

func (s *Service) GetByID(callerID int64, id int64) (*Client, error) {
	c, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get client", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("client not found", internal.ErrCodeClientNotFound)
	}
	return c, nil
}

func (s *Service) Create(callerID int64, dto *CreateClientDTO) (*Client, error) {
	if err := s.requireAdminOrManager(callerID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailInUse(dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to create client", err)
	}
	if taken {
		return nil, internal.NewConflictError("email is already in use", internal.ErrCodeDuplicateEmail)
	}

	c := &Client{
		Email:     dto.Email,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Phone:     dto.Phone,
		IsActive:  true,
	}
	if err := s.repo.CreateWithUser(c); err != nil {
		s.logger.Error("failed to create client", "email", dto.Email, "error", err)
		return nil, internal.NewInternalError("failed to create client", err)
	}

	s.logger.Info("client created", "client_id", c.ID, "user_id", c.UserID, "created_by", callerID)
	return c, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateClientDTO) (*Client, error) {
	if err := s.requireAdminOrManager(callerID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get client", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("client not found", internal.ErrCodeClientNotFound)
	}

	if dto.Email != nil {
		c.Email = *dto.Email
	}
	if dto.FirstName != nil {
		c.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		c.LastName = *dto.LastName
	}
	if dto.Phone != nil {
		c.Phone = *dto.Phone
	}
	if dto.Balance != nil {
		c.Balance = *dto.Balance
	}

	if err := s.repo.Update(c); err != nil {
		s.logger.Error("failed to update client", "client_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update client", err)
	}
	return c, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	return s.setActive(callerID, id, false)
}

func (s *Service) Restore(callerID int64, id int64) error {
	return s.setActive(callerID, id, true)
}

func (s *Service) setActive(callerID int64, id int64, active bool) error {
	if err := s.requireAdminOrManager(callerID); err != nil {
		return err
	}
	_, found, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewInternalError("failed to get client", err)
	}
	if !found {
		return internal.NewNotFoundError("client not found", internal.ErrCodeClientNotFound)
	}
	if err := s.repo.SetActive(id, active); err != nil {
		s.logger.Error("failed to change client active state", "client_id", id, "active", active, "error", err)
		return internal.NewInternalError("failed to update client", err)
	}
	return nil
}

// OwnedProperties lists the properties owned by one client. Open to any
// authenticated user, matching the read rules for clients themselves.
func (s *Service) OwnedProperties(callerID int64, clientID int64) ([]*OwnedProperty, error) {
	_, found, err := s.repo.GetByID(clientID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get client", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("client not found", internal.ErrCodeClientNotFound)
	}

	properties, err := s.repo.OwnedProperties(clientID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list client properties", err)
	}
	return properties, nil
}

func (s *Service) requireAdminOrManager(callerID int64) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return internal.ErrPermissionDenied
	}
	return nil
}
