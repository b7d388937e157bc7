package note

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Visibility tells the repository which notes a caller may see. All
// overrides the rest; otherwise a note is visible when it was created by
// the user or any relation list touches one of the profile ids.
type Visibility struct {
	All         bool
	UserID      int64
	ClientID    *int64
	GuardID     *int64
	PropertyIDs []int64
}

type Repository interface {
	Create(n *Note) error
	GetByID(id int64) (*Note, bool, error)
	List(q listing.Query, vis Visibility) ([]*Note, error)
	// AllVisible returns every active note the visibility admits, without
	// pagination. Feeds the statistics aggregation.
	AllVisible(vis Visibility) ([]*Note, error)
	Update(n *Note) error
	SetActive(id int64, active bool) error
	MarkViewed(id int64, userID int64) error
}

type PermissionChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
}

// ProfileResolver finds the caller's profiles and owned properties, which
// together decide note visibility.
type ProfileResolver interface {
	ClientIDByUserID(userID int64) (int64, bool, error)
	GuardIDByUserID(userID int64) (int64, bool, error)
	PropertyIDsByClientID(clientID int64) ([]int64, error)
}

type Service struct {
	repo     Repository
	perms    PermissionChecker
	profiles ProfileResolver
	logger   *slog.Logger
}

func NewService(repo Repository, perms PermissionChecker, profiles ProfileResolver, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{repo: repo, perms: perms, profiles: profiles, logger: log}
}

func (s *Service) visibility(callerID int64) (Visibility, error) {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return Visibility{}, internal.NewInternalError("failed to check permissions", err)
	}
	if allowed {
		return Visibility{All: true}, nil
	}

	vis := Visibility{UserID: callerID}
	clientID, ok, err := s.profiles.ClientIDByUserID(callerID)
	if err != nil {
		return Visibility{}, internal.NewInternalError("failed to resolve client profile", err)
	}
	if ok {
		vis.ClientID = &clientID
		propertyIDs, err := s.profiles.PropertyIDsByClientID(clientID)
		if err != nil {
			return Visibility{}, internal.NewInternalError("failed to resolve owned properties", err)
		}
		vis.PropertyIDs = propertyIDs
	}

	guardID, ok, err := s.profiles.GuardIDByUserID(callerID)
	if err != nil {
		return Visibility{}, internal.NewInternalError("failed to resolve guard profile", err)
	}
	if ok {
		vis.GuardID = &guardID
	}
	return vis, nil
}

func (s *Service) List(callerID int64, q listing.Query) ([]*Note, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	vis, err := s.visibility(callerID)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.List(q, vis)
	if err != nil {
		s.logger.Error("failed to list notes", "error", err)
		return nil, internal.NewInternalError("failed to list notes", err)
	}
	return notes, nil
}

func (s *Service) GetByID(callerID int64, id int64) (*Note, error) {
	n, err := s.fetchVisible(callerID, id)
	if err != nil {
		return nil, err
	}

	if !n.Viewed(callerID) {
		if err := s.repo.MarkViewed(id, callerID); err != nil {
			s.logger.Warn("failed to mark note viewed", "error", err, "note_id", id)
		} else {
			n.ViewedBy = append(n.ViewedBy, callerID)
		}
	}
	return n, nil
}

func (s *Service) Create(callerID int64, dto *CreateNoteDTO) (*Note, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	n := &Note{
		Name:           dto.Name,
		Description:    dto.Description,
		Amount:         dto.Amount,
		Clients:        orEmpty(dto.Clients),
		Properties:     orEmpty(dto.Properties),
		Guards:         orEmpty(dto.Guards),
		Services:       orEmpty(dto.Services),
		Shifts:         orEmpty(dto.Shifts),
		Weapons:        orEmpty(dto.Weapons),
		TypeOfServices: orEmpty(dto.TypeOfServices),
		ViewedBy:       []int64{},
		CreatedBy:      &callerID,
		IsActive:       true,
	}

	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to create note", "error", err)
		return nil, internal.NewInternalError("failed to create note", err)
	}
	return n, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateNoteDTO) (*Note, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	n, err := s.fetchVisible(callerID, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		n.Name = *dto.Name
	}
	if dto.Description != nil {
		n.Description = *dto.Description
	}
	if dto.Amount != nil {
		n.Amount = dto.Amount
	}
	if dto.Clients != nil {
		n.Clients = orEmpty(*dto.Clients)
	}
	if dto.Properties != nil {
		n.Properties = orEmpty(*dto.Properties)
	}
	if dto.Guards != nil {
		n.Guards = orEmpty(*dto.Guards)
	}
	if dto.Services != nil {
		n.Services = orEmpty(*dto.Services)
	}
	if dto.Shifts != nil {
		n.Shifts = orEmpty(*dto.Shifts)
	}
	if dto.Weapons != nil {
		n.Weapons = orEmpty(*dto.Weapons)
	}
	if dto.TypeOfServices != nil {
		n.TypeOfServices = orEmpty(*dto.TypeOfServices)
	}

	if err := s.repo.Update(n); err != nil {
		s.logger.Error("failed to update note", "error", err, "note_id", id)
		return nil, internal.NewInternalError("failed to update note", err)
	}
	return n, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	return s.setActive(callerID, id, false)
}

func (s *Service) Restore(callerID int64, id int64) error {
	return s.setActive(callerID, id, true)
}

func (s *Service) setActive(callerID int64, id int64, active bool) error {
	if _, err := s.fetchVisible(callerID, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, active); err != nil {
		s.logger.Error("failed to change note active state", "error", err, "note_id", id)
		return internal.NewInternalError("failed to update note", err)
	}
	return nil
}

// Duplicate copies a visible note under the caller's name, relations
// included, with a " (Copy)" suffix. The view list starts empty.
func (s *Service) Duplicate(callerID int64, id int64) (*Note, error) {
	source, err := s.fetchVisible(callerID, id)
	if err != nil {
		return nil, err
	}

	copied := &Note{
		Name:           source.Name + " (Copy)",
		Description:    source.Description,
		Amount:         source.Amount,
		Clients:        append([]int64{}, source.Clients...),
		Properties:     append([]int64{}, source.Properties...),
		Guards:         append([]int64{}, source.Guards...),
		Services:       append([]int64{}, source.Services...),
		Shifts:         append([]int64{}, source.Shifts...),
		Weapons:        append([]int64{}, source.Weapons...),
		TypeOfServices: append([]int64{}, source.TypeOfServices...),
		ViewedBy:       []int64{},
		CreatedBy:      &callerID,
		IsActive:       true,
	}

	if err := s.repo.Create(copied); err != nil {
		s.logger.Error("failed to duplicate note", "error", err, "note_id", id)
		return nil, internal.NewInternalError("failed to duplicate note", err)
	}
	return copied, nil
}

// Statistics aggregates the notes the caller can see. Income and expense
// come from the amount sign; unviewed counts notes the caller has not
// opened yet.
func (s *Service) Statistics(callerID int64) (*Statistics, error) {
	vis, err := s.visibility(callerID)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.AllVisible(vis)
	if err != nil {
		s.logger.Error("failed to list notes for statistics", "error", err)
		return nil, internal.NewInternalError("failed to compute note statistics", err)
	}

	stats := &Statistics{TotalNotes: len(notes)}
	for _, n := range notes {
		if n.Amount != nil {
			switch {
			case *n.Amount > 0:
				stats.TotalIncome += *n.Amount
			case *n.Amount < 0:
				stats.TotalExpense += -*n.Amount
			}
		}
		if len(n.Clients) > 0 {
			stats.WithClients++
		}
		if len(n.Properties) > 0 {
			stats.WithProperty++
		}
		if len(n.Guards) > 0 {
			stats.WithGuards++
		}
		if len(n.Services) > 0 {
			stats.WithServices++
		}
		if len(n.Shifts) > 0 {
			stats.WithShifts++
		}
		if len(n.Weapons) > 0 {
			stats.WithWeapons++
		}
		if !n.Viewed(callerID) {
			stats.UnviewedNotes++
		}
	}
	stats.NetAmount = stats.TotalIncome - stats.TotalExpense
	return stats, nil
}

// fetchVisible loads a note and enforces the visibility rule on the
// single-row path, so detail routes cannot reach rows the list hides.
func (s *Service) fetchVisible(callerID int64, id int64) (*Note, error) {
	n, found, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to load note", "error", err, "note_id", id)
		return nil, internal.NewInternalError("failed to load note", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("note not found", internal.ErrCodeNoteNotFound)
	}

	vis, err := s.visibility(callerID)
	if err != nil {
		return nil, err
	}
	if !visible(n, vis) {
		// Hidden rows read as missing so ids cannot be probed.
		return nil, internal.NewNotFoundError("note not found", internal.ErrCodeNoteNotFound)
	}
	return n, nil
}

func visible(n *Note, vis Visibility) bool {
	if vis.All {
		return true
	}
	if n.CreatedBy != nil && *n.CreatedBy == vis.UserID {
		return true
	}
	if vis.ClientID != nil && contains(n.Clients, *vis.ClientID) {
		return true
	}
	if vis.GuardID != nil && contains(n.Guards, *vis.GuardID) {
		return true
	}
	for _, propertyID := range vis.PropertyIDs {
		if contains(n.Properties, propertyID) {
			return true
		}
	}
	return false
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
