package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Model is one exportable read-model: a flat SELECT with fixed headers.
// The allow-list below is the whole export surface; nothing user-supplied
// ever reaches the SQL.
type Model struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Headers     []string `json:"headers"`
	query       string
}

var models = map[string]Model{
	"guards": {
		Name:        "guards",
		Description: "Guard roster with user account details",
		Headers:     []string{"id", "username", "first_name", "last_name", "email", "phone", "is_active", "created_at"},
		query: `SELECT g.id, u.username, u.first_name, u.last_name, u.email,
			g.phone, g.is_active, g.created_at
			FROM guards g JOIN users u ON u.id = g.user_id
			ORDER BY g.id`,
	},
	"clients": {
		Name:        "clients",
		Description: "Clients with contact accounts and balance",
		Headers:     []string{"id", "username", "first_name", "last_name", "email", "phone", "balance", "is_active", "created_at"},
		query: `SELECT c.id, u.username, u.first_name, u.last_name, u.email,
			c.phone, c.balance, c.is_active, c.created_at
			FROM clients c JOIN users u ON u.id = c.user_id
			ORDER BY c.id`,
	},
	"properties": {
		Name:        "properties",
		Description: "Properties with owning client",
		Headers:     []string{"id", "name", "alias", "address", "owner_username", "monthly_rate", "is_active", "created_at"},
		query: `SELECT p.id, p.name, p.alias, p.address, u.username AS owner_username,
			p.monthly_rate, p.is_active, p.created_at
			FROM properties p
			JOIN clients c ON c.id = p.owner_id
			JOIN users u ON u.id = c.user_id
			ORDER BY p.id`,
	},
	"shifts": {
		Name:        "shifts",
		Description: "Shift history with guard and property",
		Headers:     []string{"id", "guard_username", "property_name", "planned_start_time", "planned_end_time", "actual_start_time", "actual_end_time", "hours_worked", "status", "is_armed"},
		query: `SELECT s.id, u.username AS guard_username, p.name AS property_name,
			s.planned_start_time, s.planned_end_time, s.actual_start_time, s.actual_end_time,
			s.hours_worked, s.status, s.is_armed
			FROM shifts s
			JOIN guards g ON g.id = s.guard_id
			JOIN users u ON u.id = g.user_id
			JOIN properties p ON p.id = s.property_id
			ORDER BY s.id`,
	},
	"expenses": {
		Name:        "expenses",
		Description: "Expenses by property",
		Headers:     []string{"id", "property_name", "description", "amount", "expense_date", "is_active", "created_at"},
		query: `SELECT e.id, p.name AS property_name, e.description, e.amount,
			e.expense_date, e.is_active, e.created_at
			FROM expenses e JOIN properties p ON p.id = e.property_id
			ORDER BY e.id`,
	},
}

// ModelNames lists the exportable models in stable order.
func ModelNames() []Model {
	out := make([]Model, 0, len(models))
	for _, m := range models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type PermissionChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
}

// Service streams allow-listed read-models as CSV. It reads through sqlx
// directly instead of the gorm repositories: exports are flat cross-entity
// joins with no domain rules attached.
type Service struct {
	db     *sqlx.DB
	perms  PermissionChecker
	logger *slog.Logger
}

func NewService(db *sqlx.DB, perms PermissionChecker, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{db: db, perms: perms, logger: log}
}

// Models returns the export catalog. Admin and manager only, same rule as
// Export.
func (s *Service) Models(callerID int64) ([]Model, error) {
	if err := s.requireManager(callerID); err != nil {
		return nil, err
	}
	return ModelNames(), nil
}

// Export writes the named model as CSV to w, header row first. Rows are
// streamed; large exports never buffer fully in memory.
func (s *Service) Export(callerID int64, modelName string, w io.Writer) error {
	if err := s.requireManager(callerID); err != nil {
		return err
	}

	model, ok := models[modelName]
	if !ok {
		return internal.NewValidationError(
			fmt.Sprintf("unknown report model %q", modelName), internal.ErrCodeValidationFailed)
	}

	rows, err := s.db.Queryx(model.query)
	if err != nil {
		s.logger.Error("report query failed", "error", err, "model", modelName)
		return internal.NewInternalError("failed to run report query", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(model.Headers); err != nil {
		return internal.NewInternalError("failed to write report", err)
	}

	record := make([]string, len(model.Headers))
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			s.logger.Error("report row scan failed", "error", err, "model", modelName)
			return internal.NewInternalError("failed to read report row", err)
		}
		for i := range record {
			if i < len(values) {
				record[i] = formatValue(values[i])
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return internal.NewInternalError("failed to write report", err)
		}
	}
	if err := rows.Err(); err != nil {
		return internal.NewInternalError("failed to read report rows", err)
	}

	cw.Flush()
	return cw.Error()
}

func (s *Service) requireManager(callerID int64) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return internal.NewForbiddenError("only admins and managers may export reports", internal.ErrCodePermissionDenied)
	}
	return nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
