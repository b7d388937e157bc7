package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/auth"
	"github.com/qu-security/guardforce/internal/client"
	"github.com/qu-security/guardforce/internal/expense"
	"github.com/qu-security/guardforce/internal/guard"
	"github.com/qu-security/guardforce/internal/location"
	"github.com/qu-security/guardforce/internal/metrics"
	"github.com/qu-security/guardforce/internal/note"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/internal/property"
	"github.com/qu-security/guardforce/internal/report"
	"github.com/qu-security/guardforce/internal/service"
	"github.com/qu-security/guardforce/internal/shift"
	"github.com/qu-security/guardforce/internal/tariff"
	"github.com/qu-security/guardforce/internal/transport/middleware"
	"github.com/qu-security/guardforce/internal/transport/swagger"
	"github.com/qu-security/guardforce/internal/user"
	"github.com/qu-security/guardforce/internal/weapon"
)

// Handlers bundles every HTTP handler the router mounts. Nil entries are
// skipped so partial wirings (tests, tooling) stay possible.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Client      *client.Handler
	Guard       *guard.Handler
	Property    *property.Handler
	Shift       *shift.Handler
	Expense     *expense.Handler
	Service     *service.Handler
	Weapon      *weapon.Handler
	Tariff      *tariff.Handler
	Note        *note.Handler
	Location    *location.Handler
	Report      *report.Handler
	Permissions *permissions.Handler
}

// RegisterAllRoutes mounts the API under /api/v1 plus the root-level
// operational endpoints (swagger, openapi document, metrics, health).
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	redisClient *redis.Client,
	engine *permissions.Engine,
	h Handlers,
	cfg *internal.Config,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db, redisClient)

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecureHeaders(cfg.Server.Environment == "development"))
	router.Use(middleware.Logging())
	if cfg.Observability.Metrics.Enabled {
		router.Use(metrics.Instrument)
	}

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())
	if cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Group(func(ar chi.Router) {
				ar.Use(middleware.AuthRateLimit(cfg.RateLimit.AuthRequestsPerMinute))
				ar.Route("/auth", func(sr chi.Router) {
					sr.Post("/login", h.Auth.Login)
					sr.Post("/refresh", h.Auth.RefreshToken)
					sr.Post("/logout", h.Auth.Logout)
				})
				if h.User != nil {
					ar.Post("/users/register", h.User.Register)
				}
			})
		}

		if h.Auth == nil {
			return
		}

		// Everything below requires a valid token.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h.User != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Get("/me", h.User.GetCurrentUser)
					ur.Get("/", h.User.ListUsers)
					ur.Get("/{id}", h.User.GetUser)
					ur.Patch("/{id}", h.User.UpdateUser)
					ur.Delete("/{id}", h.User.DeleteUser)
				})
			}

			if h.Client != nil {
				pr.Route("/clients", func(cr chi.Router) {
					cr.Get("/", h.Client.ListClients)
					cr.Get("/{id}", h.Client.GetClient)
					cr.Get("/{id}/properties", h.Client.ListClientProperties)

					cr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireRole(engine, permissions.RoleAdmin, permissions.RoleManager))
						mr.Post("/", h.Client.CreateClient)
						mr.Patch("/{id}", h.Client.UpdateClient)
						mr.Delete("/{id}", h.Client.DeleteClient)
						mr.Post("/{id}/restore", h.Client.RestoreClient)
					})
				})
			}

			if h.Guard != nil {
				pr.Route("/guards", func(gr chi.Router) {
					gr.Get("/", h.Guard.ListGuards)
					if h.Location != nil {
						gr.Get("/locations", h.Location.ListLocations)
						gr.Put("/{id}/location", h.Location.UpdateLocation)
						gr.Get("/{id}/location", h.Location.GetLocation)
					}
					gr.Get("/{id}", h.Guard.GetGuard)
					gr.Get("/{id}/properties-shifts", h.Guard.GetPropertiesShifts)

					gr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireRole(engine, permissions.RoleAdmin, permissions.RoleManager))
						mr.Post("/", h.Guard.CreateGuard)
						mr.Patch("/{id}", h.Guard.UpdateGuard)
						mr.Delete("/{id}", h.Guard.DeleteGuard)
						mr.Post("/{id}/restore", h.Guard.RestoreGuard)
					})
				})
			}

			if h.Property != nil {
				pr.Route("/properties", func(ppr chi.Router) {
					ppr.Get("/", h.Property.ListProperties)
					ppr.Get("/{id}", h.Property.GetProperty)
					ppr.Post("/", h.Property.CreateProperty)
					ppr.Patch("/{id}", h.Property.UpdateProperty)
					ppr.Delete("/{id}", h.Property.DeleteProperty)
					ppr.Post("/{id}/restore", h.Property.RestoreProperty)
					ppr.Get("/{id}/shifts", h.Property.ListPropertyShifts)
					ppr.Get("/{id}/expenses", h.Property.ListPropertyExpenses)
					ppr.Get("/{id}/guards-shifts", h.Property.GetGuardsShifts)
				})
				pr.Get("/property-types", h.Property.ListPropertyTypes)
			}

			if h.Shift != nil {
				pr.Route("/shifts", func(sr chi.Router) {
					sr.Get("/", h.Shift.ListShifts)
					sr.Get("/by-guard", h.Shift.ByGuard)
					sr.Get("/by-property", h.Shift.ByProperty)
					sr.Get("/by-service", h.Shift.ByService)
					sr.Get("/next", h.Shift.NextShift)
					sr.Get("/{id}", h.Shift.GetShift)
					sr.Post("/", h.Shift.CreateShift)
					sr.Patch("/{id}", h.Shift.UpdateShift)
					sr.Delete("/{id}", h.Shift.DeleteShift)
					sr.Post("/{id}/restore", h.Shift.RestoreShift)
				})
			}

			if h.Expense != nil {
				pr.Route("/expenses", func(er chi.Router) {
					er.Get("/", h.Expense.ListExpenses)
					er.Get("/by-property", h.Expense.ByProperty)
					er.Get("/{id}", h.Expense.GetExpense)
					er.Post("/", h.Expense.CreateExpense)
					er.Patch("/{id}", h.Expense.UpdateExpense)
					er.Delete("/{id}", h.Expense.DeleteExpense)
					er.Post("/{id}/restore", h.Expense.RestoreExpense)
				})
			}

			if h.Service != nil {
				pr.Route("/services", func(sr chi.Router) {
					sr.Get("/", h.Service.ListServices)
					sr.Get("/by-property", h.Service.ByProperty)
					sr.Get("/by-guard", h.Service.ByGuard)
					sr.Get("/{id}", h.Service.GetService)
					sr.Get("/{id}/shifts", h.Service.ListServiceShifts)
					sr.Group(func(cr chi.Router) {
						cr.Use(middleware.RequireResourcePermission(engine, permissions.ResourceService, permissions.ActionCreate))
						cr.Post("/", h.Service.CreateService)
					})
					sr.Patch("/{id}", h.Service.UpdateService)
					sr.Delete("/{id}", h.Service.DeleteService)
					sr.Post("/{id}/restore", h.Service.RestoreService)
				})
			}

			if h.Weapon != nil {
				pr.Route("/weapons", func(wr chi.Router) {
					wr.Get("/", h.Weapon.ListWeapons)
					wr.Get("/{id}", h.Weapon.GetWeapon)

					wr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequireRole(engine, permissions.RoleAdmin, permissions.RoleManager))
						mr.Post("/", h.Weapon.CreateWeapon)
						mr.Patch("/{id}", h.Weapon.UpdateWeapon)
						mr.Delete("/{id}", h.Weapon.DeleteWeapon)
						mr.Post("/{id}/restore", h.Weapon.RestoreWeapon)
					})
				})
			}

			if h.Tariff != nil {
				pr.Route("/tariffs", func(tr chi.Router) {
					tr.Get("/", h.Tariff.ListTariffs)
					tr.Get("/by-guard", h.Tariff.ByGuard)
					tr.Get("/by-property", h.Tariff.ByProperty)
					tr.Get("/{id}", h.Tariff.GetTariff)
					tr.Post("/", h.Tariff.CreateTariff)
					tr.Patch("/{id}", h.Tariff.UpdateTariff)
					tr.Delete("/{id}", h.Tariff.DeleteTariff)
					tr.Post("/{id}/restore", h.Tariff.RestoreTariff)
				})
			}

			if h.Note != nil {
				pr.Route("/notes", func(nr chi.Router) {
					nr.Get("/", h.Note.ListNotes)
					nr.Get("/statistics", h.Note.NoteStatistics)
					nr.Get("/{id}", h.Note.GetNote)
					nr.Post("/", h.Note.CreateNote)
					nr.Patch("/{id}", h.Note.UpdateNote)
					nr.Delete("/{id}", h.Note.DeleteNote)
					nr.Post("/{id}/restore", h.Note.RestoreNote)
					nr.Post("/{id}/duplicate", h.Note.DuplicateNote)
				})
			}

			if h.Report != nil {
				pr.Route("/reports", func(rr chi.Router) {
					rr.Get("/", h.Report.ListModels)
					rr.Get("/{model}/export", h.Report.Export)
				})
			}

			if h.Permissions != nil {
				pr.Route("/permissions", func(pmr chi.Router) {
					pmr.Get("/", h.Permissions.Index)
					pmr.Get("/users", h.Permissions.ListUsers)
					pmr.Get("/options", h.Permissions.AvailableOptions)
					pmr.Get("/audit-log", h.Permissions.AuditLog)
					pmr.Post("/assign-role", h.Permissions.AssignRole)
					pmr.Post("/grant-resource", h.Permissions.GrantResourcePermission)
					pmr.Post("/revoke-resource", h.Permissions.RevokeResourcePermission)
					pmr.Post("/grant-property-access", h.Permissions.GrantPropertyAccess)
					pmr.Post("/revoke-property-access", h.Permissions.RevokePropertyAccess)
					pmr.Post("/bulk-update", h.Permissions.BulkUpdate)
				})
			}
		})
	})
}
