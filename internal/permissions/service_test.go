package permissions

import (
	"log/slog"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/events"
)

var _ = ginkgo.Describe("PermissionService", func() {
	var (
		w       *world
		service *Service
	)

	ginkgo.BeforeEach(func() {
		w = newWorld()
		bus := events.NewEventBus(slog.Default())
		service = NewService(w.users, w.roles, w.groups, w.grants, w.access, w.props, w.audit, bus, slog.Default())
	})

	ginkgo.Describe("IsAdmin", func() {
		ginkgo.It("accepts superusers and active admin roles only", func() {
			ok, err := service.IsAdmin(superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			w.roles.addActive(noRoleUserID, RoleAdmin)
			ok, err = service.IsAdmin(noRoleUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			ok, err = service.IsAdmin(managerUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("AssignRole", func() {
		ginkgo.It("leaves exactly one active assignment after reassignment", func() {
			resp, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "manager"}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Role).To(gomega.Equal("manager"))
			gomega.Expect(resp.Created).To(gomega.BeFalse())

			assignment, found, err := w.roles.ActiveRole(guardUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(assignment.Role).To(gomega.Equal(RoleManager))
			gomega.Expect(resp.AssignmentID).To(gomega.Equal(assignment.ID))
		})

		ginkgo.It("recomputes derived group membership from the new role", func() {
			_, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "client"}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			groups, err := w.groups.GroupsForUser(guardUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(groups).To(gomega.Equal([]string{GroupClients}))
		})

		ginkgo.It("drops group membership entirely for supervisors", func() {
			_, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "supervisor"}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			groups, err := w.groups.GroupsForUser(guardUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(groups).To(gomega.BeEmpty())
		})

		ginkgo.It("repairs an ambiguous previous state", func() {
			w.roles.addActive(guardUserID, RoleClient)

			_, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "manager"}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			assignment, found, err := w.roles.ActiveRole(guardUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(assignment.Role).To(gomega.Equal(RoleManager))
		})

		ginkgo.It("appends one audit entry", func() {
			_, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "manager", Reason: "promotion"}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(w.audit.entries).To(gomega.HaveLen(1))
			entry := w.audit.entries[0]
			gomega.Expect(entry.PermissionType).To(gomega.Equal(PermissionTypeUserRole))
			gomega.Expect(entry.Action).To(gomega.Equal(LogActionGranted))
			gomega.Expect(entry.Reason).To(gomega.Equal("promotion"))
			gomega.Expect(entry.EventID).ToNot(gomega.BeEmpty())
			gomega.Expect(*entry.PerformedBy).To(gomega.Equal(superUserID))
		})

		ginkgo.It("rejects an invalid role", func() {
			_, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "janitor"}, superUserID)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("rejects an unknown user", func() {
			_, err := service.AssignRole(AssignRoleDTO{UserID: missingUserID, Role: "manager"}, superUserID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
		})
	})

	ginkgo.Describe("GrantResourcePermission", func() {
		ginkgo.It("creates a grant and reports created", func() {
			resp, err := service.GrantResourcePermission(GrantResourcePermissionDTO{
				UserID:       supervisorUserID,
				ResourceType: "shift",
				Action:       "approve",
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Created).To(gomega.BeTrue())
			gomega.Expect(resp.PermissionID).ToNot(gomega.BeZero())
		})

		ginkgo.It("is idempotent on the same scope", func() {
			dto := GrantResourcePermissionDTO{
				UserID:       supervisorUserID,
				ResourceType: "shift",
				Action:       "approve",
				ResourceID:   idRef(9),
			}
			first, err := service.GrantResourcePermission(dto, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := service.GrantResourcePermission(dto, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.Created).To(gomega.BeFalse())
			gomega.Expect(second.PermissionID).To(gomega.Equal(first.PermissionID))
		})

		ginkgo.It("rejects unknown vocabulary", func() {
			_, err := service.GrantResourcePermission(GrantResourcePermissionDTO{
				UserID:       supervisorUserID,
				ResourceType: "spaceship",
				Action:       "approve",
			}, superUserID)
			gomega.Expect(err).To(gomega.MatchError(ErrUnknownResourceType))
		})
	})

	ginkgo.Describe("RevokeResourcePermission", func() {
		ginkgo.It("deactivates the grant and audits the revocation", func() {
			granted, err := service.GrantResourcePermission(GrantResourcePermissionDTO{
				UserID:       supervisorUserID,
				ResourceType: "shift",
				Action:       "approve",
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RevokeResourcePermission(RevokeResourcePermissionDTO{
				PermissionID: granted.PermissionID,
				Reason:       "rotation ended",
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			active, err := w.grants.ActiveForUser(supervisorUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(active).To(gomega.BeEmpty())

			gomega.Expect(w.audit.entries).To(gomega.HaveLen(2))
			gomega.Expect(w.audit.entries[1].Action).To(gomega.Equal(LogActionRevoked))
		})

		ginkgo.It("reports a missing grant", func() {
			_, err := service.RevokeResourcePermission(RevokeResourcePermissionDTO{PermissionID: 404}, superUserID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
		})
	})

	ginkgo.Describe("GrantPropertyAccess", func() {
		ginkgo.It("defaults the access type to viewer", func() {
			resp, err := service.GrantPropertyAccess(GrantPropertyAccessDTO{
				UserID:     supervisorUserID,
				PropertyID: ownedPropertyID,
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.AccessType).To(gomega.Equal(string(AccessViewer)))
			gomega.Expect(resp.Created).To(gomega.BeTrue())
		})

		ginkgo.It("keeps untouched capabilities on a re-grant", func() {
			yes := true
			_, err := service.GrantPropertyAccess(GrantPropertyAccessDTO{
				UserID:      supervisorUserID,
				PropertyID:  ownedPropertyID,
				AccessType:  "supervisor",
				Permissions: PropertyAccessCapabilitiesDTO{CanApproveExpenses: &yes},
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			resp, err := service.GrantPropertyAccess(GrantPropertyAccessDTO{
				UserID:     supervisorUserID,
				PropertyID: ownedPropertyID,
				AccessType: "supervisor",
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Created).To(gomega.BeFalse())
			gomega.Expect(resp.Permissions.CanApproveExpenses).To(gomega.BeTrue())
		})

		ginkgo.It("rejects an unknown property", func() {
			_, err := service.GrantPropertyAccess(GrantPropertyAccessDTO{
				UserID:     supervisorUserID,
				PropertyID: 404,
			}, superUserID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
		})
	})

	ginkgo.Describe("RevokePropertyAccess", func() {
		ginkgo.It("deactivates the row but keeps it for the trail", func() {
			resp, err := service.RevokePropertyAccess(RevokePropertyAccessDTO{AccessID: 1}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.UserID).To(gomega.Equal(guardUserID))

			access, found, err := w.access.GetByID(1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.BeTrue())
			gomega.Expect(access.IsActive).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("AuditLog", func() {
		ginkgo.It("filters by user and clamps the limit", func() {
			for i := 0; i < 3; i++ {
				_, err := service.AssignRole(AssignRoleDTO{UserID: guardUserID, Role: "guard"}, superUserID)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			}
			_, err := service.AssignRole(AssignRoleDTO{UserID: clientUserID, Role: "client"}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			userID := guardUserID
			resp, err := service.AuditLog(AuditQuery{UserID: &userID, Limit: -5})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Count).To(gomega.Equal(3))
			gomega.Expect(resp.Filters.Limit).To(gomega.Equal(maxAuditLogLimit))
			for _, view := range resp.Logs {
				gomega.Expect(view.UserID).To(gomega.Equal(guardUserID))
				gomega.Expect(view.User.Username).To(gomega.Equal("guard"))
			}
		})
	})

	ginkgo.Describe("BulkUpdate", func() {
		ginkgo.It("collects per-item outcomes instead of failing the batch", func() {
			resp, err := service.BulkUpdate(BulkPermissionUpdateDTO{
				Updates: []BulkUpdateItemDTO{
					{
						UserID:    supervisorUserID,
						Operation: "grant",
						PermissionData: BulkPermissionDataDTO{
							Type: "resource", ResourceType: "shift", Action: "approve",
						},
					},
					{
						UserID:    missingUserID,
						Operation: "grant",
						PermissionData: BulkPermissionDataDTO{
							Type: "resource", ResourceType: "shift", Action: "approve",
						},
					},
					{
						UserID:    supervisorUserID,
						Operation: "teleport",
					},
				},
			}, superUserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Summary.Total).To(gomega.Equal(3))
			gomega.Expect(resp.Summary.Successful).To(gomega.Equal(1))
			gomega.Expect(resp.Summary.Failed).To(gomega.Equal(2))

			// Bulk changes are not audited.
			gomega.Expect(w.audit.entries).To(gomega.BeEmpty())
		})

		ginkgo.It("rejects an empty batch", func() {
			_, err := service.BulkUpdate(BulkPermissionUpdateDTO{}, superUserID)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("ListUsersWithPermissions", func() {
		ginkgo.It("assembles the full view per user", func() {
			resp, err := service.ListUsersWithPermissions()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Count).To(gomega.Equal(7))

			var guardView *UserPermissionsView
			for _, view := range resp.Users {
				if view.User.ID == guardUserID {
					guardView = view
				}
			}
			gomega.Expect(guardView).ToNot(gomega.BeNil())
			gomega.Expect(guardView.Role.Role).To(gomega.Equal(RoleGuard))
			gomega.Expect(guardView.Groups).To(gomega.Equal([]string{GroupGuards}))
			gomega.Expect(guardView.PropertyAccess).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("AvailableOptions", func() {
		ginkgo.It("lists the full vocabulary", func() {
			options := service.AvailableOptions()
			gomega.Expect(options.UserRoles).To(gomega.HaveLen(len(ValidRoles())))
			gomega.Expect(options.ResourceTypes).To(gomega.HaveLen(len(ValidResourceTypes())))
			gomega.Expect(options.Actions).To(gomega.HaveLen(len(ValidActions())))
			gomega.Expect(options.AccessTypes).To(gomega.HaveLen(len(ValidAccessTypes())))
		})
	})
})
