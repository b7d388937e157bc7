package permissions

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("RoleTable", func() {
	ginkgo.It("validates cleanly at startup", func() {
		gomega.Expect(ValidateRoleTable()).To(gomega.Succeed())
	})

	ginkgo.It("keeps the manager and client rows asymmetric", func() {
		gomega.Expect(RoleAllows(RoleManager, ResourceProperty, ActionAssign)).To(gomega.BeTrue())
		gomega.Expect(RoleAllows(RoleClient, ResourceProperty, ActionAssign)).To(gomega.BeFalse())

		gomega.Expect(RoleAllows(RoleClient, ResourceExpense, ActionCreate)).To(gomega.BeTrue())
		gomega.Expect(RoleAllows(RoleManager, ResourceExpense, ActionCreate)).To(gomega.BeFalse())
	})

	ginkgo.It("gives supervisors no table row", func() {
		for _, resourceType := range ValidResourceTypes() {
			for _, action := range ValidActions() {
				gomega.Expect(RoleAllows(RoleSupervisor, resourceType, action)).To(gomega.BeFalse())
			}
		}
	})

	ginkgo.It("returns false for unknown roles and resource types", func() {
		gomega.Expect(RoleAllows(Role("janitor"), ResourceShift, ActionRead)).To(gomega.BeFalse())
		gomega.Expect(RoleAllows(RoleAdmin, ResourceType("spaceship"), ActionRead)).To(gomega.BeFalse())
	})

	ginkgo.It("only contains valid enum values", func() {
		for role, resources := range roleTable {
			gomega.Expect(role.IsValid()).To(gomega.BeTrue())
			for resourceType, actions := range resources {
				gomega.Expect(resourceType.IsValid()).To(gomega.BeTrue())
				gomega.Expect(actions).ToNot(gomega.BeEmpty())
				for _, action := range actions {
					gomega.Expect(action.IsValid()).To(gomega.BeTrue())
				}
			}
		}
	})
})
