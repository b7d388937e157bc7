package location

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/qu-security/guardforce/internal"
)

func TestLocation(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Location Module Suite")
}

const (
	managerCaller = int64(10)
	guardCaller   = int64(201)
	otherCaller   = int64(20)

	guardProfile = int64(50)
)

type mockPermissionChecker struct {
	admins map[int64]bool
	fail   bool
}

func (m *mockPermissionChecker) IsAdminOrManager(userID int64) (bool, error) {
	if m.fail {
		return false, errors.New("database error")
	}
	return m.admins[userID], nil
}

type mockProfileResolver struct {
	guards map[int64]int64
}

func (m *mockProfileResolver) GuardIDByUserID(userID int64) (int64, bool, error) {
	id, ok := m.guards[userID]
	return id, ok, nil
}

var _ = ginkgo.Describe("LocationService", func() {
	var (
		server  *miniredis.Miniredis
		client  *redis.Client
		service *Service
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		var err error
		server, err = miniredis.Run()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		perms := &mockPermissionChecker{admins: map[int64]bool{managerCaller: true}}
		profiles := &mockProfileResolver{guards: map[int64]int64{guardCaller: guardProfile}}
		service = NewService(NewRedisCache(client), perms, profiles, slog.Default())
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		_ = client.Close()
		server.Close()
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("lets a guard report their own position", func() {
			loc, err := service.Update(ctx, guardCaller, guardProfile, &UpdateLocationDTO{
				Latitude:  52.52,
				Longitude: 13.405,
				OnShift:   true,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(loc.GuardID).To(gomega.Equal(guardProfile))
			gomega.Expect(loc.UpdatedAt).ToNot(gomega.BeZero())
			gomega.Expect(server.Exists("guards_rts:50")).To(gomega.BeTrue())
		})

		ginkgo.It("lets a manager write any guard's entry", func() {
			_, err := service.Update(ctx, managerCaller, 99, &UpdateLocationDTO{Latitude: 1, Longitude: 1})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(server.Exists("guards_rts:99")).To(gomega.BeTrue())
		})

		ginkgo.It("forbids writing another guard's entry", func() {
			_, err := service.Update(ctx, guardCaller, 99, &UpdateLocationDTO{Latitude: 1, Longitude: 1})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeForbidden))
		})

		ginkgo.It("rejects out-of-range coordinates", func() {
			_, err := service.Update(ctx, guardCaller, guardProfile, &UpdateLocationDTO{Latitude: 123, Longitude: 0})
			gomega.Expect(err).To(gomega.HaveOccurred())

			_, err = service.Update(ctx, guardCaller, guardProfile, &UpdateLocationDTO{Latitude: 0, Longitude: -200})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("sets a TTL on the entry", func() {
			_, err := service.Update(ctx, guardCaller, guardProfile, &UpdateLocationDTO{Latitude: 1, Longitude: 1})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(server.TTL("guards_rts:50")).To(gomega.BeNumerically(">", 0))
		})
	})

	ginkgo.Describe("Get", func() {
		ginkgo.It("round-trips a stored position", func() {
			stored, err := service.Update(ctx, guardCaller, guardProfile, &UpdateLocationDTO{
				Latitude:  -33.86,
				Longitude: 151.2,
				OnShift:   true,
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			loc, err := service.Get(ctx, managerCaller, guardProfile)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(loc.Latitude).To(gomega.Equal(stored.Latitude))
			gomega.Expect(loc.Longitude).To(gomega.Equal(stored.Longitude))
			gomega.Expect(loc.OnShift).To(gomega.BeTrue())
		})

		ginkgo.It("reports a missing entry as not found", func() {
			_, err := service.Get(ctx, managerCaller, 404)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeNotFound))
		})

		ginkgo.It("forbids reading another guard's entry", func() {
			_, err := service.Get(ctx, otherCaller, guardProfile)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeForbidden))
		})
	})

	ginkgo.Describe("All", func() {
		ginkgo.It("lists every cached position for a manager", func() {
			for _, guardID := range []int64{guardProfile, 51, 52} {
				_, err := service.Update(ctx, managerCaller, guardID, &UpdateLocationDTO{Latitude: 1, Longitude: 1})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			}

			locations, err := service.All(ctx, managerCaller)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(locations).To(gomega.HaveLen(3))
		})

		ginkgo.It("returns an empty slice when nothing is cached", func() {
			locations, err := service.All(ctx, managerCaller)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(locations).To(gomega.BeEmpty())
		})

		ginkgo.It("forbids non-managers", func() {
			_, err := service.All(ctx, guardCaller)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeForbidden))
		})
	})
})
