package user_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/school-records/internal"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/frahmantamala/school-records/internal/core/events"
	"github.com/frahmantamala/school-records/internal/sheet"
	"github.com/frahmantamala/school-records/internal/sheet/memory"
	"github.com/frahmantamala/school-records/internal/user"
	"github.com/frahmantamala/school-records/internal/user/tabular"
	"github.com/frahmantamala/school-records/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.ActionRecorded
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(*events.ActionRecorded); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) recorded() []*events.ActionRecorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.ActionRecorded(nil), p.events...)
}

var _ = Describe("User Service", func() {
	var (
		ctx       context.Context
		store     *memory.Store
		publisher *recordingPublisher
		service   *user.Service
		adminCtx  context.Context
	)

	newService := func(hash bool) *user.Service {
		reconciler := sheet.NewReconciler(store, logger.Discard())
		repo := tabular.NewUserRepository(reconciler)
		clock := internal.FixedClock(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
		return user.NewService(repo, publisher, clock, logger.Discard(), user.Options{
			HashPasswords: hash,
			BCryptCost:    bcrypt.MinCost,
		})
	}

	seed := func(rows ...[]string) {
		reconciler := sheet.NewReconciler(store, logger.Discard())
		Expect(reconciler.EnsureTable(ctx, userDatamodel.TableName, userDatamodel.Headers)).To(Succeed())
		_, err := store.Append(ctx, userDatamodel.TableName, rows)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.New()
		publisher = &recordingPublisher{}
		service = newService(true)
		adminCtx = internal.ContextWithIdentity(ctx, &internal.Identity{Username: "root", Role: internal.RoleAdmin})
	})

	Describe("Create", func() {
		It("stores organizations parsed from a comma separated string", func() {
			var dto user.CreateUserDTO
			Expect(json.Unmarshal([]byte(`{"usuario":"bob","password":"pw","escuelas":"A,B","rol":"user"}`), &dto)).To(Succeed())

			_, err := service.Create(adminCtx, dto)
			Expect(err).NotTo(HaveOccurred())

			bob, err := service.GetByUsername(ctx, "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(bob.Organizations).To(Equal([]string{"A", "B"}))
			Expect(bob.Role).To(Equal(internal.RoleUser))
		})

		It("accepts organizations as an array", func() {
			var dto user.CreateUserDTO
			Expect(json.Unmarshal([]byte(`{"usuario":"eva","password":"pw","escuelas":[" C ","D","C"]}`), &dto)).To(Succeed())
			Expect([]string(dto.Organizations)).To(Equal([]string{"C", "D"}))
		})

		It("rejects a duplicate username without appending", func() {
			dto := user.CreateUserDTO{Username: "bob", Password: "pw", Organizations: user.OrgList{"A"}}
			_, err := service.Create(adminCtx, dto)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(adminCtx, dto)
			Expect(err).To(MatchError(internal.ErrUserAlreadyExists))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(store.Snapshot(userDatamodel.TableName)).To(HaveLen(2))
		})

		It("requires username and password", func() {
			_, err := service.Create(adminCtx, user.CreateUserDTO{Username: "  ", Password: "pw"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))

			_, err = service.Create(adminCtx, user.CreateUserDTO{Username: "bob"})
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown roles", func() {
			_, err := service.Create(adminCtx, user.CreateUserDTO{Username: "bob", Password: "pw", Role: "owner"})
			Expect(err).To(MatchError(internal.ErrInvalidRole))
		})

		It("hashes the password and records the action", func() {
			_, err := service.Create(adminCtx, user.CreateUserDTO{Username: "bob", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())

			stored := store.Snapshot(userDatamodel.TableName)[1][userDatamodel.ColPassword]
			Expect(stored).To(HavePrefix("$2a$"))
			Expect(bcrypt.CompareHashAndPassword([]byte(stored), []byte("pw"))).To(Succeed())

			recorded := publisher.recorded()
			Expect(recorded).To(HaveLen(1))
			Expect(recorded[0].Username).To(Equal("root"))
			Expect(recorded[0].Action).To(Equal(user.ActionCreateUser))
			Expect(recorded[0].Detail).To(Equal("Usuario: bob"))
		})

		It("keeps plaintext when hashing is disabled", func() {
			service = newService(false)
			_, err := service.Create(adminCtx, user.CreateUserDTO{Username: "bob", Password: "pw"})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Snapshot(userDatamodel.TableName)[1]).To(Equal([]string{"bob", "pw", "", "user"}))
		})
	})

	Describe("Authenticate", func() {
		It("accepts legacy plaintext rows", func() {
			seed([]string{"ana", "secreto", "A", "user"})

			u, err := service.Authenticate(ctx, "ana", "secreto")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("ana"))
			Expect(u.Organizations).To(Equal([]string{"A"}))
		})

		It("accepts bcrypt rows", func() {
			hash, err := bcrypt.GenerateFromPassword([]byte("secreto"), bcrypt.MinCost)
			Expect(err).NotTo(HaveOccurred())
			seed([]string{"ana", string(hash), "A", "admin"})

			u, err := service.Authenticate(ctx, "ana", "secreto")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsAdmin()).To(BeTrue())

			_, err = service.Authenticate(ctx, "ana", "otro")
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects unknown users", func() {
			_, err := service.Authenticate(ctx, "ana", "x")
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("requires both fields", func() {
			_, err := service.Authenticate(ctx, "ana", "")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			seed(
				[]string{"ana", "uno", "A", "user"},
				[]string{"bob", "dos", "B", "user"},
			)
		})

		It("patches only the fields that were sent", func() {
			role := "admin"
			_, err := service.Update(adminCtx, "bob", user.UpdateUserDTO{Role: &role})
			Expect(err).NotTo(HaveOccurred())

			rows := store.Snapshot(userDatamodel.TableName)
			Expect(rows[1]).To(Equal([]string{"ana", "uno", "A", "user"}))
			Expect(rows[2]).To(Equal([]string{"bob", "dos", "B", "admin"}))
		})

		It("replaces organizations and hashes a new password", func() {
			pw := "nuevo"
			orgs := user.OrgList{"C", "D"}
			_, err := service.Update(adminCtx, "ana", user.UpdateUserDTO{Password: &pw, Organizations: &orgs})
			Expect(err).NotTo(HaveOccurred())

			row := store.Snapshot(userDatamodel.TableName)[1]
			Expect(row[userDatamodel.ColOrganizations]).To(Equal("C,D"))
			Expect(strings.HasPrefix(row[userDatamodel.ColPassword], "$2")).To(BeTrue())

			_, err = service.Authenticate(ctx, "ana", "nuevo")
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.recorded()[0].Action).To(Equal(user.ActionEditUser))
		})

		It("returns not found for unknown users", func() {
			_, err := service.Update(adminCtx, "zoe", user.UpdateUserDTO{})
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	It("lists the sorted union of organizations", func() {
		seed(
			[]string{"ana", "x", "B, A", "user"},
			[]string{"bob", "x", "C,A", "user"},
			[]string{"root", "x", "", "admin"},
		)
		orgs, err := service.AllOrganizations(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(orgs).To(Equal([]string{"A", "B", "C"}))
	})

	It("never serializes passwords", func() {
		seed([]string{"ana", "secreto", "A", "user"})
		users, err := service.GetAll(ctx)
		Expect(err).NotTo(HaveOccurred())

		raw, err := json.Marshal(user.ListUsersResponse{Users: users})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(Equal(`{"usuarios":[{"usuario":"ana","rol":"user","escuelas":["A"]}]}`))
	})
})
