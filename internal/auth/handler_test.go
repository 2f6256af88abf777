package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/audit"
	"github.com/frahmantamala/school-records/internal/auth"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/frahmantamala/school-records/internal/core/events"
	"github.com/frahmantamala/school-records/internal/sheet"
	"github.com/frahmantamala/school-records/internal/sheet/memory"
	"github.com/frahmantamala/school-records/internal/transport"
	"github.com/frahmantamala/school-records/internal/user"
	"github.com/frahmantamala/school-records/internal/user/tabular"
	"github.com/frahmantamala/school-records/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
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

var _ = Describe("Auth Handler", func() {
	var (
		ctx       context.Context
		publisher *recordingPublisher
		handler   *auth.Handler
		protected http.Handler
	)

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		return rec
	}

	sessionCookie := func(rec *httptest.ResponseRecorder) *http.Cookie {
		for _, c := range rec.Result().Cookies() {
			if c.Name == "session" {
				return c
			}
		}
		return nil
	}

	BeforeEach(func() {
		ctx = context.Background()
		store := memory.New()
		reconciler := sheet.NewReconciler(store, logger.Discard())
		Expect(reconciler.EnsureTable(ctx, userDatamodel.TableName, userDatamodel.Headers)).To(Succeed())
		_, err := store.Append(ctx, userDatamodel.TableName, [][]string{
			{"bob", "secret", "A,B", "user"},
		})
		Expect(err).NotTo(HaveOccurred())

		clock := internal.FixedClock(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
		users := user.NewService(tabular.NewUserRepository(reconciler), nil, clock, logger.Discard(), user.Options{})
		publisher = &recordingPublisher{}
		tokens := auth.NewJWTTokenGenerator("0123456789abcdef0123456789abcdef", time.Hour)
		service := auth.NewService(users, tokens, auth.NewMemoryRevoker(), publisher, clock, logger.Discard())
		handler = auth.NewHandler(service, auth.CookieOptions{Name: "session"})

		protected = handler.AuthMiddleware(http.HandlerFunc(handler.Me))
	})

	Describe("Login", func() {
		It("rejects unknown users with 401 and an error message", func() {
			rec := login(`{"usuario":"ana","password":"x"}`)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			var body transport.ErrorResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Error).NotTo(BeEmpty())
			Expect(sessionCookie(rec)).To(BeNil())
		})

		It("rejects a wrong password", func() {
			rec := login(`{"usuario":"bob","password":"nope"}`)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns 400 when fields are missing", func() {
			rec := login(`{"usuario":"bob"}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("issues a session cookie and records the login", func() {
			rec := login(`{"usuario":"bob","password":"secret"}`)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body auth.LoginResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.OK).To(BeTrue())
			Expect(body.Username).To(Equal("bob"))
			Expect(body.Role).To(Equal(internal.RoleUser))
			Expect(body.Organizations).To(Equal([]string{"A", "B"}))
			Expect(body.Token).To(BeEmpty())
			Expect(rec.Body.String()).NotTo(ContainSubstring(`"token"`))

			cookie := sessionCookie(rec)
			Expect(cookie).NotTo(BeNil())
			Expect(cookie.HttpOnly).To(BeTrue())
			Expect(cookie.Value).NotTo(BeEmpty())

			recorded := publisher.recorded()
			Expect(recorded).To(HaveLen(1))
			Expect(recorded[0].Username).To(Equal("bob"))
			Expect(recorded[0].Action).To(Equal(audit.ActionLogin))
		})
	})

	Describe("AuthMiddleware", func() {
		It("returns 401 without a session", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts the session cookie", func() {
			cookie := sessionCookie(login(`{"usuario":"bob","password":"secret"}`))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var identity internal.Identity
			Expect(json.Unmarshal(rec.Body.Bytes(), &identity)).To(Succeed())
			Expect(identity.Username).To(Equal("bob"))
			Expect(identity.Organizations).To(Equal([]string{"A", "B"}))
		})

		It("accepts a bearer token", func() {
			loginReq := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"usuario":"bob","password":"secret"}`))
			loginReq.Header.Set(auth.SessionModeHeader, auth.SessionModeBearer)
			loginRec := httptest.NewRecorder()
			handler.Login(loginRec, loginReq)
			Expect(loginRec.Code).To(Equal(http.StatusOK))

			var body auth.LoginResponse
			Expect(json.Unmarshal(loginRec.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Token).To(Equal(sessionCookie(loginRec).Value))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.Header.Set("Authorization", "Bearer "+body.Token)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("rejects a token after logout", func() {
			cookie := sessionCookie(login(`{"usuario":"bob","password":"secret"}`))

			logoutReq := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
			logoutReq.AddCookie(cookie)
			logoutRec := httptest.NewRecorder()
			handler.Logout(logoutRec, logoutReq)
			Expect(logoutRec.Code).To(Equal(http.StatusOK))
			cleared := sessionCookie(logoutRec)
			Expect(cleared).NotTo(BeNil())
			Expect(cleared.MaxAge).To(BeNumerically("<", 0))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	It("logout without a session still succeeds", func() {
		rec := httptest.NewRecorder()
		handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
