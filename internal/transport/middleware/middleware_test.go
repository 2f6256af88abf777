package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/transport/middleware"
	"github.com/frahmantamala/school-records/pkg/logger"
	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
})

var _ = Describe("RequireRole", func() {
	guarded := middleware.RequireRole(internal.RoleAdmin)(ok)

	serve := func(identity *internal.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs", nil)
		if identity != nil {
			req = req.WithContext(internal.ContextWithIdentity(req.Context(), identity))
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		return rec.Code
	}

	It("lets admins through", func() {
		Expect(serve(&internal.Identity{Username: "root", Role: internal.RoleAdmin})).To(Equal(http.StatusOK))
	})

	It("forbids other roles", func() {
		Expect(serve(&internal.Identity{Username: "bob", Role: internal.RoleUser})).To(Equal(http.StatusForbidden))
	})

	It("rejects anonymous requests", func() {
		Expect(serve(nil)).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("RequestID", func() {
	It("keeps an inbound id and exposes it to chi", func() {
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chiMiddleware.GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(seen).To(Equal("abc-123"))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))
	})

	It("mints an id when none is sent", func() {
		rec := httptest.NewRecorder()
		middleware.RequestID(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("masks passwords and national ids", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))

		h := middleware.LoggingMiddleware(lg)(ok)
		req := httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"usuario":"bob","password":"hunter2","cedula":"8-123-456"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		out := buf.String()
		Expect(out).To(ContainSubstring("bob"))
		Expect(out).NotTo(ContainSubstring("hunter2"))
		Expect(out).NotTo(ContainSubstring("8-123-456"))
		Expect(out).NotTo(ContainSubstring("Bearer abc"))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers 500 without leaking the panic value", func() {
		h := middleware.RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("sheet id 42 exploded")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("exploded"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("hands the request logger to handlers", func() {
		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))
		h := middleware.RequestID(middleware.LoggingMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.From(r.Context()).Info("inside handler")
		})))

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		h.ServeHTTP(httptest.NewRecorder(), req)

		var line string
		for _, l := range strings.Split(buf.String(), "\n") {
			if strings.Contains(l, "inside handler") {
				line = l
			}
		}
		Expect(line).To(ContainSubstring("request_id=req-42"))
	})
})

var _ = Describe("CORS", func() {
	It("echoes an allowed origin with credentials", func() {
		h := middleware.CORS("https://escuelas.example")(ok)
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Origin", "https://escuelas.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://escuelas.example"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
	})

	It("answers preflight requests", func() {
		h := middleware.CORS("*")(ok)
		req := httptest.NewRequest(http.MethodOptions, "/api/registros", nil)
		req.Header.Set("Origin", "https://other.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(BeElementOf(http.StatusOK, http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeElementOf("*", "https://other.example"))
		Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring(http.MethodPost))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(BeEmpty())
	})

	It("never sends credentials to a wildcard match", func() {
		h := middleware.CORS("https://escuelas.example,*")(ok)
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Origin", "https://other.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).NotTo(BeEmpty())
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(BeEmpty())
	})

	It("ignores unknown origins", func() {
		h := middleware.CORS("https://escuelas.example")(ok)
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})
