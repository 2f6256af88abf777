package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/transport"
	"github.com/frahmantamala/school-records/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*internal.Identity, error)
}

// Login returns the session token in the body only when the client sends
// SessionModeHeader: SessionModeBearer.
const (
	SessionModeHeader = "X-Session-Mode"
	SessionModeBearer = "bearer"
)

type CookieOptions struct {
	Name   string
	Secure bool
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Cookie  CookieOptions
}

func NewHandler(svc ServiceAPI, cookie CookieOptions) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Cookie:      cookie,
	}
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.setCookie(w, session.Token, session.ExpiresAt)
	resp := LoginResponse{
		OK:            true,
		Username:      session.Identity.Username,
		Role:          session.Identity.Role,
		Organizations: session.Identity.Organizations,
	}
	// browsers keep the token in the HttpOnly cookie only
	if strings.EqualFold(r.Header.Get(SessionModeHeader), SessionModeBearer) {
		resp.Token = session.Token
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := internal.IdentityFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, identity)
}

// Logout handles POST /api/logout. The cookie is cleared even if the token was already invalid.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.tokenFromRequest(r)
	if token != "" {
		if err := h.Service.Logout(r.Context(), token); err != nil {
			if appErr, ok := internal.IsAppError(err); !ok || appErr.StatusCode >= http.StatusInternalServerError {
				h.HandleServiceError(w, err)
				return
			}
			h.Logger.Debug("logout with unusable token", "error", err)
		}
	}
	h.clearCookie(w)
	h.WriteJSON(w, http.StatusOK, LogoutResponse{OK: true})
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.tokenFromRequest(r)
		if token == "" {
			h.Logger.Debug("auth middleware: missing session token", "path", r.URL.Path)
			h.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		}

		identity, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.Logger.Info("auth middleware: session rejected", "path", r.URL.Path, "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithIdentity(r.Context(), identity)
		ctx = logger.WithUsername(ctx, identity.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func (h *Handler) tokenFromRequest(r *http.Request) string {
	if token := h.ExtractTokenFromHeader(r); token != "" {
		return token
	}
	if c, err := r.Cookie(h.Cookie.Name); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) setCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
