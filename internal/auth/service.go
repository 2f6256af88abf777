package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/audit"
	"github.com/frahmantamala/school-records/internal/core/events"
	"github.com/frahmantamala/school-records/internal/user"
)

type UserAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
}

type Service struct {
	users     UserAuthenticator
	tokens    TokenGeneratorAPI
	revoker   Revoker
	publisher events.Publisher
	clock     *internal.Clock
	logger    *slog.Logger
}

func NewService(users UserAuthenticator, tokens TokenGeneratorAPI, revoker Revoker, publisher events.Publisher, clock *internal.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		revoker:   revoker,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

func (s *Service) Login(ctx context.Context, dto LoginDTO) (*Session, error) {
	if strings.TrimSpace(dto.Username) == "" || dto.Password == "" {
		return nil, internal.NewValidationError("Debe enviar usuario y contraseña", internal.ErrCodeValidationFailed)
	}

	u, err := s.users.Authenticate(ctx, dto.Username, dto.Password)
	if err != nil {
		s.logger.Info("login rejected", "usuario", dto.Username, "error", err)
		return nil, err
	}

	identity := u.Identity()
	token, claims, err := s.tokens.Generate(identity)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue session token", err)
	}

	s.publish(ctx, identity.Username)
	s.logger.Info("user logged in", "usuario", identity.Username, "rol", identity.Role)

	return &Session{
		Identity:  identity,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate resolves a session token into the caller identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.Identity, error) {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return internal.NewExternalError("No se pudo cerrar la sesión", internal.ErrCodeStoreUnavailable, err)
	}
	s.logger.Info("user logged out", "usuario", claims.Username)
	return nil
}

func (s *Service) validate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, internal.ErrUnauthenticated
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, internal.NewExternalError("No se pudo validar la sesión", internal.ErrCodeStoreUnavailable, err)
	}
	if revoked {
		return nil, internal.ErrSessionRevoked
	}
	return claims, nil
}

func (s *Service) publish(ctx context.Context, username string) {
	if s.publisher == nil {
		return
	}
	event := events.NewActionRecorded(username, audit.ActionLogin, "", "", s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish audit event", "action", audit.ActionLogin, "error", err)
	}
}
