package user

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/frahmantamala/school-records/internal"
	"github.com/frahmantamala/school-records/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/frahmantamala/school-records/internal/core/events"
	"golang.org/x/crypto/bcrypt"
)

const (
	ActionCreateUser = "Crear usuario"
	ActionEditUser   = "Editar usuario"
)

// RepositoryAPI reads and writes rows of the usuarios table. GetByUsername returns
// nil, nil when nobody has that name.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
}

type Options struct {
	HashPasswords bool
	BCryptCost    int
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	clock     *internal.Clock
	logger    *slog.Logger
	opts      Options
}

func NewService(repo RepositoryAPI, publisher events.Publisher, clock *internal.Clock, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BCryptCost == 0 {
		opts.BCryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		opts:      opts,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo usuarios", err)
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	row, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, internal.StoreError("Error obteniendo usuario", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// Authenticate checks a username and password pair. Stored bcrypt hashes are verified
// as such; anything else is a legacy plaintext password compared verbatim.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, internal.NewValidationError("Debe enviar usuario y contraseña", internal.ErrCodeValidationFailed)
	}

	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo usuario", err)
	}
	if row == nil || !passwordMatches(row.Password, password) {
		return nil, internal.ErrInvalidCredentials
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if err := validation.Struct(&dto); err != nil {
		return nil, err
	}
	if !ValidRole(dto.Role) {
		return nil, internal.ErrInvalidRole
	}

	existing, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo usuario", err)
	}
	if existing != nil {
		return nil, internal.ErrUserAlreadyExists
	}

	password, err := s.encodePassword(dto.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:      dto.Username,
		Password:      password,
		Role:          dto.Role,
		Organizations: userDatamodel.NormalizeOrganizations(dto.Organizations),
	}
	row := ToDataModel(u)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, internal.StoreError("Error creando usuario", err)
	}
	u.Row = row.Row

	s.logger.Info("user created", "usuario", u.Username, "rol", u.Role, "escuelas", u.Organizations)
	s.record(ctx, ActionCreateUser, u.Username)
	return u, nil
}

// Update patches an existing user. The row keeps its position and username.
func (s *Service) Update(ctx context.Context, username string, dto UpdateUserDTO) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, internal.NewValidationFieldError("usuario", "Falta usuario", internal.ErrCodeValidationFailed)
	}

	row, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo usuario", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.Password != nil && *dto.Password != "" {
		password, err := s.encodePassword(*dto.Password)
		if err != nil {
			return nil, err
		}
		row.Password = password
	}
	if dto.Role != nil && strings.TrimSpace(*dto.Role) != "" {
		role := NormalizeRole(*dto.Role)
		if !ValidRole(role) {
			return nil, internal.ErrInvalidRole
		}
		row.Role = role
	}
	if dto.Organizations != nil {
		row.Organizations = userDatamodel.NormalizeOrganizations(*dto.Organizations)
	}
	row.Role = NormalizeRole(row.Role)

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, internal.StoreError("Error editando usuario", err)
	}

	s.logger.Info("user updated", "usuario", row.Username, "rol", row.Role, "escuelas", row.Organizations)
	s.record(ctx, ActionEditUser, row.Username)
	return FromDataModel(row), nil
}

// AllOrganizations is the sorted union of every user's assignments.
func (s *Service) AllOrganizations(ctx context.Context) ([]string, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo usuarios", err)
	}
	set := make(map[string]struct{})
	for _, row := range rows {
		for _, org := range row.Organizations {
			set[org] = struct{}{}
		}
	}
	orgs := make([]string, 0, len(set))
	for org := range set {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	return orgs, nil
}

func (s *Service) encodePassword(password string) (string, error) {
	if !s.opts.HashPasswords {
		return password, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BCryptCost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

func (s *Service) record(ctx context.Context, action, username string) {
	if s.publisher == nil {
		return
	}
	actor := "sistema"
	if identity, ok := internal.IdentityFromContext(ctx); ok {
		actor = identity.Username
	}
	event := events.NewActionRecorded(actor, action, "", fmt.Sprintf("Usuario: %s", username), s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish audit event", "action", action, "error", err)
	}
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
