package record

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/school-records/internal"
	recordDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/record"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/frahmantamala/school-records/internal/core/events"
	"github.com/frahmantamala/school-records/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	ActionAppendRecord = "Agregar registro"
	ActionUpdateRecord = "Actualizar registro"

	firstDataRow             = 2
	defaultSearchConcurrency = 4
)

// RepositoryAPI reads and writes one school table per organization. GetRow and
// FindByID return nil, nil when there is nothing at that position or with that id.
type RepositoryAPI interface {
	List(ctx context.Context, org string) ([]*recordDatamodel.Record, error)
	Append(ctx context.Context, org string, rec *recordDatamodel.Record) (int, error)
	GetRow(ctx context.Context, org string, row int) (*recordDatamodel.Record, error)
	FindByID(ctx context.Context, org, id string) (*recordDatamodel.Record, error)
	UpdateRow(ctx context.Context, org string, rec *recordDatamodel.Record) error
}

// OrganizationDirectory knows every organization assigned to any user.
type OrganizationDirectory interface {
	AllOrganizations(ctx context.Context) ([]string, error)
}

type Options struct {
	SearchConcurrency int
}

type Service struct {
	repo      RepositoryAPI
	orgs      OrganizationDirectory
	publisher events.Publisher
	clock     *internal.Clock
	logger    *slog.Logger
	opts      Options
}

func NewService(repo RepositoryAPI, orgs OrganizationDirectory, publisher events.Publisher, clock *internal.Clock, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SearchConcurrency <= 0 {
		opts.SearchConcurrency = defaultSearchConcurrency
	}
	return &Service{
		repo:      repo,
		orgs:      orgs,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		opts:      opts,
	}
}

// List returns the non-blank rows of one school table in row order.
func (s *Service) List(ctx context.Context, identity *internal.Identity, org string) ([]*Record, error) {
	org, err := authorize(identity, org)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, org)
	if err != nil {
		return nil, internal.StoreError("Error cargando registros", err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, FromDataModel(row, org))
	}
	return records, nil
}

func (s *Service) Append(ctx context.Context, identity *internal.Identity, dto CreateRecordDTO) (*Record, error) {
	dto.Fields.normalize()
	if strings.TrimSpace(dto.Organization) == "" || dto.Student == "" || dto.NationalID == "" {
		return nil, internal.ErrMissingRecordFields
	}
	org, err := authorize(identity, dto.Organization)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:                uuid.NewString(),
		Organization:      org,
		Date:              s.clock.Today(),
		Student:           dto.Student,
		NationalID:        dto.NationalID,
		Phone:             dto.Phone,
		DocumentDelivered: dto.Delivered(),
		Grade:             dto.Grade,
		Term:              dto.Term,
		Remark:            dto.Remark,
		UploadedBy:        identity.Username,
	}

	row, err := s.repo.Append(ctx, org, ToDataModel(rec))
	if err != nil {
		return nil, internal.StoreError("Error agregando registro", err)
	}
	rec.Row = row

	s.logger.Info("record appended", logger.KeySchool, org, "fila", row, logger.KeyUsername, identity.Username)
	s.record(ctx, identity, ActionAppendRecord, org,
		fmt.Sprintf("Estudiante: %s, Cédula: %s", rec.Student, rec.NationalID))
	return rec, nil
}

// Update rewrites one record, located by synthetic id or by row number. The creation
// date and the id survive; every other column is replaced.
func (s *Service) Update(ctx context.Context, identity *internal.Identity, dto UpdateRecordDTO) (*Record, error) {
	dto.Fields.normalize()
	dto.ID = strings.TrimSpace(dto.ID)
	if strings.TrimSpace(dto.Organization) == "" || (dto.ID == "" && dto.Row == 0) {
		return nil, internal.ErrMissingRowReference
	}
	org, err := authorize(identity, dto.Organization)
	if err != nil {
		return nil, err
	}

	var current *recordDatamodel.Record
	if dto.ID != "" {
		current, err = s.repo.FindByID(ctx, org, dto.ID)
	} else {
		if dto.Row < firstDataRow {
			return nil, internal.ErrInvalidRow
		}
		current, err = s.repo.GetRow(ctx, org, int(dto.Row))
	}
	if err != nil {
		return nil, internal.StoreError("Error actualizando registro", err)
	}
	if current == nil {
		return nil, internal.ErrRecordNotFound
	}

	date := current.Date
	if date == "" {
		date = s.clock.Today()
	}
	id := current.ID
	if id == "" {
		id = uuid.NewString()
	}

	rec := &Record{
		Row:               current.Row,
		ID:                id,
		Organization:      org,
		Date:              date,
		Student:           dto.Student,
		NationalID:        dto.NationalID,
		Phone:             dto.Phone,
		DocumentDelivered: dto.Delivered(),
		Grade:             dto.Grade,
		Term:              dto.Term,
		Remark:            dto.Remark,
		UploadedBy:        identity.Username,
	}
	if err := s.repo.UpdateRow(ctx, org, ToDataModel(rec)); err != nil {
		return nil, internal.StoreError("Error actualizando registro", err)
	}

	nationalID := rec.NationalID
	if nationalID == "" {
		nationalID = current.NationalID
	}
	s.logger.Info("record updated", logger.KeySchool, org, "fila", rec.Row, logger.KeyUsername, identity.Username)
	s.record(ctx, identity, ActionUpdateRecord, org,
		fmt.Sprintf("Fila %d, Cédula: %s", rec.Row, nationalID))
	return rec, nil
}

// Search looks for a national id across every table the identity can see. Tables are
// read concurrently; hits come back in scope order, then row order.
func (s *Service) Search(ctx context.Context, identity *internal.Identity, nationalID string) ([]*Record, error) {
	if identity == nil {
		return nil, internal.ErrUnauthenticated
	}
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, internal.ErrMissingNationalID
	}

	scope, err := s.Organizations(ctx, identity)
	if err != nil {
		return nil, err
	}

	hits := make([][]*Record, len(scope))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.SearchConcurrency)
	for i, org := range scope {
		g.Go(func() error {
			rows, err := s.repo.List(gctx, org)
			if err != nil {
				return fmt.Errorf("searching %q: %w", org, err)
			}
			for _, row := range rows {
				if row.NationalID == nationalID {
					hits[i] = append(hits[i], FromDataModel(row, org))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, internal.StoreError("Error buscando por cédula", err)
	}

	results := make([]*Record, 0)
	for _, h := range hits {
		results = append(results, h...)
	}
	return results, nil
}

// Organizations is every known organization for admins and the assignment list for
// everyone else.
func (s *Service) Organizations(ctx context.Context, identity *internal.Identity) ([]string, error) {
	if identity == nil {
		return nil, internal.ErrUnauthenticated
	}
	if identity.IsAdmin() {
		orgs, err := s.orgs.AllOrganizations(ctx)
		if err != nil {
			return nil, internal.StoreError("Error obteniendo escuelas", err)
		}
		return orgs, nil
	}
	return userDatamodel.NormalizeOrganizations(identity.Organizations), nil
}

// Summarize counts rows per organization. Tables that cannot be read are logged and
// left out.
func (s *Service) Summarize(ctx context.Context, identity *internal.Identity) ([]*Summary, error) {
	if identity == nil {
		return nil, internal.ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return nil, internal.ErrAdminRequired
	}

	orgs, err := s.orgs.AllOrganizations(ctx)
	if err != nil {
		return nil, internal.StoreError("Error obteniendo resumen", err)
	}

	summaries := make([]*Summary, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.SearchConcurrency)
	for i, org := range orgs {
		g.Go(func() error {
			rows, err := s.repo.List(gctx, org)
			if err != nil {
				s.logger.Warn("skipping organization in summary", logger.KeySchool, org, "error", err)
				return nil
			}
			summaries[i] = summarize(org, rows)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Summary, 0, len(summaries))
	for _, sum := range summaries {
		if sum != nil {
			out = append(out, sum)
		}
	}
	return out, nil
}

func summarize(org string, rows []*recordDatamodel.Record) *Summary {
	sum := &Summary{Organization: org, ByTerm: map[string]int{}}
	for _, row := range rows {
		sum.Total++
		if row.DocumentDelivered {
			sum.DocumentsDelivered++
		}
		term := row.Term
		if term == "" {
			term = "Sin trimestre"
		}
		sum.ByTerm[term]++
	}
	return sum
}

func (s *Service) record(ctx context.Context, identity *internal.Identity, action, org, detail string) {
	if s.publisher == nil {
		return
	}
	event := events.NewActionRecorded(identity.Username, action, org, detail, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish audit event", "action", action, "error", err)
	}
}

// authorize runs before any store access and returns the spelling of org to use.
func authorize(identity *internal.Identity, org string) (string, error) {
	if identity == nil {
		return "", internal.ErrUnauthenticated
	}
	if strings.TrimSpace(org) == "" {
		return "", internal.ErrMissingOrganization
	}
	resolved, ok := identity.ResolveOrganization(org)
	if !ok {
		return "", internal.ErrOrganizationForbidden
	}
	return resolved, nil
}
