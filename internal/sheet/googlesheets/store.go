// Package googlesheets implements sheet.Store on a Google Sheets spreadsheet, one
// worksheet per table.
package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/frahmantamala/school-records/internal/sheet"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Values are written verbatim; RAW keeps identity numbers and phone numbers from being
// coerced into numbers or dates.
const valueInputOption = "RAW"

type Config struct {
	SpreadsheetID       string
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsFile     string
}

type Store struct {
	spreadsheetID string
	service       *sheets.Service
}

var _ sheet.Store = (*Store)(nil)

// New authenticates as a service account, either from the email + private key pair or
// from a JSON credentials file.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("googlesheets: spreadsheet id is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.ServiceAccountEmail != "" && cfg.PrivateKey != "":
		conf := &jwt.Config{
			Email:      cfg.ServiceAccountEmail,
			PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
			Scopes:     []string{sheets.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithHTTPClient(conf.Client(ctx)))
	case cfg.CredentialsFile != "":
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope))
	default:
		return nil, errors.New("googlesheets: no service account credentials configured")
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("googlesheets: creating client: %w", err)
	}
	return NewWithService(cfg.SpreadsheetID, service), nil
}

// NewWithService wraps an already configured API client.
func NewWithService(spreadsheetID string, service *sheets.Service) *Store {
	return &Store{spreadsheetID: spreadsheetID, service: service}
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	resp, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, translate(err, "")
	}
	names := make([]string, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

func (s *Store) CreateTable(ctx context.Context, name string) error {
	if name == "" {
		return sheet.ErrInvalidTableName
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return translate(err, name)
}

func (s *Store) Get(ctx context.Context, r sheet.Range) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, r.A1()).Context(ctx).Do()
	if err != nil {
		return nil, translate(err, r.Table)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, r sheet.Range, values [][]string) error {
	_, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, r.A1(), &sheets.ValueRange{Values: toInterfaces(values)}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return translate(err, r.Table)
}

func (s *Store) Append(ctx context.Context, table string, values [][]string) (int, error) {
	resp, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, sheet.QuoteTable(table), &sheets.ValueRange{Values: toInterfaces(values)}).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		IncludeValuesInResponse(false).
		Context(ctx).
		Do()
	if err != nil {
		return 0, translate(err, table)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("googlesheets: append to %q returned no update range", table)
	}
	return sheet.ParseRowNumber(resp.Updates.UpdatedRange)
}

// Ping fetches the spreadsheet title.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Get(s.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	return translate(err, "")
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func translate(err error, table string) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case strings.Contains(msg, "already exists"):
			return fmt.Errorf("%w: %s", sheet.ErrTableExists, table)
		case strings.Contains(msg, "unable to parse range"):
			return fmt.Errorf("%w: %s", sheet.ErrTableNotFound, table)
		}
	}
	return fmt.Errorf("googlesheets: %w", err)
}
