// Package tabular persists users in the usuarios table of the sheet store.
package tabular

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/frahmantamala/school-records/internal/sheet"
	"github.com/frahmantamala/school-records/internal/user"
)

const firstDataRow = 2

type UserRepository struct {
	reconciler *sheet.Reconciler
}

func NewUserRepository(reconciler *sheet.Reconciler) user.RepositoryAPI {
	return &UserRepository{reconciler: reconciler}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	rows, err := r.reconciler.Store().Get(ctx, sheet.Rows(userDatamodel.TableName, firstDataRow, len(userDatamodel.Headers)))
	if err != nil {
		return nil, err
	}

	users := make([]*userDatamodel.User, 0, len(rows))
	for i, cells := range rows {
		u := userDatamodel.FromRow(firstDataRow+i, cells)
		if u.Username == "" {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// GetByUsername scans for an exact username match.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	row, err := r.reconciler.Store().Append(ctx, userDatamodel.TableName, [][]string{u.ToRow()})
	if err != nil {
		return err
	}
	u.Row = row
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	if u.Row < firstDataRow {
		return errors.New("user row is not set")
	}
	if err := r.ensure(ctx); err != nil {
		return err
	}
	width := len(userDatamodel.Headers)
	return r.reconciler.Store().Update(ctx, sheet.Row(userDatamodel.TableName, u.Row, width), [][]string{u.ToRow()})
}

func (r *UserRepository) ensure(ctx context.Context) error {
	return r.reconciler.EnsureTable(ctx, userDatamodel.TableName, userDatamodel.Headers)
}
