package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-admin-console/internal/entity"
	"go-admin-console/internal/model"
	"go-admin-console/pkg/apierror"
)

// EntityRepository runs CRUD statements for any catalog definition. Table
// and column names come from the catalog and are quoted as identifiers.
type EntityRepository struct {
	pool *pgxpool.Pool
}

func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{pool: pool}
}

func columnList(def entity.Definition) string {
	cols := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		cols = append(cols, pgx.Identifier{f.Column}.Sanitize())
	}
	return strings.Join(cols, ", ")
}

func table(def entity.Definition) string {
	return pgx.Identifier{def.Table}.Sanitize()
}

func keyColumn(def entity.Definition) string {
	return pgx.Identifier{def.KeyField().Column}.Sanitize()
}

func (r *EntityRepository) List(ctx context.Context, def entity.Definition) ([]map[string]any, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		columnList(def), table(def), keyColumn(def)))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", def.Name, err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", def.Name, err)
	}
	return items, nil
}

func (r *EntityRepository) Get(ctx context.Context, def entity.Definition, id int64) (map[string]any, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		columnList(def), table(def), keyColumn(def)), id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", def.Name, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", def.Name, err)
	}
	return item, nil
}

// Create inserts values (keyed by column) and returns the stored row.
func (r *EntityRepository) Create(ctx context.Context, def entity.Definition, values map[string]any) (map[string]any, error) {
	cols, args := assignments(def, values)
	if len(cols) == 0 {
		return nil, apierror.BadRequest("no fields to insert", def.Name)
	}

	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		table(def), strings.Join(quoted, ", "), strings.Join(params, ", "), columnList(def)), args...)
	if err != nil {
		return nil, mapWriteError(def, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapWriteError(def, err)
	}
	return item, nil
}

// Update overwrites the given columns of record id and returns the row.
func (r *EntityRepository) Update(ctx context.Context, def entity.Definition, id int64, values map[string]any) (map[string]any, error) {
	cols, args := assignments(def, values)
	if len(cols) == 0 {
		return nil, apierror.BadRequest("no fields to update", def.Name)
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), i+1)
	}
	args = append(args, id)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d RETURNING %s`,
		table(def), strings.Join(sets, ", "), keyColumn(def), len(args), columnList(def)), args...)
	if err != nil {
		return nil, mapWriteError(def, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, mapWriteError(def, err)
	}
	return item, nil
}

func (r *EntityRepository) Delete(ctx context.Context, def entity.Definition, id int64) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table(def), keyColumn(def)), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrRecordInUse
		}
		return fmt.Errorf("delete %s: %w", def.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRecordNotFound
	}
	return nil
}

// assignments keeps the non-key catalog columns present in values, in
// catalog order.
func assignments(def entity.Definition, values map[string]any) ([]string, []any) {
	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, f := range def.Editable() {
		v, ok := values[f.Column]
		if !ok {
			continue
		}
		cols = append(cols, f.Column)
		args = append(args, v)
	}
	return cols, args
}

func mapWriteError(def entity.Definition, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", model.ErrRecordConflict, def.Name)
	case isForeignKeyViolation(err):
		return apierror.BadRequest("referenced record does not exist", def.Name)
	default:
		return fmt.Errorf("write %s: %w", def.Name, err)
	}
}
