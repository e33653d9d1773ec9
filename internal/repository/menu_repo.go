package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-admin-console/internal/model"
)

type MenuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// ListAll returns every option ordered for display.
func (r *MenuRepository) ListAll(ctx context.Context) ([]model.MenuOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT option_id, parent_id, label, path, icon, sort_order
		 FROM menu_options
		 ORDER BY sort_order, option_id`)
	if err != nil {
		return nil, fmt.Errorf("list menu options: %w", err)
	}
	return collectOptions(rows)
}

// ListGranted returns the options granted to userID.
func (r *MenuRepository) ListGranted(ctx context.Context, userID int64) ([]model.MenuOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.option_id, m.parent_id, m.label, m.path, m.icon, m.sort_order
		 FROM menu_options m
		 JOIN user_options g ON g.option_id = m.option_id
		 WHERE g.user_id = $1
		 ORDER BY m.sort_order, m.option_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list granted menu options: %w", err)
	}
	return collectOptions(rows)
}

func (r *MenuRepository) Grant(ctx context.Context, userID int64, optionIDs ...int64) error {
	for _, optionID := range optionIDs {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO user_options (user_id, option_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, userID, optionID)
		if err != nil {
			return fmt.Errorf("grant menu option %d: %w", optionID, err)
		}
	}
	return nil
}

func collectOptions(rows pgx.Rows) ([]model.MenuOption, error) {
	defer rows.Close()

	options := make([]model.MenuOption, 0)
	for rows.Next() {
		var o model.MenuOption
		if err := rows.Scan(&o.ID, &o.ParentID, &o.Label, &o.Path, &o.Icon, &o.SortOrder); err != nil {
			return nil, fmt.Errorf("scan menu option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
