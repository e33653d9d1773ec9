package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-admin-console/internal/model"
)

type AccessRepository struct {
	pool *pgxpool.Pool
}

func NewAccessRepository(pool *pgxpool.Pool) *AccessRepository {
	return &AccessRepository{pool: pool}
}

func (r *AccessRepository) Log(ctx context.Context, userID int64, optionID int64, ip string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO access_log (user_id, option_id, ip, occurred_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, optionID, ip, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrRecordNotFound
		}
		return fmt.Errorf("log access: %w", err)
	}
	return nil
}

func (r *AccessRepository) Query(ctx context.Context, query model.AccessQuery) ([]model.AccessEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if query.UserID > 0 {
		where = append(where, fmt.Sprintf("a.user_id = $%d", argIdx))
		args = append(args, query.UserID)
		argIdx++
	}
	if query.OptionID > 0 {
		where = append(where, fmt.Sprintf("a.option_id = $%d", argIdx))
		args = append(args, query.OptionID)
		argIdx++
	}
	if from := strings.TrimSpace(query.From); from != "" {
		where = append(where, fmt.Sprintf("a.occurred_at >= $%d::timestamptz", argIdx))
		args = append(args, from)
		argIdx++
	}
	if to := strings.TrimSpace(query.To); to != "" {
		where = append(where, fmt.Sprintf("a.occurred_at <= $%d::timestamptz", argIdx))
		args = append(args, to)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM access_log a %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count access entries: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}
	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT a.id, a.user_id, u.username, a.option_id, m.label, a.ip, a.occurred_at
		 FROM access_log a
		 JOIN users u ON u.id = a.user_id
		 JOIN menu_options m ON m.option_id = a.option_id
		 %s
		 ORDER BY a.occurred_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query access entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AccessEntry, 0)
	for rows.Next() {
		var e model.AccessEntry
		var occurredAt time.Time
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.OptionID, &e.OptionLabel, &e.IP, &occurredAt); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan access entry: %w", err)
		}
		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}
