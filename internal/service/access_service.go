package service

import (
	"context"
	"strings"
	"time"

	"go-admin-console/internal/model"
	"go-admin-console/pkg/apierror"
)

type AccessStore interface {
	Log(ctx context.Context, userID int64, optionID int64, ip string) error
	Query(ctx context.Context, query model.AccessQuery) ([]model.AccessEntry, model.Meta, error)
}

type AccessService struct {
	store AccessStore
}

func NewAccessService(store AccessStore) *AccessService {
	return &AccessService{store: store}
}

// Log records that actor opened a menu option. Only administrators may log
// on behalf of another user; a zero user id means the actor.
func (s *AccessService) Log(ctx context.Context, actor *model.AuthClaims, req model.AccessLogRequest, ip string) error {
	if actor == nil {
		return model.ErrUnauthorized
	}
	if req.OptionID <= 0 {
		return apierror.BadRequest("optionId is required", "")
	}

	userID := req.UserID
	if userID == 0 {
		userID = actor.UserID
	}
	if userID != actor.UserID && actor.Role != model.RoleAdmin {
		return model.ErrForbidden
	}

	return s.store.Log(ctx, userID, req.OptionID, ip)
}

func (s *AccessService) Query(ctx context.Context, query model.AccessQuery) ([]model.AccessEntry, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	from, err := parseOptionalTime(query.From)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'from' datetime format", query.From)
	}
	to, err := parseOptionalTime(query.To)
	if err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'to' datetime format", query.To)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, model.Meta{}, apierror.BadRequest("'to' must not be before 'from'", "")
	}

	query.From = formatOptionalTime(from)
	query.To = formatOptionalTime(to)
	return s.store.Query(ctx, query)
}

func parseOptionalTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	if value, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.DateOnly, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
