package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go-admin-console/internal/entity"
	"go-admin-console/internal/util"
	"go-admin-console/pkg/apierror"
)

type EntityStore interface {
	List(ctx context.Context, def entity.Definition) ([]map[string]any, error)
	Get(ctx context.Context, def entity.Definition, id int64) (map[string]any, error)
	Create(ctx context.Context, def entity.Definition, values map[string]any) (map[string]any, error)
	Update(ctx context.Context, def entity.Definition, id int64, values map[string]any) (map[string]any, error)
	Delete(ctx context.Context, def entity.Definition, id int64) error
}

// EntityService validates catalog payloads before they reach storage.
type EntityService struct {
	store EntityStore
}

func NewEntityService(store EntityStore) *EntityService {
	return &EntityService{store: store}
}

func (s *EntityService) Definition(name string) (entity.Definition, error) {
	def, ok := entity.Lookup(name)
	if !ok {
		return entity.Definition{}, apierror.NotFound("resource not found", name)
	}
	return def, nil
}

func (s *EntityService) List(ctx context.Context, def entity.Definition) ([]map[string]any, error) {
	return s.store.List(ctx, def)
}

func (s *EntityService) Get(ctx context.Context, def entity.Definition, id int64) (map[string]any, error) {
	return s.store.Get(ctx, def, id)
}

func (s *EntityService) Create(ctx context.Context, def entity.Definition, payload map[string]any) (map[string]any, error) {
	values, err := normalizePayload(def, payload, true)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, def, values)
}

// Update applies the fields present in payload. Missing fields keep their
// stored value.
func (s *EntityService) Update(ctx context.Context, def entity.Definition, id int64, payload map[string]any) (map[string]any, error) {
	values, err := normalizePayload(def, payload, false)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, def, id, values)
}

func (s *EntityService) Delete(ctx context.Context, def entity.Definition, id int64) error {
	return s.store.Delete(ctx, def, id)
}

// normalizePayload converts a decoded JSON body into column values. Fields
// may be keyed by column or by local name. Key and unknown fields are
// ignored.
func normalizePayload(def entity.Definition, payload map[string]any, create bool) (map[string]any, error) {
	values := make(map[string]any, len(def.Fields))

	for _, f := range def.Editable() {
		raw, present := payload[f.Column]
		if !present {
			raw, present = payload[f.Name]
		}
		if !present {
			if create && f.Required {
				return nil, fieldError(f, "is required")
			}
			continue
		}

		value, err := convertField(f, raw)
		if err != nil {
			return nil, err
		}
		if value == nil && f.Required {
			return nil, fieldError(f, "is required")
		}
		values[f.Column] = value
	}

	return values, nil
}

func convertField(f entity.Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch f.Kind {
	case entity.KindText:
		text, ok := raw.(string)
		if !ok {
			return nil, fieldError(f, "must be text")
		}
		cleaned, err := util.SanitizeText(f.Label, text, f.MaxLen)
		if err != nil {
			return nil, err
		}
		if cleaned == "" {
			return nil, nil
		}
		return cleaned, nil

	case entity.KindInteger:
		switch v := raw.(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fieldError(f, "must be a whole number")
			}
			return n, nil
		case float64:
			if v != math.Trunc(v) || math.IsInf(v, 0) {
				return nil, fieldError(f, "must be a whole number")
			}
			return int64(v), nil
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				return nil, nil
			}
			n, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil {
				return nil, fieldError(f, "must be a whole number")
			}
			return n, nil
		}
		return nil, fieldError(f, "must be a whole number")

	case entity.KindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fieldError(f, "must be true or false")
			}
			return b, nil
		}
		return nil, fieldError(f, "must be true or false")
	}

	return nil, fieldError(f, "has an unsupported type")
}

func fieldError(f entity.Field, problem string) error {
	return apierror.BadRequest(fmt.Sprintf("%s %s", f.Label, problem), f.Column)
}
