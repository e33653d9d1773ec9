package crud

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go-admin-console/internal/entity"
)

// Record is one normalized row keyed by local field names. Integer fields
// hold int64, bool fields hold bool, text fields hold string. Absent values
// are nil.
type Record map[string]any

// Normalize maps a raw server row onto the definition's local field names.
func Normalize(def entity.Definition, raw map[string]any) (Record, error) {
	rec := make(Record, len(def.Fields))
	for _, f := range def.Fields {
		value, ok := raw[f.Column]
		if !ok {
			value, ok = raw[f.Name]
		}
		if !ok || value == nil {
			rec[f.Name] = nil
			continue
		}

		coerced, err := coerce(f, value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
		}
		rec[f.Name] = coerced
	}

	if _, ok := rec[def.KeyField().Name].(int64); !ok {
		return nil, fmt.Errorf("%s: record without numeric key", def.Name)
	}

	return rec, nil
}

// NormalizeAll normalizes a full collection, failing on the first bad row.
func NormalizeAll(def entity.Definition, rows []map[string]any) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := Normalize(def, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Key returns the record's primary key.
func (r Record) Key(def entity.Definition) int64 {
	id, _ := r[def.KeyField().Name].(int64)
	return id
}

// Text renders a field for display and matching.
func (r Record) Text(name string) string {
	return display(r[name])
}

func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(t)
	}
}

func coerce(f entity.Field, value any) (any, error) {
	switch f.Kind {
	case entity.KindInteger:
		return toInt64(value)
	case entity.KindBool:
		return toBool(value)
	default:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil
	}
}

func toInt64(value any) (int64, error) {
	switch t := value.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("non-integer value %v", t)
		}
		return int64(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("invalid integer %q", t.String())
		}
		return int64(f), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported integer type %T", value)
	}
}

func toBool(value any) (bool, error) {
	switch t := value.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "", "0", "false", "no", "off":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean %q", t)
	case json.Number, float64, int64, int:
		n, err := toInt64(t)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	default:
		return false, fmt.Errorf("unsupported boolean type %T", value)
	}
}

// BuildPayload turns submitted form values (keyed by local field name) into
// a server payload keyed by column. It returns per-field messages for values
// that are missing or fail coercion.
func BuildPayload(def entity.Definition, values map[string]string) (map[string]any, map[string]string) {
	payload := make(map[string]any)
	problems := make(map[string]string)

	for _, f := range def.Editable() {
		raw := strings.TrimSpace(values[f.Name])

		switch f.Kind {
		case entity.KindBool:
			b, err := toBool(raw)
			if err != nil {
				problems[f.Name] = "must be yes or no"
				continue
			}
			payload[f.Column] = b
		case entity.KindInteger:
			if raw == "" {
				if f.Required {
					problems[f.Name] = "is required"
				} else {
					payload[f.Column] = nil
				}
				continue
			}
			n, err := toInt64(raw)
			if err != nil {
				problems[f.Name] = "must be a whole number"
				continue
			}
			payload[f.Column] = n
		default:
			if raw == "" && f.Required {
				problems[f.Name] = "is required"
				continue
			}
			if f.MaxLen > 0 && len([]rune(raw)) > f.MaxLen {
				problems[f.Name] = fmt.Sprintf("must be at most %d characters", f.MaxLen)
				continue
			}
			payload[f.Column] = raw
		}
	}

	return payload, problems
}

// FormValues renders a record back into form values for an edit modal.
func FormValues(def entity.Definition, rec Record) map[string]string {
	out := make(map[string]string, len(def.Fields))
	for _, f := range def.Editable() {
		switch v := rec[f.Name].(type) {
		case bool:
			out[f.Name] = strconv.FormatBool(v)
		default:
			out[f.Name] = display(v)
		}
	}
	return out
}
