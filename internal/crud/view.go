package crud

import (
	"slices"
	"strings"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Toggle() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Filter keeps the records where at least one of fields contains text,
// compared case-insensitively. An empty text keeps everything.
func Filter(items []Record, text string, fields []string) []Record {
	if text == "" {
		return slices.Clone(items)
	}

	needle := strings.ToLower(text)
	out := make([]Record, 0, len(items))
	for _, rec := range items {
		for _, name := range fields {
			if strings.Contains(strings.ToLower(rec.Text(name)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy ordered by key in the given direction.
func Sort(items []Record, key string, dir Direction) []Record {
	out := slices.Clone(items)
	if key == "" {
		return out
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		c := compareValues(a[key], b[key])
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// compareValues orders integers numerically and everything else as
// case-insensitive text, with nil treated as the empty string.
func compareValues(a, b any) int {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(strings.ToLower(display(a)), strings.ToLower(display(b)))
}

func TotalPages(total int, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps page within [1, max(1, totalPages)].
func ClampPage(page int, totalPages int) int {
	upper := max(1, totalPages)
	return min(max(page, 1), upper)
}

// Paginate returns the slice for a 1-based page.
func Paginate(items []Record, page int, pageSize int) []Record {
	if pageSize <= 0 {
		return items
	}

	start := (page - 1) * pageSize
	if start < 0 || start >= len(items) {
		return []Record{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
