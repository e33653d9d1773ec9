package console

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"go-admin-console/internal/crud"
	"go-admin-console/internal/entity"
	"go-admin-console/internal/menu"
	"go-admin-console/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "reset", "loading", "dashboard", "list", "notfound"}

// pageData is the model every template receives. Data carries the
// page-specific part.
type pageData struct {
	Title     string
	Identity  *session.Identity
	Menu      []menu.Item
	PanelOpen bool
	Location  string
	Data      any
}

type menuScope struct {
	Items    []menu.Item
	Location string
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	funcs := template.FuncMap{
		"menuScope": func(items []menu.Item, location string) menuScope {
			return menuScope{Items: items, Location: location}
		},
		"cell": func(rec crud.Record, name string) string {
			return rec.Text(name)
		},
		"recordKey": func(rec crud.Record, def entity.Definition) int64 {
			return rec.Key(def)
		},
		"deleting": func(v crud.View, id int64) bool {
			return v.RowBusy[crud.RowKey{Action: crud.ActionDelete, ID: id}]
		},
		"sortMark": func(v crud.View, name string) string {
			if v.SortKey != name {
				return ""
			}
			if v.SortDir == crud.Desc {
				return " ▼"
			}
			return " ▲"
		},
		"isBool": func(f entity.Field) bool { return f.Kind == entity.KindBool },
		"checked": func(value string) bool {
			switch value {
			case "true", "yes", "on", "1":
				return true
			}
			return false
		},
		"add": func(a, b int) int { return a + b },
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = t
	}

	return &renderer{pages: pages}, nil
}

func (v *renderer) render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := v.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("template render failed", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
