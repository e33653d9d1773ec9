package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
)

const swaggerCSP = "default-src 'self'; connect-src 'self' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https://validator.swagger.io"

// DocsHandler serves the hand-written OpenAPI document and a Swagger UI page
// pointing at it. The document is read once and kept in memory.
type DocsHandler struct {
	specPath string

	once    sync.Once
	content []byte
	loadErr error
}

func NewDocsHandler(specPath string) *DocsHandler {
	return &DocsHandler{specPath: strings.TrimSpace(specPath)}
}

func (h *DocsHandler) load() ([]byte, error) {
	h.once.Do(func() {
		if h.specPath == "" {
			h.loadErr = fmt.Errorf("openapi spec path not configured")
			return
		}
		h.content, h.loadErr = os.ReadFile(h.specPath)
		if h.loadErr != nil {
			slog.Warn("openapi document unavailable", "path", h.specPath, "error", h.loadErr)
		}
	})
	return h.content, h.loadErr
}

func (h *DocsHandler) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	content, err := h.load()
	if err != nil {
		http.Error(w, "openapi spec not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (h *DocsHandler) SwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Security-Policy", swaggerCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, swaggerPage, "Admin Console API Docs", "/openapi.yaml")
}

const swaggerPage = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>%s</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '%s',
        dom_id: '#swagger-ui',
        withCredentials: true,
        deepLinking: true
      });
    </script>
  </body>
</html>`
