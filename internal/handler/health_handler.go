package handler

import (
	"context"
	"net/http"
	"time"
)

type healthChecker interface {
	Health(ctx context.Context) error
	Stats() map[string]any
}

type HealthHandler struct {
	db healthChecker
}

func NewHealthHandler(db healthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.Health(r.Context()); err != nil {
		data["status"] = "degraded"
		data["database"] = "unreachable"
		writeSuccess(w, http.StatusServiceUnavailable, data, nil)
		return
	}

	data["database"] = h.db.Stats()
	writeSuccess(w, http.StatusOK, data, nil)
}
