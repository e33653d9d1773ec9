package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/entity"
	"go-admin-console/internal/service"
)

type EntityHandler struct {
	service *service.EntityService
}

func NewEntityHandler(service *service.EntityService) *EntityHandler {
	return &EntityHandler{service: service}
}

func (h *EntityHandler) definition(w http.ResponseWriter, r *http.Request) (entity.Definition, bool) {
	def, err := h.service.Definition(chi.URLParam(r, "entity"))
	if err != nil {
		writeError(w, err)
		return entity.Definition{}, false
	}
	return def, true
}

// List returns the bare array of rows keyed by column.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}

	rows, err := h.service.List(r.Context(), def)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, rows, nil)
}

func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, err)
		return
	}

	row, err := h.service.Get(r.Context(), def, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, row, nil)
}

func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	row, err := h.service.Create(r.Context(), def, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, row, nil)
}

func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload map[string]any
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	row, err := h.service.Update(r.Context(), def, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, row, nil)
}

func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), def, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
