package handler

import (
	"net/http"
	"strings"

	"go-admin-console/internal/middleware"
	"go-admin-console/internal/model"
	"go-admin-console/internal/service"
)

type AccessHandler struct {
	service *service.AccessService
}

func NewAccessHandler(service *service.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

func (h *AccessHandler) Log(w http.ResponseWriter, r *http.Request) {
	var payload model.AccessLogRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := h.service.Log(r.Context(), claims, payload, middleware.ClientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"logged": true}, nil)
}

func (h *AccessHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, meta, err := h.service.Query(r.Context(), model.AccessQuery{
		UserID:   int64(parseIntOrDefault(query.Get("user_id"), 0)),
		OptionID: int64(parseIntOrDefault(query.Get("option_id"), 0)),
		From:     strings.TrimSpace(query.Get("from")),
		To:       strings.TrimSpace(query.Get("to")),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		Limit:    parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AccessListData{Items: items}, &meta)
}
