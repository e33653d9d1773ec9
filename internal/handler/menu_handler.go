package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/middleware"
	"go-admin-console/internal/model"
	"go-admin-console/internal/service"
	"go-admin-console/pkg/apierror"
)

type MenuHandler struct {
	service *service.MenuService
}

func NewMenuHandler(service *service.MenuService) *MenuHandler {
	return &MenuHandler{service: service}
}

// Entries returns the authorization tree of a user. Users may only read
// their own tree unless they are administrators.
func (h *MenuHandler) Entries(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	userID, err := parseID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		writeError(w, err)
		return
	}
	if userID != claims.UserID && claims.Role != model.RoleAdmin {
		writeError(w, model.ErrForbidden)
		return
	}

	role := claims.Role
	if userID != claims.UserID {
		// An administrator reading another user's tree sees that user's grants.
		role = ""
	}

	entries, err := h.service.Entries(r.Context(), userID, role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, nil)
}
