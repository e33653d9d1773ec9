package middleware

import (
	"encoding/json"
	"net/http"

	"go-admin-console/internal/model"
)

// failure is the envelope every middleware rejection uses. msg carries the
// human text the console shows; error.message repeats it for API clients.
func failure(code string, message string) model.APIResponse {
	return model.APIResponse{
		Success: false,
		Msg:     message,
		Error:   &model.APIError{Code: code, Message: message},
	}
}

func writeFailure(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failure(code, message))
}
