package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/authkeeper-server/internal/model"
)

type errorResponse struct {
	Error      string            `json:"error"`
	Violations map[string]string `json:"violations,omitempty"`
}

// handleError maps flow errors to HTTP responses. authStatus is the code
// used for the auth-failure family on this endpoint: 401 for login and
// refresh, 400 for reset confirmation.
func (h *Auth) handleError(w http.ResponseWriter, err error, authStatus int) {
	var verr *model.ValidationError

	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(w, authStatus, model.ErrInvalidCredentials.Error())
	case errors.Is(err, model.ErrInvalidToken):
		writeError(w, authStatus, model.ErrInvalidToken.Error())
	case errors.Is(err, model.ErrUserNotFound):
		writeError(w, http.StatusNotFound, model.ErrUserNotFound.Error())
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:      "validation failed",
			Violations: verr.Violations,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
