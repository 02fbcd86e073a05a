package server

import (
	"encoding/json"
	"net/http"

	"github.com/photogridlab/photogrid/pkg/errors"
)

// statusFor maps engine error codes onto HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidWidth,
		errors.ErrCodeInvalidPolicy,
		errors.ErrCodeInvalidSpacing,
		errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound,
		errors.ErrCodeImageNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDecodeFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": msg,
		"code":  status,
	})
}

// writeError maps err to a status and writes its user-safe message.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), errors.UserMessage(err))
}
