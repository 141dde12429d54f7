package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes of the JSON API.
const (
	CodeInvalidUpload  = "INVALID_UPLOAD"
	CodeUnknownSource  = "UNKNOWN_SOURCE"
	CodeUploadTooLarge = "UPLOAD_TOO_LARGE"
	CodeImportFailed   = "IMPORT_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeNotFound       = "NOT_FOUND"
	CodeNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// ErrorEnvelope standardizes JSON error responses.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// NotFound and MethodNotAllowed answer unmatched routes with an envelope.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusNotFound, CodeNotFound, "route not found", map[string]string{"path": r.URL.Path})
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, CodeNotAllowed, "method not allowed", map[string]string{
			"path":   r.URL.Path,
			"method": r.Method,
		})
	})
}
