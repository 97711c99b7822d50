package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Envelope is the payload merged into every success response next to
// "success" and "message".
type Envelope map[string]any

type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Error   string       `json:"error,omitempty"` // internal detail, development only
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Success: false, Message: message})
}

func RespondWithSuccess(w http.ResponseWriter, code int, message string, payload Envelope) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	RespondWithJSON(w, code, body)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Responder turns service errors into envelopes. Errors without a
// client-safe message are logged and reported with fallback.
type Responder struct {
	Log          *slog.Logger
	ExposeErrors bool
}

func (rp Responder) Error(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondWithJSON(w, HTTPStatusFromError(appErr), ErrorResponse{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Details,
		})
		return
	}

	status := HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		if rp.Log != nil {
			rp.Log.ErrorContext(r.Context(), fallback, "error", err, "method", r.Method, "path", r.URL.Path)
		}
		resp := ErrorResponse{Success: false, Message: fallback}
		if rp.ExposeErrors {
			resp.Error = err.Error()
		}
		RespondWithJSON(w, status, resp)
		return
	}
	RespondWithError(w, status, http.StatusText(status))
}
