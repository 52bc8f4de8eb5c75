package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/satheeshds/invoicing/billing"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeBillingError maps engine errors to HTTP statuses.
func writeBillingError(w http.ResponseWriter, err error) {
	var (
		validation   *billing.ValidationError
		inconsistent *billing.InconsistentMapping
		promotion    *billing.PromotionFailure
		submission   *billing.SubmissionFailure
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrPromotionLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &inconsistent):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &promotion), errors.As(err, &submission):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// BasicAuth is middleware that enforces HTTP Basic Authentication.
func BasicAuth(next http.Handler) http.Handler {
	user := os.Getenv("AUTH_USER")
	pass := os.Getenv("AUTH_PASS")

	// If no credentials are configured, skip auth
	if user == "" && pass == "" {
		slog.Warn("AUTH_USER and AUTH_PASS not set, API is unauthenticated")
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="invoicing"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
