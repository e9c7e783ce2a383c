package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/keerthik-19/summer-camp-registration/internal/services"
	"github.com/keerthik-19/summer-camp-registration/internal/session"
)

const maxBodyBytes = 1 << 20

// CookieConfig controls the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// API holds the dependencies shared by the JSON handlers.
type API struct {
	Regs     *services.Service
	Sessions *session.Manager
	Cookie   CookieConfig
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps the service error taxonomy to a status code. Unclassified
// errors are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, services.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, services.ErrDuplicateRegistration):
		writeMessage(w, http.StatusConflict, "A registration for this child and program already exists")
	case errors.Is(err, services.ErrDuplicateTicket):
		writeMessage(w, http.StatusConflict, "Could not assign a unique ticket number, please try again")
	case errors.Is(err, services.ErrInvalidTransition):
		writeMessage(w, http.StatusConflict, "Status transition not allowed")
	case errors.Is(err, services.ErrPaymentSettled):
		writeMessage(w, http.StatusConflict, "Payment already completed")
	case errors.Is(err, services.ErrConflict):
		writeMessage(w, http.StatusConflict, "Conflict")
	default:
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// idParam reads the {id} URL segment. It writes the 400 itself.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || n == 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid registration ID")
		return 0, false
	}
	return uint(n), true
}
