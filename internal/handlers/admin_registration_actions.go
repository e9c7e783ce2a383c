package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keerthik-19/summer-camp-registration/internal/notify"
	"github.com/keerthik-19/summer-camp-registration/internal/services"
)

// POST /api/registrations/{id}/send-reminder
func (a *API) SendReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	_, err := a.Regs.SendReminder(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Payment reminder sent successfully"})
	case errors.Is(err, services.ErrNotification):
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Failed to send payment reminder"})
	default:
		writeError(w, r, err, msgRegNotFound)
	}
}

// POST /api/registrations/bulk-reminder
//
// Only a missing or empty id list is a 400; bad entries become failed
// results.
func (a *API) BulkReminder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RegistrationIDs []json.RawMessage `json:"registrationIds"`
	}
	if err := decodeJSON(w, r, &body); err != nil || len(body.RegistrationIDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid registration IDs")
		return
	}
	res, err := a.Regs.BulkReminder(r.Context(), body.RegistrationIDs)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/registrations/{id}/email-preview?type=confirmation|reminder
func (a *API) EmailPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	kind, err := notify.ParseKind(r.URL.Query().Get("type"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid email type")
		return
	}
	reg, err := a.Regs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	subject, html, err := notify.Render(kind, reg)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"subject": subject, "html": html})
}
