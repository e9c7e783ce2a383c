package handlers

import (
	"net/http"
	"strings"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
	"github.com/keerthik-19/summer-camp-registration/internal/services"
)

const (
	msgRegNotFound    = "Registration not found"
	msgLookupNotFound = "No registration found with the provided ticket number and last name"
)

type createdResponse struct {
	*models.Registration
	EmailSent bool `json:"emailSent"`
}

// POST /api/registrations
func (a *API) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid registration data")
		return
	}
	reg, emailSent, err := a.Regs.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{Registration: reg, EmailSent: emailSent})
}

// GET /api/registrations/{id}
func (a *API) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	reg, err := a.Regs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// GET /api/registrations, optionally ?email=
func (a *API) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	var (
		regs []models.Registration
		err  error
	)
	if r.URL.Query().Has("email") {
		regs, err = a.Regs.ListByEmail(r.Context(), r.URL.Query().Get("email"))
	} else {
		regs, err = a.Regs.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// PATCH /api/registrations/{id}/status
func (a *API) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	reg, err := a.Regs.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// PATCH /api/registrations/{id}/payment
func (a *API) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	reg, err := a.Regs.UpdatePaymentStatus(r.Context(), id, body.PaymentStatus)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// DELETE /api/registrations/{id}
func (a *API) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.Regs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}
	writeMessage(w, http.StatusOK, "Registration deleted successfully")
}

// POST /api/registrations/lookup
//
// Public endpoint: store errors never reach the response body.
func (a *API) Lookup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TicketNumber string `json:"ticketNumber"`
		LastName     string `json:"lastName"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Ticket number and last name are required")
		return
	}
	if strings.TrimSpace(body.TicketNumber) == "" || strings.TrimSpace(body.LastName) == "" {
		writeMessage(w, http.StatusBadRequest, "Ticket number and last name are required")
		return
	}
	reg, err := a.Regs.Lookup(r.Context(), body.TicketNumber, body.LastName)
	if err != nil {
		writeError(w, r, err, msgLookupNotFound)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
