package handlers

import (
	"net/http"

	"github.com/keerthik-19/summer-camp-registration/internal/services"
)

// GET /api/admin/stats returns totals, revenue, pending reviews and the
// per-program fill against capacity.
func (a *API) AdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.Regs.Stats(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /api/programs
func Programs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.Programs())
}
