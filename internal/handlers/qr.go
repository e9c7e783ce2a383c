package handlers

import (
	"net/http"

	"github.com/keerthik-19/summer-camp-registration/internal/notify"
)

// GET /api/registrations/{id}/qr.png encodes the ticket number so a scan at
// drop-off yields the ticket for lookup.
func (a *API) QR(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	reg, err := a.Regs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, msgRegNotFound)
		return
	}

	png, err := notify.QRPNG(reg.RegistrationID, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
