package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

// GET /api/admin/registrations.csv exports every registration, newest first.
func (a *API) AdminRosterCSV(w http.ResponseWriter, r *http.Request) {
	regs, err := a.Regs.List(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	filename := fmt.Sprintf("registrations-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	_ = cw.Write([]string{
		"Registration Date", "Ticket", "Status", "Payment Status", "Fee", "Payment Method",
		"Program", "Session Dates", "Child First Name", "Child Last Name", "DOB", "Age", "Gender", "Grade",
		"Parent", "Relationship", "Email", "Phone", "Address", "City", "State", "Zip",
		"Emergency Contact", "Emergency Phone", "Emergency Relation",
		"Allergies", "Medications", "Medical Conditions", "Dietary Restrictions", "T-Shirt Size",
		"Photo Consent", "Medical Consent", "Liability Waiver",
	})
	for _, reg := range regs {
		_ = cw.Write(rosterRecord(reg))
	}
}

func rosterRecord(reg models.Registration) []string {
	return []string{
		reg.CreatedAt.Format("2006-01-02 15:04"),
		reg.RegistrationID,
		reg.Status.String(),
		reg.PaymentStatus,
		reg.RegistrationFee,
		reg.PaymentMethod,
		reg.Program,
		reg.SessionDates,
		reg.ChildFirstName,
		reg.ChildLastName,
		reg.DateOfBirth,
		strconv.Itoa(reg.Age),
		reg.Gender,
		reg.GradeCompleting,
		reg.ParentGuardianName,
		reg.Relationship,
		reg.ParentEmail,
		reg.ParentPhone,
		reg.HomeAddress,
		reg.City,
		reg.State,
		reg.ZipCode,
		reg.EmergencyContactName,
		reg.EmergencyContactPhone,
		reg.EmergencyContactRelation,
		deref(reg.Allergies),
		deref(reg.Medications),
		deref(reg.MedicalConditions),
		deref(reg.DietaryRestrictions),
		deref(reg.TshirtSize),
		yesNo(reg.PhotoVideoConsent),
		yesNo(reg.MedicalTreatmentConsent),
		yesNo(reg.LiabilityWaiver),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
