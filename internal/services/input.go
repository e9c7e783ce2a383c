package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

// CreateInput is the public registration form. Ticket, fee, status and
// payment status are assigned server-side and have no field here.
type CreateInput struct {
	ChildFirstName  string `json:"childFirstName" validate:"required,max=100"`
	ChildLastName   string `json:"childLastName" validate:"required,max=100"`
	DateOfBirth     string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Age             int    `json:"age" validate:"required,min=1,max=21"`
	Gender          string `json:"gender" validate:"required"`
	GradeCompleting string `json:"gradeCompleting" validate:"required"`

	ParentGuardianName string `json:"parentGuardianName" validate:"required"`
	Relationship       string `json:"relationship" validate:"required"`
	ParentEmail        string `json:"parentEmail" validate:"required,email,max=191"`
	ParentPhone        string `json:"parentPhone" validate:"required"`
	HomeAddress        string `json:"homeAddress" validate:"required"`
	City               string `json:"city" validate:"required"`
	State              string `json:"state" validate:"required"`
	ZipCode            string `json:"zipCode" validate:"required"`

	EmergencyContactName     string `json:"emergencyContactName" validate:"required"`
	EmergencyContactPhone    string `json:"emergencyContactPhone" validate:"required"`
	EmergencyContactRelation string `json:"emergencyContactRelation" validate:"required"`

	PhysicianName       *string `json:"physicianName"`
	PhysicianPhone      *string `json:"physicianPhone"`
	MedicalInsurance    *string `json:"medicalInsurance"`
	Allergies           *string `json:"allergies"`
	Medications         *string `json:"medications"`
	MedicalConditions   *string `json:"medicalConditions"`
	DietaryRestrictions *string `json:"dietaryRestrictions"`
	TshirtSize          *string `json:"tshirtSize"`

	Program      string `json:"program" validate:"max=64"`
	SessionDates string `json:"sessionDates" validate:"required"`

	SpecialAccommodations *string `json:"specialAccommodations"`
	PreviousAttendance    bool    `json:"previousAttendance"`
	HowDidYouHear         *string `json:"howDidYouHear"`

	PickupAuthorization     string `json:"pickupAuthorization" validate:"required"`
	PhotoVideoConsent       bool   `json:"photoVideoConsent"`
	MedicalTreatmentConsent bool   `json:"medicalTreatmentConsent"`
	LiabilityWaiver         bool   `json:"liabilityWaiver"`
	TermsAccepted           bool   `json:"termsAccepted"`

	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize trims every text field and drops blank optional values.
func (in *CreateInput) normalize() {
	for _, p := range []*string{
		&in.ChildFirstName, &in.ChildLastName, &in.DateOfBirth, &in.Gender, &in.GradeCompleting,
		&in.ParentGuardianName, &in.Relationship, &in.ParentPhone,
		&in.HomeAddress, &in.City, &in.State, &in.ZipCode,
		&in.EmergencyContactName, &in.EmergencyContactPhone, &in.EmergencyContactRelation,
		&in.Program, &in.SessionDates, &in.PickupAuthorization, &in.PaymentMethod,
	} {
		*p = strings.TrimSpace(*p)
	}
	in.ParentEmail = strings.ToLower(strings.TrimSpace(in.ParentEmail))

	for _, p := range []**string{
		&in.PhysicianName, &in.PhysicianPhone, &in.MedicalInsurance, &in.Allergies,
		&in.Medications, &in.MedicalConditions, &in.DietaryRestrictions, &in.TshirtSize,
		&in.SpecialAccommodations, &in.HowDidYouHear,
	} {
		*p = optional(*p)
	}
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) validateInput(in *CreateInput) error {
	var fields []FieldError
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}
	if !in.TermsAccepted {
		fields = append(fields, FieldError{Field: "termsAccepted", Message: "must be accepted"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}

func (in *CreateInput) toModel() *models.Registration {
	return &models.Registration{
		ChildFirstName:  in.ChildFirstName,
		ChildLastName:   in.ChildLastName,
		DateOfBirth:     in.DateOfBirth,
		Age:             in.Age,
		Gender:          in.Gender,
		GradeCompleting: in.GradeCompleting,

		ParentGuardianName: in.ParentGuardianName,
		Relationship:       in.Relationship,
		ParentEmail:        in.ParentEmail,
		ParentPhone:        in.ParentPhone,
		HomeAddress:        in.HomeAddress,
		City:               in.City,
		State:              in.State,
		ZipCode:            in.ZipCode,

		EmergencyContactName:     in.EmergencyContactName,
		EmergencyContactPhone:    in.EmergencyContactPhone,
		EmergencyContactRelation: in.EmergencyContactRelation,

		PhysicianName:       in.PhysicianName,
		PhysicianPhone:      in.PhysicianPhone,
		MedicalInsurance:    in.MedicalInsurance,
		Allergies:           in.Allergies,
		Medications:         in.Medications,
		MedicalConditions:   in.MedicalConditions,
		DietaryRestrictions: in.DietaryRestrictions,
		TshirtSize:          in.TshirtSize,

		Program:      programOrDefault(in.Program),
		SessionDates: in.SessionDates,

		SpecialAccommodations: in.SpecialAccommodations,
		PreviousAttendance:    in.PreviousAttendance,
		HowDidYouHear:         in.HowDidYouHear,

		PickupAuthorization:     in.PickupAuthorization,
		PhotoVideoConsent:       in.PhotoVideoConsent,
		MedicalTreatmentConsent: in.MedicalTreatmentConsent,
		LiabilityWaiver:         in.LiabilityWaiver,
		TermsAccepted:           in.TermsAccepted,

		PaymentMethod: in.PaymentMethod,
	}
}
