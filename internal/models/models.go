package models

import "time"

// Payment status values. Anything else is stored as free text.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// DefaultProgram is stored when a submission omits the program.
const DefaultProgram = "summer-camp"

// Registration is one child's camp enrollment. The ticket (RegistrationID)
// is assigned server-side and never changes.
type Registration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Child
	ChildFirstName  string `gorm:"size:100;not null;uniqueIndex:idx_child_program,priority:1" json:"childFirstName"`
	ChildLastName   string `gorm:"size:100;not null;uniqueIndex:idx_child_program,priority:2" json:"childLastName"`
	DateOfBirth     string `gorm:"size:32;not null;uniqueIndex:idx_child_program,priority:3" json:"dateOfBirth"`
	Age             int    `gorm:"not null" json:"age"`
	Gender          string `gorm:"not null" json:"gender"`
	GradeCompleting string `gorm:"not null" json:"gradeCompleting"`

	// Parent / guardian
	ParentGuardianName string `gorm:"not null" json:"parentGuardianName"`
	Relationship       string `gorm:"not null" json:"relationship"`
	ParentEmail        string `gorm:"size:191;not null;index" json:"parentEmail"`
	ParentPhone        string `gorm:"not null" json:"parentPhone"`
	HomeAddress        string `gorm:"not null" json:"homeAddress"`
	City               string `gorm:"not null" json:"city"`
	State              string `gorm:"not null" json:"state"`
	ZipCode            string `gorm:"not null" json:"zipCode"`

	// Emergency contact
	EmergencyContactName     string `gorm:"not null" json:"emergencyContactName"`
	EmergencyContactPhone    string `gorm:"not null" json:"emergencyContactPhone"`
	EmergencyContactRelation string `gorm:"not null" json:"emergencyContactRelation"`

	// Medical (all optional)
	PhysicianName       *string `json:"physicianName"`
	PhysicianPhone      *string `json:"physicianPhone"`
	MedicalInsurance    *string `json:"medicalInsurance"`
	Allergies           *string `json:"allergies"`
	Medications         *string `json:"medications"`
	MedicalConditions   *string `json:"medicalConditions"`
	DietaryRestrictions *string `json:"dietaryRestrictions"`
	TshirtSize          *string `json:"tshirtSize"`

	// Program
	Program      string `gorm:"size:64;not null;default:summer-camp;uniqueIndex:idx_child_program,priority:4" json:"program"`
	SessionDates string `gorm:"not null" json:"sessionDates"`

	SpecialAccommodations *string `json:"specialAccommodations"`
	PreviousAttendance    bool    `gorm:"default:false" json:"previousAttendance"`
	HowDidYouHear         *string `json:"howDidYouHear"`

	// Consent
	PickupAuthorization     string `gorm:"not null" json:"pickupAuthorization"`
	PhotoVideoConsent       bool   `gorm:"default:false" json:"photoVideoConsent"`
	MedicalTreatmentConsent bool   `gorm:"default:false" json:"medicalTreatmentConsent"`
	LiabilityWaiver         bool   `gorm:"default:false" json:"liabilityWaiver"`
	TermsAccepted           bool   `gorm:"not null;default:false" json:"termsAccepted"`

	// Payment. Fee is a fixed-point string such as "450.00".
	RegistrationFee string `gorm:"type:varchar(16);not null" json:"registrationFee"`
	PaymentMethod   string `gorm:"not null" json:"paymentMethod"`
	PaymentStatus   string `gorm:"size:32;not null;default:pending;index" json:"paymentStatus"`

	RegistrationID string `gorm:"size:32;not null;uniqueIndex" json:"registrationId"` // e.g. BOF2025-123456789
	Status         Status `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
}

// ChildName is "First Last".
func (r Registration) ChildName() string {
	return r.ChildFirstName + " " + r.ChildLastName
}
