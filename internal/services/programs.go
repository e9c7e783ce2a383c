package services

import "github.com/keerthik-19/summer-camp-registration/internal/models"

// Program is one entry of the fixed camp catalog.
type Program struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Ages         string `json:"ages"`
	SessionDates string `json:"sessionDates"`
	Fee          string `json:"fee"`
	Capacity     int    `json:"capacity"`
}

// DefaultFee applies to programs outside the catalog, including the generic
// "summer-camp" value.
const DefaultFee = "450.00"

// UnknownProgram is the stats bucket for program values outside the catalog.
const UnknownProgram = "unknown"

var catalog = []Program{
	{ID: "cultural-5-9", Name: "Cultural Heritage & Values", Ages: "5-9", SessionDates: "June 15 - July 15", Fee: "450.00", Capacity: 60},
	{ID: "educational-8-12", Name: "Educational Excellence", Ages: "8-12", SessionDates: "July 20 - August 20", Fee: "450.00", Capacity: 60},
	{ID: "leadership-12-15", Name: "Leadership Development", Ages: "12-15", SessionDates: "August 25 - September 15", Fee: "450.00", Capacity: 45},
}

// Programs returns the catalog in display order.
func Programs() []Program {
	out := make([]Program, len(catalog))
	copy(out, catalog)
	return out
}

// LookupProgram returns the catalog entry for id.
func LookupProgram(id string) (Program, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Program{}, false
}

// FeeFor is the registration fee charged for program.
func FeeFor(program string) string {
	if p, ok := LookupProgram(program); ok {
		return p.Fee
	}
	return DefaultFee
}

func programOrDefault(program string) string {
	if program == "" {
		return models.DefaultProgram
	}
	return program
}
