package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a registration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

// IsValid reports whether s is one of the three lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts a lifecycle state name, ignoring surrounding space
// and case. "canceled" is accepted as an alias.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == "canceled" {
		s = StatusCancelled
	}
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// CanTransition reports whether an admin may move a registration from one
// state to another. Re-applying the current state is allowed.
//
//	pending   -> confirmed | cancelled
//	confirmed -> cancelled
func CanTransition(from, to Status) bool {
	if from == to {
		return to.IsValid()
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	}
	return false
}
