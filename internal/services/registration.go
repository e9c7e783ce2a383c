package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

// Repository is the record store the service works against.
type Repository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uint) (*models.Registration, error)
	GetAll(ctx context.Context) ([]models.Registration, error)
	FindByTicket(ctx context.Context, ticket string) (*models.Registration, error)
	FindByEmail(ctx context.Context, email string) ([]models.Registration, error)
	TicketExists(ctx context.Context, ticket string) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status models.Status) (*models.Registration, error)
	UpdatePaymentStatus(ctx context.Context, id uint, paymentStatus string) (*models.Registration, error)
	Delete(ctx context.Context, id uint) (bool, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.Status) (int64, error)
	ProgramCounts(ctx context.Context) (map[string]int64, error)
	CompletedFees(ctx context.Context) ([]string, error)
}

// Notifier delivers parent-facing emails.
type Notifier interface {
	Confirmation(ctx context.Context, reg *models.Registration) error
	PaymentReminder(ctx context.Context, reg *models.Registration) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	tickets  *TicketGenerator
	validate *validator.Validate
}

// New builds the registration service. A nil notifier disables emails.
func New(repo Repository, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		tickets:  NewTicketGenerator(repo.TicketExists),
		validate: newValidator(),
	}
}

// Tickets exposes the generator so callers can pin its clock in tests.
func (s *Service) Tickets() *TicketGenerator { return s.tickets }

// Create validates the form, assigns ticket, fee and initial states, stores
// the registration and then sends the confirmation email. The email result
// is reported separately; a failed send leaves the registration in place.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Registration, bool, error) {
	in.normalize()
	if err := s.validateInput(&in); err != nil {
		return nil, false, err
	}

	reg := in.toModel()
	reg.RegistrationFee = FeeFor(reg.Program)
	reg.Status = models.StatusPending
	reg.PaymentStatus = models.PaymentPending

	ticket, err := s.tickets.Next(ctx)
	if err != nil {
		return nil, false, err
	}
	reg.RegistrationID = ticket

	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, false, err
	}
	log.Printf("registration %s created (program=%s)", reg.RegistrationID, reg.Program)

	return reg, s.sendConfirmation(ctx, reg), nil
}

func (s *Service) sendConfirmation(ctx context.Context, reg *models.Registration) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.Confirmation(ctx, reg); err != nil {
		log.Printf("notify: confirmation for %s failed: %v", reg.RegistrationID, err)
		return false
	}
	return true
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Registration, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every registration, newest first.
func (s *Service) List(ctx context.Context) ([]models.Registration, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) ListByEmail(ctx context.Context, email string) ([]models.Registration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email", "is required")
	}
	return s.repo.FindByEmail(ctx, email)
}

// UpdateStatus moves a registration to a new lifecycle state. Unknown values
// are validation errors; disallowed moves are ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id uint, raw string) (*models.Registration, error) {
	next, err := models.ParseStatus(raw)
	if err != nil {
		return nil, invalid("status", "must be one of pending, confirmed, cancelled")
	}
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(cur.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, next)
	}
	reg, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}
	log.Printf("registration %s status %s -> %s", reg.RegistrationID, cur.Status, next)
	return reg, nil
}

// UpdatePaymentStatus records the payment flag set by an admin.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id uint, raw string) (*models.Registration, error) {
	ps := strings.ToLower(strings.TrimSpace(raw))
	if ps == "" {
		return nil, invalid("paymentStatus", "is required")
	}
	if len(ps) > 32 {
		return nil, invalid("paymentStatus", "must be at most 32 characters")
	}
	return s.repo.UpdatePaymentStatus(ctx, id, ps)
}

// Delete removes a registration permanently.
func (s *Service) Delete(ctx context.Context, id uint) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	log.Printf("registration id=%d deleted", id)
	return nil
}

// Lookup finds the registration holding ticket whose child has exactly
// lastName. Both inputs are trimmed. Any mismatch is ErrNotFound, with no
// hint about which part failed.
func (s *Service) Lookup(ctx context.Context, ticket, lastName string) (*models.Registration, error) {
	ticket = strings.TrimSpace(ticket)
	lastName = strings.TrimSpace(lastName)

	var missing []FieldError
	if ticket == "" {
		missing = append(missing, FieldError{Field: "ticketNumber", Message: "is required"})
	}
	if lastName == "" {
		missing = append(missing, FieldError{Field: "lastName", Message: "is required"})
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	reg, err := s.repo.FindByTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	// Both fields are compared here as well: MySQL's default collation
	// matches the ticket case-insensitively.
	if reg.RegistrationID != ticket || reg.ChildLastName != lastName {
		return nil, ErrNotFound
	}
	return reg, nil
}

// SendReminder emails a payment reminder for a registration whose payment
// is still outstanding.
func (s *Service) SendReminder(ctx context.Context, id uint) (*models.Registration, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.PaymentStatus == models.PaymentCompleted {
		return reg, ErrPaymentSettled
	}
	if s.notifier == nil {
		return reg, fmt.Errorf("%w: no notifier configured", ErrNotification)
	}
	if err := s.notifier.PaymentReminder(ctx, reg); err != nil {
		log.Printf("notify: reminder for %s failed: %v", reg.RegistrationID, err)
		return reg, fmt.Errorf("%w: %v", ErrNotification, err)
	}
	return reg, nil
}

// ReminderResult is the outcome for one id of a bulk reminder run.
// RegistrationID echoes the id exactly as the caller sent it.
type ReminderResult struct {
	RegistrationID json.RawMessage `json:"registrationId"`
	Success        bool            `json:"success"`
	ChildName      string          `json:"childName,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type BulkResult struct {
	Message string           `json:"message"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []ReminderResult `json:"results"`
}

// BulkReminder sends reminders one id at a time and keeps going past
// failures, including ids that do not parse.
func (s *Service) BulkReminder(ctx context.Context, ids []json.RawMessage) (*BulkResult, error) {
	if len(ids) == 0 {
		return nil, invalid("registrationIds", "must be a non-empty list")
	}
	out := &BulkResult{Results: make([]ReminderResult, 0, len(ids))}
	for _, raw := range ids {
		res := ReminderResult{RegistrationID: raw}
		if id, ok := ParseRegistrationID(raw); !ok {
			res.Error = "Invalid registration ID"
		} else {
			reg, err := s.SendReminder(ctx, id)
			switch {
			case err == nil:
				res.Success = true
				res.ChildName = reg.ChildName()
			case errors.Is(err, ErrNotFound):
				res.Error = "Registration not found"
			case errors.Is(err, ErrPaymentSettled):
				res.Error = "Payment already completed"
			default:
				res.Error = "Failed to send email"
			}
		}
		if res.Success {
			out.Sent++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, res)
	}
	out.Message = fmt.Sprintf("Sent %d out of %d payment reminders", out.Sent, len(ids))
	return out, nil
}

// ParseRegistrationID accepts a positive integer id given as a JSON number
// or a numeric JSON string.
func ParseRegistrationID(raw json.RawMessage) (uint, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		if x < 1 || x > math.MaxUint32 || x != math.Trunc(x) {
			return 0, false
		}
		return uint(x), true
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(x), 10, 32)
		if err != nil || n == 0 {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}
