// Package store persists registrations with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
	"github.com/keerthik-19/summer-camp-registration/internal/services"
)

// Store is the registration record store. It does not judge status values;
// lifecycle rules live in the service layer.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(conn *gorm.DB) *Store {
	return &Store{db: conn, now: time.Now}
}

// Create inserts reg and fills its generated fields. Unique-key violations
// are reported as ErrDuplicateTicket or ErrDuplicateRegistration.
func (s *Store) Create(ctx context.Context, reg *models.Registration) error {
	err := s.db.WithContext(ctx).Create(reg).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The translated error no longer says which index fired.
		if taken, _ := s.ticketTaken(ctx, reg.RegistrationID, reg.ID); taken {
			return services.ErrDuplicateTicket
		}
		return services.ErrDuplicateRegistration
	}
	return fmt.Errorf("insert registration: %w", err)
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	if err := s.db.WithContext(ctx).First(&reg, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reg, nil
}

// GetAll lists every registration, newest first.
func (s *Store) GetAll(ctx context.Context) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *Store) FindByTicket(ctx context.Context, ticket string) (*models.Registration, error) {
	var reg models.Registration
	if err := s.db.WithContext(ctx).Where("registration_id = ?", ticket).First(&reg).Error; err != nil {
		return nil, notFound(err)
	}
	return &reg, nil
}

// FindByEmail lists the registrations filed under a parent email, newest first.
func (s *Store) FindByEmail(ctx context.Context, email string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Where("parent_email = ?", email).
		Order("created_at DESC").Order("id DESC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("list by email: %w", err)
	}
	return regs, nil
}

func (s *Store) TicketExists(ctx context.Context, ticket string) (bool, error) {
	return s.ticketTaken(ctx, ticket, 0)
}

func (s *Store) ticketTaken(ctx context.Context, ticket string, exceptID uint) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Registration{}).Where("registration_id = ?", ticket)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatus overwrites status and refreshes updated_at, which always moves
// forward even when two writes land within the same clock tick.
func (s *Store) UpdateStatus(ctx context.Context, id uint, status models.Status) (*models.Registration, error) {
	return s.update(ctx, id, func(reg *models.Registration) map[string]any {
		reg.Status = status
		return map[string]any{"status": status}
	})
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id uint, paymentStatus string) (*models.Registration, error) {
	return s.update(ctx, id, func(reg *models.Registration) map[string]any {
		reg.PaymentStatus = paymentStatus
		return map[string]any{"payment_status": paymentStatus}
	})
}

func (s *Store) update(ctx context.Context, id uint, apply func(*models.Registration) map[string]any) (*models.Registration, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reg, id).Error; err != nil {
			return notFound(err)
		}
		cols := apply(&reg)
		reg.UpdatedAt = s.nextUpdatedAt(reg.UpdatedAt)
		cols["updated_at"] = reg.UpdatedAt
		return tx.Model(&models.Registration{}).Where("id = ?", id).UpdateColumns(cols).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// nextUpdatedAt stays at least a millisecond ahead of prev so the value
// survives DATETIME(3) truncation on MySQL.
func (s *Store) nextUpdatedAt(prev time.Time) time.Time {
	now := s.now()
	if now.Sub(prev) < time.Millisecond {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// Delete hard-deletes a registration. A missing id reports false.
func (s *Store) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Registration{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete registration: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).Count(&n).Error
	return n, err
}

func (s *Store) CountByStatus(ctx context.Context, status models.Status) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// ProgramCounts groups registrations by program value.
func (s *Store) ProgramCounts(ctx context.Context) (map[string]int64, error) {
	type agg struct {
		Program string
		N       int64
	}
	var rows []agg
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Select("program, COUNT(*) AS n").
		Group("program").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("program counts: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Program] += r.N
	}
	return out, nil
}

// CompletedFees returns the fee of every registration whose payment is
// completed. Summing happens in Go so decimal strings never pass through
// floating point.
func (s *Store) CompletedFees(ctx context.Context) ([]string, error) {
	var fees []string
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("payment_status = ?", models.PaymentCompleted).
		Pluck("registration_fee", &fees).Error
	if err != nil {
		return nil, fmt.Errorf("completed fees: %w", err)
	}
	return fees, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}
