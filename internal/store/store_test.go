package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
	"github.com/keerthik-19/summer-camp-registration/internal/db"
	"github.com/keerthik-19/summer-camp-registration/internal/models"
	"github.com/keerthik-19/summer-camp-registration/internal/services"
	"github.com/keerthik-19/summer-camp-registration/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	conn, err := db.Open(config.DBConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "camp.db")})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return store.New(conn)
}

var seq int

func fixture(first, last, program string) *models.Registration {
	seq++
	return &models.Registration{
		ChildFirstName:           first,
		ChildLastName:            last,
		DateOfBirth:              "2017-04-02",
		Age:                      8,
		Gender:                   "female",
		GradeCompleting:          "2",
		ParentGuardianName:       "Priya " + last,
		Relationship:             "mother",
		ParentEmail:              "parent@example.com",
		ParentPhone:              "555-0100",
		HomeAddress:              "1 Main St",
		City:                     "Buford",
		State:                    "GA",
		ZipCode:                  "30518",
		EmergencyContactName:     "Raj " + last,
		EmergencyContactPhone:    "555-0101",
		EmergencyContactRelation: "uncle",
		Program:                  program,
		SessionDates:             "June 15 - July 15",
		PickupAuthorization:      "Priya " + last,
		TermsAccepted:            true,
		RegistrationFee:          "450.00",
		PaymentMethod:            "check",
		PaymentStatus:            models.PaymentPending,
		RegistrationID:           fmt.Sprintf("BOF2025-%09d", seq),
		Status:                   models.StatusPending,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	reg := fixture("Aria", "Patel", "cultural-5-9")
	require.NoError(t, s.Create(ctx, reg))
	require.NotZero(t, reg.ID)
	require.False(t, reg.CreatedAt.IsZero())

	got, err := s.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	require.Equal(t, reg.RegistrationID, got.RegistrationID)
	require.Equal(t, models.StatusPending, got.Status)

	_, err = s.GetByID(ctx, reg.ID+100)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestCreate_DuplicateChildProgram(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, fixture("Aria", "Patel", "cultural-5-9")))
	err := s.Create(ctx, fixture("Aria", "Patel", "cultural-5-9"))
	require.ErrorIs(t, err, services.ErrDuplicateRegistration)
	require.ErrorIs(t, err, services.ErrConflict)

	// Same child in a different program is fine.
	require.NoError(t, s.Create(ctx, fixture("Aria", "Patel", "educational-8-12")))
}

func TestCreate_DuplicateTicket(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := fixture("Aria", "Patel", "cultural-5-9")
	require.NoError(t, s.Create(ctx, first))

	second := fixture("Dev", "Shah", "cultural-5-9")
	second.RegistrationID = first.RegistrationID
	err := s.Create(ctx, second)
	require.ErrorIs(t, err, services.ErrDuplicateTicket)

	exists, err := s.TicketExists(ctx, first.RegistrationID)
	require.NoError(t, err)
	require.True(t, exists)
	exists, err = s.TicketExists(ctx, "BOF2025-999999999")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestGetAll_NewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of creation order on purpose.
	for i, off := range []int{2, 0, 3, 1} {
		reg := fixture(fmt.Sprintf("Kid%d", i), "Order", "cultural-5-9")
		reg.CreatedAt = base.Add(time.Duration(off) * time.Hour)
		reg.UpdatedAt = reg.CreatedAt
		require.NoError(t, s.Create(ctx, reg))
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		require.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt),
			"row %d (%s) should be newer than row %d (%s)", i-1, all[i-1].CreatedAt, i, all[i].CreatedAt)
	}
}

func TestFindByTicketAndEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := fixture("Aria", "Patel", "cultural-5-9")
	b := fixture("Dev", "Patel", "leadership-12-15")
	b.ParentEmail = "other@example.com"
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	got, err := s.FindByTicket(ctx, b.RegistrationID)
	require.NoError(t, err)
	require.Equal(t, b.ID, got.ID)

	_, err = s.FindByTicket(ctx, "BOF2025-000000000")
	require.ErrorIs(t, err, services.ErrNotFound)

	list, err := s.FindByEmail(ctx, "parent@example.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, a.ID, list[0].ID)
}

func TestUpdateStatus_AdvancesUpdatedAt(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	reg := fixture("Aria", "Patel", "cultural-5-9")
	require.NoError(t, s.Create(ctx, reg))
	before, err := s.GetByID(ctx, reg.ID)
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, reg.ID, models.StatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, updated.Status)

	after, err := s.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, after.Status)
	require.True(t, after.UpdatedAt.After(before.UpdatedAt), "updatedAt %s should be after %s", after.UpdatedAt, before.UpdatedAt)

	// A second write in quick succession still moves forward.
	again, err := s.UpdateStatus(ctx, reg.ID, models.StatusConfirmed)
	require.NoError(t, err)
	require.True(t, again.UpdatedAt.After(after.UpdatedAt))

	_, err = s.UpdateStatus(ctx, reg.ID+100, models.StatusConfirmed)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdatePaymentStatus(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	reg := fixture("Aria", "Patel", "cultural-5-9")
	require.NoError(t, s.Create(ctx, reg))

	got, err := s.UpdatePaymentStatus(ctx, reg.ID, models.PaymentCompleted)
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, got.PaymentStatus)
	require.Equal(t, models.StatusPending, got.Status)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	reg := fixture("Aria", "Patel", "cultural-5-9")
	require.NoError(t, s.Create(ctx, reg))

	ok, err := s.Delete(ctx, reg.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Delete(ctx, reg.ID)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.GetByID(ctx, reg.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestAggregates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	paid := fixture("A", "One", "cultural-5-9")
	paid.PaymentStatus = models.PaymentCompleted
	paid.Status = models.StatusConfirmed
	require.NoError(t, s.Create(ctx, paid))
	require.NoError(t, s.Create(ctx, fixture("B", "Two", "cultural-5-9")))
	require.NoError(t, s.Create(ctx, fixture("C", "Three", "art-club")))

	counts, err := s.ProgramCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"cultural-5-9": 2, "art-club": 1}, counts)

	pending, err := s.CountByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.EqualValues(t, 2, pending)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)

	fees, err := s.CompletedFees(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"450.00"}, fees)
}
