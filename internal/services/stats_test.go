package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/keerthik-19/summer-camp-registration/internal/services"
)

func TestStats_RevenueCountsCompletedOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	names := []string{"Aria", "Dev", "Isha", "Kabir"}
	ids := make([]uint, len(names))
	for i, name := range names {
		in := ariaPatel()
		in.ChildFirstName = name
		if i == 3 {
			in.Program = "robotics"
		}
		reg, _, err := svc.Create(ctx, in)
		require.NoError(t, err)
		ids[i] = reg.ID
	}
	// Two paid, one of them confirmed.
	_, err := svc.UpdatePaymentStatus(ctx, ids[0], "completed")
	require.NoError(t, err)
	_, err = svc.UpdatePaymentStatus(ctx, ids[3], "completed")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, ids[0], "confirmed")
	require.NoError(t, err)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 4, st.TotalRegistrations)
	require.EqualValues(t, 90000, st.TotalRevenueCents)
	require.InDelta(t, 900.0, st.TotalRevenue, 0.001)
	require.EqualValues(t, 3, st.PendingReviews)

	require.Len(t, st.ProgramStats, 4)
	require.Equal(t, services.ProgramStat{Program: "cultural-5-9", Name: "Cultural Heritage & Values", Count: 3, Capacity: 60}, st.ProgramStats[0])
	require.Equal(t, "educational-8-12", st.ProgramStats[1].Program)
	require.Zero(t, st.ProgramStats[1].Count)
	require.Equal(t, 60, st.ProgramStats[1].Capacity)
	require.Equal(t, "leadership-12-15", st.ProgramStats[2].Program)
	require.Equal(t, 45, st.ProgramStats[2].Capacity)
	require.Equal(t, services.ProgramStat{Program: services.UnknownProgram, Count: 1}, st.ProgramStats[3])
}

func TestStats_Empty(t *testing.T) {
	svc, _, _ := newService(t)

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.TotalRegistrations)
	require.Zero(t, st.TotalRevenueCents)
	require.Len(t, st.ProgramStats, 3, "no unknown bucket without unknown programs")
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"450.00": 45000,
		"450":    45000,
		"12.5":   1250,
		".99":    99,
		"-3.10":  -310,
	}
	for in, want := range cases {
		got, err := services.ParseCents(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "abc", "1.234", "1.x"} {
		_, err := services.ParseCents(bad)
		require.Error(t, err, bad)
	}
}

func TestCents_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.Int64Range(-1_000_000_00, 1_000_000_00).Draw(t, "cents")
		got, err := services.ParseCents(services.FormatCents(c))
		if err != nil {
			t.Fatalf("parse %q: %v", services.FormatCents(c), err)
		}
		if got != c {
			t.Fatalf("round trip %d -> %q -> %d", c, services.FormatCents(c), got)
		}
	})
}
