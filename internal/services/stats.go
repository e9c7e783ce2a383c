package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
)

type ProgramStat struct {
	Program  string `json:"program"`
	Name     string `json:"name,omitempty"`
	Count    int64  `json:"count"`
	Capacity int    `json:"capacity"`
}

// Stats is the admin dashboard summary. Revenue counts completed payments
// only.
type Stats struct {
	TotalRegistrations int64         `json:"totalRegistrations"`
	TotalRevenue       float64       `json:"totalRevenue"`
	TotalRevenueCents  int64         `json:"totalRevenueCents"`
	PendingReviews     int64         `json:"pendingReviews"`
	ProgramStats       []ProgramStat `json:"programStats"`
}

// Stats recomputes the summary from the full table.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	pending, err := s.repo.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	fees, err := s.repo.CompletedFees(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.ProgramCounts(ctx)
	if err != nil {
		return nil, err
	}

	var cents int64
	for _, fee := range fees {
		c, err := ParseCents(fee)
		if err != nil {
			return nil, fmt.Errorf("fee %q: %w", fee, err)
		}
		cents += c
	}

	return &Stats{
		TotalRegistrations: total,
		TotalRevenue:       float64(cents) / 100,
		TotalRevenueCents:  cents,
		PendingReviews:     pending,
		ProgramStats:       programBreakdown(counts),
	}, nil
}

// programBreakdown lists catalog programs in catalog order, zero counts
// included, then folds everything else into the unknown bucket.
func programBreakdown(counts map[string]int64) []ProgramStat {
	out := make([]ProgramStat, 0, len(catalog)+1)
	var unknown int64
	for program, n := range counts {
		if _, ok := LookupProgram(program); !ok {
			unknown += n
		}
	}
	for _, p := range catalog {
		out = append(out, ProgramStat{Program: p.ID, Name: p.Name, Count: counts[p.ID], Capacity: p.Capacity})
	}
	if unknown > 0 {
		out = append(out, ProgramStat{Program: UnknownProgram, Count: unknown})
	}
	return out
}

// ParseCents converts a fixed-point amount such as "450.00" or "12.5" to
// integer cents.
func ParseCents(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(amount, "-")
	amount = strings.TrimPrefix(amount, "-")

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("more than two decimal places")
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, err
	}
	c := int64(w)*100 + int64(f)
	if neg {
		c = -c
	}
	return c, nil
}

// FormatCents renders cents as a two-decimal amount.
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
