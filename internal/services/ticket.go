package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// TicketPrefix marks tickets issued for this camp season.
const TicketPrefix = "BOF2025-"

// TicketPattern matches every ticket the generator can produce.
var TicketPattern = regexp.MustCompile(`^BOF2025-\d{9}$`)

const defaultTicketAttempts = 20

// TicketGenerator issues public ticket numbers: the prefix, the last six
// digits of the Unix millisecond clock, then three random digits.
type TicketGenerator struct {
	Now         func() time.Time
	Intn        func(n int) int
	Exists      func(ctx context.Context, ticket string) (bool, error)
	MaxAttempts int
}

func NewTicketGenerator(exists func(ctx context.Context, ticket string) (bool, error)) *TicketGenerator {
	return &TicketGenerator{
		Now:         time.Now,
		Intn:        rand.IntN,
		Exists:      exists,
		MaxAttempts: defaultTicketAttempts,
	}
}

// FormatTicket renders the ticket for a millisecond timestamp and a random
// value in [0, 1000).
func FormatTicket(unixMilli int64, random int) string {
	if unixMilli < 0 {
		unixMilli = -unixMilli
	}
	if random < 0 {
		random = -random
	}
	return fmt.Sprintf("%s%06d%03d", TicketPrefix, unixMilli%1_000_000, random%1000)
}

// Next returns a ticket the store does not know yet. Collisions are retried
// a bounded number of times, then reported as ErrDuplicateTicket.
func (g *TicketGenerator) Next(ctx context.Context) (string, error) {
	attempts := g.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		ticket := FormatTicket(g.Now().UnixMilli(), g.Intn(1000))
		if g.Exists == nil {
			return ticket, nil
		}
		taken, err := g.Exists(ctx, ticket)
		if err != nil {
			return "", fmt.Errorf("check ticket: %w", err)
		}
		if !taken {
			return ticket, nil
		}
	}
	return "", ErrDuplicateTicket
}
