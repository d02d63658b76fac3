package orders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/medsupply-io/backoffice/internal/domain"
)

const (
	orderNumberPrefix = "ORD"
	maxDailySequence  = 9999
)

// NumberSource reads the greatest persisted order number with a given day
// prefix, or "" when no order exists for that day.
type NumberSource interface {
	LastOrderNumber(ctx context.Context, prefix string) (string, error)
}

// SequenceAllocator derives the next order number for a calendar day.
// Allocation is a plain read; uniqueness is enforced by the store's unique
// index, and the lifecycle controller re-allocates on conflict.
type SequenceAllocator struct {
	source NumberSource
}

func NewSequenceAllocator(source NumberSource) *SequenceAllocator {
	return &SequenceAllocator{source: source}
}

// DayPrefix returns the ORD<YY><MM><DD> prefix for a day.
func DayPrefix(day time.Time) string {
	return orderNumberPrefix + day.Format("060102")
}

// Next returns the next free order number for the given day, starting at
// 0001. The 4-digit suffix never wraps: past 9999 the allocator fails with
// ErrSequenceExhausted.
func (a *SequenceAllocator) Next(ctx context.Context, day time.Time) (string, error) {
	prefix := DayPrefix(day)

	last, err := a.source.LastOrderNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("read last order number: %w", err)
	}

	seq := 1
	if last != "" {
		n, err := strconv.Atoi(last[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("malformed order number %q: %w", last, err)
		}
		seq = n + 1
	}

	if seq > maxDailySequence {
		return "", domain.ErrSequenceExhausted
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
