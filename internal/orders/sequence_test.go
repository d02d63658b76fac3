package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medsupply-io/backoffice/internal/domain"
)

type fakeNumberSource struct {
	last       string
	err        error
	seenPrefix string
}

func (s *fakeNumberSource) LastOrderNumber(_ context.Context, prefix string) (string, error) {
	s.seenPrefix = prefix
	return s.last, s.err
}

func TestSequenceAllocator_Next(t *testing.T) {
	day := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

	t.Run("starts at 0001 on an empty day", func(t *testing.T) {
		source := &fakeNumberSource{last: ""}
		allocator := NewSequenceAllocator(source)

		number, err := allocator.Next(context.Background(), day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if number != "ORD2603150001" {
			t.Errorf("expected ORD2603150001, got %s", number)
		}
		if source.seenPrefix != "ORD260315" {
			t.Errorf("expected prefix ORD260315, got %s", source.seenPrefix)
		}
	})

	t.Run("increments the greatest existing suffix", func(t *testing.T) {
		source := &fakeNumberSource{last: "ORD2603150042"}
		allocator := NewSequenceAllocator(source)

		number, err := allocator.Next(context.Background(), day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if number != "ORD2603150043" {
			t.Errorf("expected ORD2603150043, got %s", number)
		}
	})

	t.Run("zero pads the suffix", func(t *testing.T) {
		source := &fakeNumberSource{last: "ORD2603150009"}
		allocator := NewSequenceAllocator(source)

		number, err := allocator.Next(context.Background(), day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if number != "ORD2603150010" {
			t.Errorf("expected ORD2603150010, got %s", number)
		}
	})

	t.Run("fails loudly when the day is exhausted", func(t *testing.T) {
		source := &fakeNumberSource{last: "ORD2603159999"}
		allocator := NewSequenceAllocator(source)

		_, err := allocator.Next(context.Background(), day)
		if !errors.Is(err, domain.ErrSequenceExhausted) {
			t.Fatalf("expected ErrSequenceExhausted, got %v", err)
		}
	})

	t.Run("rejects a malformed stored number", func(t *testing.T) {
		source := &fakeNumberSource{last: "ORD260315XXXX"}
		allocator := NewSequenceAllocator(source)

		if _, err := allocator.Next(context.Background(), day); err == nil {
			t.Fatal("expected error for malformed order number")
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := &fakeNumberSource{err: domain.ErrStoreUnavailable}
		allocator := NewSequenceAllocator(source)

		_, err := allocator.Next(context.Background(), day)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
	})
}

func TestDayPrefix(t *testing.T) {
	prefix := DayPrefix(time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC))
	if prefix != "ORD251231" {
		t.Errorf("expected ORD251231, got %s", prefix)
	}
}
