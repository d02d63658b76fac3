package domain

import (
	"errors"
	"fmt"
)

// Reference kinds reported by NotFoundError.
const (
	KindCustomer = "customer"
	KindSalesRep = "sales_rep"
	KindProduct  = "product"
	KindOrder    = "order"
)

// NotFoundError identifies exactly which reference failed to resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidArgumentError rejects a request before any persistence attempt.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	// ErrWriteConflict signals a uniqueness violation on order_number. The
	// lifecycle controller recovers by re-allocating and retrying.
	ErrWriteConflict = errors.New("order number already taken")

	// ErrSequenceExhausted signals that the day's 4-digit sequence space is
	// used up. Never wrapped around.
	ErrSequenceExhausted = errors.New("daily order number sequence exhausted")

	// ErrStoreUnavailable wraps storage failures that are not conflicts.
	ErrStoreUnavailable = errors.New("order store unavailable")
)
