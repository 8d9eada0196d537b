package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Typed service errors. Controllers map these onto HTTP statuses and the
// response envelope's error codes; none of them leaves partial writes
// behind (the failing operation's transaction rolls back).

// ValidationError means the input was malformed or incomplete (empty item
// list, missing field, unavailable menu item).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError means a referenced order/table/payment/menu item does not
// exist.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InvalidTransitionError means the requested status change violates the
// state graph.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q", e.From, e.To)
}

// AmountMismatchError means the declared payment amount does not reconcile
// with the order total. It carries both figures so the caller can show a
// precise diagnostic.
type AmountMismatchError struct {
	Expected decimal.Decimal
	Received decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount %s does not match order total %s",
		e.Received.StringFixed(2), e.Expected.StringFixed(2))
}

// SplitMismatchError means the split amounts do not sum to the order total.
type SplitMismatchError struct {
	Expected decimal.Decimal
	Received decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("split amounts sum to %s, expected %s",
		e.Received.StringFixed(2), e.Expected.StringFixed(2))
}

// ConflictError means the operation is forbidden by the current state
// (deleting a paid order, settling a non-delivered one, deactivating an
// occupied table).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// IsExpected reports whether err is one of the typed outcomes above, as
// opposed to an unexpected storage failure that should be logged and
// surfaced as a generic internal error.
func IsExpected(err error) bool {
	var (
		ve *ValidationError
		nf *NotFoundError
		it *InvalidTransitionError
		am *AmountMismatchError
		sm *SplitMismatchError
		ce *ConflictError
	)
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &it) ||
		errors.As(err, &am) || errors.As(err, &sm) || errors.As(err, &ce)
}
