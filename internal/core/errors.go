package core

import "errors"

// Domain error taxonomy. Services wrap these sentinels with context via
// fmt.Errorf("...: %w", ...); callers match with errors.Is and the web
// adapter maps them to HTTP status codes.
var (
	// ErrInvalidTransition is returned for any state-machine move not in the
	// allowed-transition table, including a second writer losing an optimistic
	// status race.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOrderLocked is returned when mutating an order whose status forbids
	// edits (INVOICED or CANCELLED).
	ErrOrderLocked = errors.New("order is locked")

	// ErrDDTLocked is returned when editing or deleting a delivery note that
	// is linked to an invoice, or deleting one that already shipped.
	ErrDDTLocked = errors.New("delivery note is locked")

	// ErrOrderNotReady is returned when deriving a delivery note from an
	// order that is not IN_PREPARATION.
	ErrOrderNotReady = errors.New("order is not ready for delivery")

	// ErrDDTAlreadyInvoiced is returned when an invoice references a delivery
	// note already consumed by another invoice.
	ErrDDTAlreadyInvoiced = errors.New("delivery note already invoiced")

	// ErrOverPayment is returned when a payment would push paid_amount past
	// the document total.
	ErrOverPayment = errors.New("payment exceeds outstanding balance")

	// ErrNoOrdersForDate is a valid-but-empty condition: no open orders exist
	// for the requested delivery date. The app layer reports it as a
	// structured result, not a failure.
	ErrNoOrdersForDate = errors.New("no open orders for date")

	// ErrNoSupplierAssigned is returned when a shopping list has zero lines
	// with a supplier assigned, so no purchase order can be created.
	ErrNoSupplierAssigned = errors.New("no supplier assigned on any line")

	// ErrSequenceExhausted is the theoretical bound of a number sequence.
	ErrSequenceExhausted = errors.New("number sequence exhausted")

	// ErrInvalidPeriod is returned for a numbering year outside the
	// configured range.
	ErrInvalidPeriod = errors.New("year outside valid numbering period")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification is returned after the bounded internal retry
	// on store contention is exhausted.
	ErrConcurrentModification = errors.New("concurrent modification")
)
