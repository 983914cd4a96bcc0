package domain

import "errors"

var (
	ErrFeedUnavailable = errors.New("order feed unavailable")
	ErrFeedFormat      = errors.New("order feed returned an unexpected format")

	ErrMalformedOrder = errors.New("malformed order")

	ErrFulfillmentAuth        = errors.New("fulfillment api rejected credentials")
	ErrFulfillmentRequest     = errors.New("fulfillment api rejected request")
	ErrFulfillmentUnavailable = errors.New("fulfillment api unavailable")

	ErrLedgerCorrupt = errors.New("ledger store is corrupt")

	ErrUnsupportedValue = errors.New("unsupported value in request tree")

	// ErrCancelNotConfirmed is returned when the fulfillment api never
	// acknowledged a cancellation within the polling budget.
	ErrCancelNotConfirmed = errors.New("cancellation not confirmed")

	// ErrRunLocked means another run holds the run lock.
	ErrRunLocked = errors.New("another run is in progress")
)
