package errs

import "errors"

// Domain-specific sentinel errors shared between the reservation engine and
// its adapters. These are terminal for the request that triggered them;
// retrying without new input will fail again. Transient storage failures are
// reported as infra.RepositoryError instead and are safe to retry.
var (
	// Showing errors
	ErrShowingNotFound    = errors.New("showing not found")
	ErrShowingNotBookable = errors.New("showing not bookable")

	// Seat errors
	ErrSeatDoesNotExist = errors.New("seat does not exist")
	ErrSeatUnavailable  = errors.New("seat unavailable")

	// Hold errors
	ErrHoldNotFound = errors.New("hold not found")
	ErrHoldExpired  = errors.New("hold expired")
	ErrEmptySeatSet = errors.New("seat set must not be empty")

	// Booking errors
	ErrBookingNotFound    = errors.New("booking not found")
	ErrCancellationDenied = errors.New("cancellation denied")

	// Operation errors
	ErrStorageOperationFailed = errors.New("storage operation failed")
)
