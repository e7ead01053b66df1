package errs

import (
	cr "github.com/cockroachdb/errors"
)

func New(msg string) error {
	return cr.New(msg)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Mark attaches a sentinel to err while the original cause stays inspectable
// via Unwrap. Marks live outside the stdlib Unwrap chain, so they are only
// visible through Is below, never through stdlib errors.Is.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Is reports whether err matches target, honoring marks as well as the
// regular wrap chain. Use this instead of stdlib errors.Is anywhere a
// sentinel may have been attached with Mark.
func Is(err, target error) bool {
	return cr.Is(err, target)
}
