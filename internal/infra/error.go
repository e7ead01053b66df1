package infra

import (
	"errors"

	"cinema-reservation/internal/pkg/errs"
)

type RepositoryErrorKind string

// Infrastructure-specific error kinds. Callers use IsKind to distinguish a
// missing record from a transient storage failure; only the latter is safe to
// retry.
const (
	KindNotFound           RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure          RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey       RepositoryErrorKind = "DUPLICATE_KEY"
	KindForeignKeyViolated RepositoryErrorKind = "FOREIGN_KEY_VIOLATED"
	KindCacheFailure       RepositoryErrorKind = "CACHE_FAILURE"
)

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

func WrapRepoErr(kind RepositoryErrorKind, msg string, err error) error {
	if err != nil {
		err = errs.Wrap(err, msg)
	}
	return RepositoryError{Kind: kind, msg: msg, err: err}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether the failure is transient storage trouble rather
// than a definitive answer about the data.
func IsRetryable(err error) bool {
	return IsKind(err, KindDBFailure) || IsKind(err, KindCacheFailure)
}
