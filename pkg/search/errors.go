package search

import (
	"errors"
	"fmt"
)

// Sentinel errors for the search core. Callers match with errors.Is.
var (
	// ErrInvalidInput indicates a malformed request (unknown mode, bad
	// filter) rejected before any I/O.
	ErrInvalidInput = errors.New("invalid search input")

	// ErrEmbeddingUnavailable indicates the embedding provider failed or
	// timed out. Hybrid searches recover from this by degrading to
	// keyword-only; pure semantic searches surface it as an explicit
	// unavailable status.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrRecordNotFound indicates a similarity lookup on a contract that
	// does not exist or has no stored embedding. Distinct from an empty
	// result set.
	ErrRecordNotFound = errors.New("contract not found or not embedded")

	// ErrStoreUnavailable indicates the backing record store or keyword
	// index is unreachable. Retryable server-side failure.
	ErrStoreUnavailable = errors.New("search store unavailable")
)

// Error wraps a search failure with the operation that produced it.
type Error struct {
	Op  string // Operation, e.g. "Search", "FindSimilar"
	Err error  // Underlying error, usually one of the sentinels
	Msg string // Optional human-readable detail
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}
