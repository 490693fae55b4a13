package domain

import (
	"context"
	"errors"
)

// Verdict is the outcome of a successful fulfillment call.
type Verdict string

const (
	// VerdictFulfilled means this call granted ownership.
	VerdictFulfilled Verdict = "fulfilled"
	// VerdictAlreadyHandled means an earlier call for the same session
	// already granted ownership; callers treat this as success.
	VerdictAlreadyHandled Verdict = "already_handled"
)

// Result carries the verdict and the session fields it was derived from.
type Result struct {
	Verdict   Verdict
	SessionID string
	UserID    string
	ProductID string
	Quantity  int64
}

type Service interface {
	// Fulfill converts a completed payment session into an ownership grant
	// exactly once. Rejections are returned as the Err* sentinels below.
	Fulfill(ctx context.Context, sessionID string) (*Result, error)
}

// SessionResolver fetches the full checkout session from the provider,
// expanding line items.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*Session, error)
}

var (
	ErrInvalidSession   = errors.New("invalid_session")
	ErrLookupFailed     = errors.New("lookup_failed")
	ErrUnpaid           = errors.New("unpaid")
	ErrMissingMetadata  = errors.New("missing_metadata")
	ErrMissingLineItems = errors.New("missing_line_items")
)

// IsRejection reports whether err is one of the engine's rejection verdicts,
// as opposed to an internal failure.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidSession),
		errors.Is(err, ErrLookupFailed),
		errors.Is(err, ErrUnpaid),
		errors.Is(err, ErrMissingMetadata),
		errors.Is(err, ErrMissingLineItems):
		return true
	default:
		return false
	}
}
