package services

import "errors"

// Error taxonomy for the placement and distribution engine. Controllers map
// these onto HTTP status codes; everything else wraps one of them with %w.
var (
	// ErrNotFound means a referenced member, order or service does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReferral means a referral code resolved to no member.
	ErrInvalidReferral = errors.New("invalid referral code")

	// ErrInvalidOperation covers self-referral and similar rejected requests.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrAlreadyPlaced means the member already has a parent and cannot be
	// re-homed.
	ErrAlreadyPlaced = errors.New("member already placed")

	// ErrNoActiveRule means distribution was attempted with no active
	// commission rule. Distribution fails closed rather than paying zero.
	ErrNoActiveRule = errors.New("no active commission rule")

	// ErrCorruptTree means a walker hit a repeated ancestor/descendant id.
	// The parent relation is acyclic by construction, so this only fires on
	// corrupted data.
	ErrCorruptTree = errors.New("referral tree corrupt")

	// ErrConcurrencyConflict means a concurrent signup won the slot this
	// placement targeted. The resolver retries the search a bounded number
	// of times before surfacing it.
	ErrConcurrencyConflict = errors.New("placement slot conflict")

	// ErrTransactionUnsupported is reported by the capability probe on
	// standalone deployments. It selects the sequential execution strategy
	// and is never returned to API callers.
	ErrTransactionUnsupported = errors.New("transactions unsupported by storage backend")
)
