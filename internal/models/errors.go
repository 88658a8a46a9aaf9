package models

import "errors"

// Domain errors returned by the linking and ledger operations. All of these
// are expected, user-recoverable outcomes: the presentation layer re-prompts
// instead of crashing. Storage failures are the only hard errors and are
// returned wrapped, not as sentinels.
var (
	// ErrInvalidCode means the linking code is unknown.
	ErrInvalidCode = errors.New("linking code not found")

	// ErrCodeExpired means the linking code exists but its TTL has passed.
	ErrCodeExpired = errors.New("linking code expired")

	// ErrCodeAlreadyUsed means the linking code was already consumed,
	// either by an earlier merge or by losing a concurrent consumption race.
	ErrCodeAlreadyUsed = errors.New("linking code already used")

	// ErrSelfLink means a member tried to merge a group into itself,
	// e.g. by consuming their own invitation code.
	ErrSelfLink = errors.New("cannot link a wallet to itself")

	// ErrNonPositiveAmount means a reported amount was zero or negative
	// before signing. Callers validate input, but the core rejects it too.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrNoOpenSession means the member has no open invitation to cancel.
	ErrNoOpenSession = errors.New("no open linking session")
)
