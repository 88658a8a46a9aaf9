package models

import "time"

// SessionState is the lifecycle state of a linking session.
// Open is the only non-terminal state; there are no transitions out of
// Consumed, Expired or Cancelled.
type SessionState string

const (
	SessionOpen      SessionState = "open"
	SessionConsumed  SessionState = "consumed"
	SessionExpired   SessionState = "expired"
	SessionCancelled SessionState = "cancelled"
)

// LinkingSession is a short-lived invitation to merge another wallet into the
// originating group. At most one open session exists per inviting member;
// opening a new one cancels the previous.
type LinkingSession struct {
	// Code is the short human-typable token, stored uppercase and matched
	// case-insensitively.
	Code string

	// GroupID is the originating group, i.e. the merge target.
	GroupID string

	// MemberID is the inviting member.
	MemberID int64

	// CreatedAt is when the session was opened.
	CreatedAt time.Time

	// ExpiresAt is the fixed deadline after which the code is dead.
	ExpiresAt time.Time

	// State is the current lifecycle state.
	State SessionState
}

// Expired reports whether the session's deadline has passed at the given
// instant. It is a pure check; persisting the expired state happens lazily
// at lookup time in the store.
func (s *LinkingSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
