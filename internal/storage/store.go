// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mzotov/famwallet/internal/models"
)

// Store defines the interface for wallet storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Every multi-step mutation (ledger append plus balance update, the whole
// merge) executes as a single transaction inside the implementation; callers
// never observe partial state.
type Store interface {
	// GetOrCreateMember returns the member with the given person ID, creating
	// the member and a fresh singleton group on first contact. Idempotent:
	// repeated calls return the same member and group.
	GetOrCreateMember(ctx context.Context, personID int64, name string) (*models.Member, *models.Group, error)

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListMembers returns the members of a group ordered by join time,
	// ties broken by person ID.
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)

	// ListAllMembers returns every registered member. Used for reminder
	// fan-out.
	ListAllMembers(ctx context.Context) ([]models.Member, error)

	// AppendEntry records a signed ledger entry and updates the owning
	// group's balance in the same transaction. A zero amount is rejected.
	AppendEntry(ctx context.Context, groupID string, authorID int64, amount decimal.Decimal, description string) (*models.LedgerEntry, error)

	// RecentEntries returns up to limit entries for a group, newest first;
	// entries created in the same second are ordered by ascending entry ID.
	RecentEntries(ctx context.Context, groupID string, limit int) ([]models.LedgerEntry, error)

	// OpenSession creates a linking session for the member's group with the
	// given TTL, cancelling any previous open session of the same member.
	OpenSession(ctx context.Context, memberID int64, groupID string, ttl time.Duration) (*models.LinkingSession, error)

	// ResolveSession looks up a session by code (case-insensitive).
	// An open session past its deadline is transitioned to expired before
	// being returned; returns models.ErrInvalidCode for unknown codes.
	ResolveSession(ctx context.Context, code string) (*models.LinkingSession, error)

	// CancelSession cancels the member's open session, if any.
	// Returns models.ErrNoOpenSession when there is nothing to cancel.
	CancelSession(ctx context.Context, memberID int64) error

	// MergeGroups merges the joining member's group into the group that
	// opened the session identified by code. Balance, ledger entries and
	// members move to the target; the emptied source group is removed and
	// the session is consumed, all in one transaction.
	MergeGroups(ctx context.Context, joiningMemberID int64, code string) (*models.MergeResult, error)

	// Close releases any resources held by the store.
	Close() error
}
