package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Group represents a shared family wallet.
// A group is created when its first member registers and is destroyed only
// when a merge moves its last member into another group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Anna's family").
	Name string

	// Balance is the current wallet balance. It equals the sum of the signed
	// amounts of all ledger entries owned by the group and may be negative.
	Balance decimal.Decimal

	// CreatedAt is when the group was created.
	CreatedAt time.Time

	// UpdatedAt is when the balance was last modified.
	UpdatedAt time.Time
}

// Member represents a person attached to exactly one group.
type Member struct {
	// PersonID is the stable, externally assigned person identifier
	// (the Telegram user ID).
	PersonID int64

	// GroupID is the group the member currently belongs to.
	// It is the only field that changes after creation: a merge rewrites it.
	GroupID string

	// Name is the display name of the member.
	Name string

	// CreatedAt is when the member first contacted the bot.
	CreatedAt time.Time
}

// MergeResult describes the outcome of a successful wallet merge.
type MergeResult struct {
	// Group is the surviving group that absorbed the joining member's wallet.
	Group *Group

	// MemberCount is the number of members in the surviving group after
	// the merge.
	MemberCount int
}
