package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one recorded income or expense event.
// Entries are immutable once written, except that a merge re-parents them to
// the surviving group; amount, author and timestamp never change.
type LedgerEntry struct {
	// ID is the monotonically increasing entry identifier. It breaks ties
	// between entries created in the same second, so history ordering is
	// deterministic.
	ID int64

	// GroupID is the group that owns this entry.
	GroupID string

	// AuthorID is the person who recorded the entry.
	AuthorID int64

	// AuthorName is the author's display name at recording time.
	AuthorName string

	// Amount is the signed amount: positive for income, negative for expense.
	Amount decimal.Decimal

	// Description is free text attached to the entry.
	Description string

	// CreatedAt is when the entry was recorded.
	CreatedAt time.Time
}

// Income reports whether the entry is an income event.
func (e *LedgerEntry) Income() bool {
	return e.Amount.Sign() > 0
}
