package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mzotov/famwallet/internal/models"
)

// AppendEntry records a signed ledger entry and updates the owning group's
// cached balance in the same transaction. A partial outcome (entry without
// balance update or vice versa) can never be observed.
func (s *SQLiteStore) AppendEntry(ctx context.Context, groupID string, authorID int64, amount decimal.Decimal, description string) (*models.LedgerEntry, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("refusing zero ledger amount: %w", models.ErrNonPositiveAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	group, err := getGroupTx(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	var authorName string
	err = tx.QueryRowContext(ctx,
		"SELECT name FROM members WHERE person_id = ?", authorID,
	).Scan(&authorName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("author not found: %d", authorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO ledger_entries (group_id, author_id, author_name, amount, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		groupID, authorID, authorName, amount.String(), description, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read entry id: %w", err)
	}

	newBalance := group.Balance.Add(amount)
	_, err = tx.ExecContext(ctx,
		"UPDATE groups SET balance = ?, updated_at = ? WHERE id = ?",
		newBalance.String(), now, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.LedgerEntry{
		ID:          entryID,
		GroupID:     groupID,
		AuthorID:    authorID,
		AuthorName:  authorName,
		Amount:      amount,
		Description: description,
		CreatedAt:   unixTime(now),
	}, nil
}

// RecentEntries returns up to limit entries for a group, newest first.
// Entries sharing a creation second are ordered by ascending entry ID so the
// result is deterministic.
func (s *SQLiteStore) RecentEntries(ctx context.Context, groupID string, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, author_id, author_name, amount, description, created_at
		 FROM ledger_entries
		 WHERE group_id = ?
		 ORDER BY created_at DESC, id ASC
		 LIMIT ?`,
		groupID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var amount string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.AuthorID, &e.AuthorName, &amount, &e.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Amount, err = parseAmount(amount)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = unixTime(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}
