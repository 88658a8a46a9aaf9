package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mzotov/famwallet/internal/models"
)

// GetOrCreateMember returns the member for the given person, creating the
// member together with a fresh singleton group on first contact.
func (s *SQLiteStore) GetOrCreateMember(ctx context.Context, personID int64, name string) (*models.Member, *models.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := scanMember(tx.QueryRowContext(ctx,
		"SELECT person_id, group_id, name, created_at FROM members WHERE person_id = ?",
		personID,
	))
	if err != nil && err != sql.ErrNoRows {
		return nil, nil, fmt.Errorf("failed to get member: %w", err)
	}

	if err == sql.ErrNoRows {
		now := time.Now().Unix()
		group := &models.Group{
			ID:        uuid.New().String(),
			Name:      groupNameFor(name, personID),
			Balance:   decimal.Zero,
			CreatedAt: unixTime(now),
			UpdatedAt: unixTime(now),
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO groups (id, name, balance, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			group.ID, group.Name, group.Balance.String(), now, now,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create group: %w", err)
		}

		member = &models.Member{
			PersonID:  personID,
			GroupID:   group.ID,
			Name:      name,
			CreatedAt: unixTime(now),
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO members (person_id, group_id, name, created_at) VALUES (?, ?, ?, ?)",
			member.PersonID, member.GroupID, member.Name, now,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create member: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return member, group, nil
	}

	group, err := getGroupTx(ctx, tx, member.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return member, group, nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

// ListMembers returns the members of a group ordered by join time, ties
// broken by person ID.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	return s.queryMembers(ctx,
		"SELECT person_id, group_id, name, created_at FROM members WHERE group_id = ? ORDER BY created_at, person_id",
		groupID,
	)
}

// ListAllMembers returns every registered member.
func (s *SQLiteStore) ListAllMembers(ctx context.Context) ([]models.Member, error) {
	return s.queryMembers(ctx,
		"SELECT person_id, group_id, name, created_at FROM members ORDER BY person_id",
	)
}

func (s *SQLiteStore) queryMembers(ctx context.Context, query string, args ...any) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		var createdAt int64
		if err := rows.Scan(&m.PersonID, &m.GroupID, &m.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.CreatedAt = unixTime(createdAt)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// querier is the subset of *sql.DB and *sql.Tx used by shared lookups.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var balance string
	var createdAt, updatedAt int64
	err := q.QueryRowContext(ctx,
		"SELECT id, name, balance, created_at, updated_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &balance, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group not found: %s", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.Balance, err = parseAmount(balance)
	if err != nil {
		return nil, err
	}
	group.CreatedAt = unixTime(createdAt)
	group.UpdatedAt = unixTime(updatedAt)
	return group, nil
}

func getGroupTx(ctx context.Context, tx *sql.Tx, groupID string) (*models.Group, error) {
	return getGroup(ctx, tx, groupID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	m := &models.Member{}
	var createdAt int64
	if err := row.Scan(&m.PersonID, &m.GroupID, &m.Name, &createdAt); err != nil {
		return nil, err
	}
	m.CreatedAt = unixTime(createdAt)
	return m, nil
}

// groupNameFor builds the display name of a fresh singleton group.
func groupNameFor(memberName string, personID int64) string {
	if memberName == "" {
		return fmt.Sprintf("Family %d", personID)
	}
	return fmt.Sprintf("%s's family", memberName)
}
