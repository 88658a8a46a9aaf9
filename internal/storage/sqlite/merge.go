package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mzotov/famwallet/internal/models"
)

// MergeGroups folds the joining member's group (the source) into the group
// that opened the linking session identified by code (the target).
//
// The whole operation is one transaction: balance addition, bulk re-parenting
// of ledger entries and members, removal of the emptied source group and
// consumption of the session either all commit or all roll back. Entries and
// members are re-parented by a single bulk group-ID reassignment, never by
// walking object references.
func (s *SQLiteStore) MergeGroups(ctx context.Context, joiningMemberID int64, code string) (*models.MergeResult, error) {
	code = normalizeCode(code)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := scanMember(tx.QueryRowContext(ctx,
		"SELECT person_id, group_id, name, created_at FROM members WHERE person_id = ?",
		joiningMemberID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member not found: %d", joiningMemberID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get joining member: %w", err)
	}

	session := &models.LinkingSession{}
	var createdAt, expiresAt int64
	err = tx.QueryRowContext(ctx,
		"SELECT code, group_id, member_id, created_at, expires_at, state FROM linking_sessions WHERE code = ?",
		code,
	).Scan(&session.Code, &session.GroupID, &session.MemberID, &createdAt, &expiresAt, &session.State)
	if err == sql.ErrNoRows {
		return nil, models.ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.CreatedAt = unixTime(createdAt)
	session.ExpiresAt = unixTime(expiresAt)

	switch session.State {
	case models.SessionConsumed:
		return nil, models.ErrCodeAlreadyUsed
	case models.SessionExpired:
		return nil, models.ErrCodeExpired
	case models.SessionCancelled:
		// A cancelled invitation is gone; callers see no difference from a
		// code that never existed.
		return nil, models.ErrInvalidCode
	}

	now := time.Now()
	if session.Expired(now) {
		// Persist the lazy expiry transition even though the merge fails:
		// every later lookup must keep reporting the code as expired.
		_, err = tx.ExecContext(ctx,
			"UPDATE linking_sessions SET state = ? WHERE code = ? AND state = ?",
			models.SessionExpired, code, models.SessionOpen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to expire session: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, models.ErrCodeExpired
	}

	if session.GroupID == member.GroupID {
		// The session stays open: the inviter may still be joined by
		// someone else.
		return nil, models.ErrSelfLink
	}

	// Check-and-set consume. Exactly one concurrent join can flip the state;
	// the loser observes zero affected rows.
	res, err := tx.ExecContext(ctx,
		"UPDATE linking_sessions SET state = ? WHERE code = ? AND state = ?",
		models.SessionConsumed, code, models.SessionOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, models.ErrCodeAlreadyUsed
	}

	source, err := getGroupTx(ctx, tx, member.GroupID)
	if err != nil {
		return nil, err
	}
	target, err := getGroupTx(ctx, tx, session.GroupID)
	if err != nil {
		return nil, err
	}

	nowUnix := now.Unix()
	target.Balance = target.Balance.Add(source.Balance)
	target.UpdatedAt = unixTime(nowUnix)
	_, err = tx.ExecContext(ctx,
		"UPDATE groups SET balance = ?, updated_at = ? WHERE id = ?",
		target.Balance.String(), nowUnix, target.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update target balance: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE ledger_entries SET group_id = ? WHERE group_id = ?",
		target.ID, source.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to move ledger entries: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE members SET group_id = ? WHERE group_id = ?",
		target.ID, source.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to move members: %w", err)
	}

	// Open invitations into the retired source can no longer be honored.
	_, err = tx.ExecContext(ctx,
		"UPDATE linking_sessions SET state = ? WHERE group_id = ? AND state = ?",
		models.SessionCancelled, source.ID, models.SessionOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel source sessions: %w", err)
	}

	// Everything the source owned has moved; retire it for good so it can
	// never be returned as a live group again.
	_, err = tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to retire source group: %w", err)
	}

	var memberCount int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM members WHERE group_id = ?", target.ID,
	).Scan(&memberCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.MergeResult{Group: target, MemberCount: memberCount}, nil
}
