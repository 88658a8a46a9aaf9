package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mzotov/famwallet/internal/models"
)

// codeAlphabet excludes the easily confused characters 0/O and 1/I.
// Six characters from 32 symbols give exactly 30 bits of entropy, which makes
// guessing a live code within its TTL impractical.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// newLinkCode generates a random linking code.
func newLinkCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	// len(codeAlphabet) divides 256, so the modulo introduces no bias.
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// normalizeCode maps user input onto the stored code form.
// Codes are matched case-insensitively.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// OpenSession opens a linking session for the member's group. Any previous
// open session of the same member is cancelled in the same transaction, so at
// most one open session exists per member.
func (s *SQLiteStore) OpenSession(ctx context.Context, memberID int64, groupID string, ttl time.Duration) (*models.LinkingSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE linking_sessions SET state = ? WHERE member_id = ? AND state = ?",
		models.SessionCancelled, memberID, models.SessionOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel previous session: %w", err)
	}

	now := time.Now()
	session := &models.LinkingSession{
		GroupID:   groupID,
		MemberID:  memberID,
		CreatedAt: now.UTC().Truncate(time.Second),
		ExpiresAt: now.Add(ttl).UTC().Truncate(time.Second),
		State:     models.SessionOpen,
	}

	// Codes are unique among all recorded sessions (live or dead); retry a
	// few times if the draw collides with an old one.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := newLinkCode()
		if err != nil {
			return nil, err
		}

		var exists bool
		err = tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM linking_sessions WHERE code = ?)", code,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if exists {
			continue
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO linking_sessions (code, group_id, member_id, created_at, expires_at, state) VALUES (?, ?, ?, ?, ?, ?)",
			code, groupID, memberID, session.CreatedAt.Unix(), session.ExpiresAt.Unix(), models.SessionOpen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert session: %w", err)
		}

		session.Code = code
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return session, nil
	}

	return nil, fmt.Errorf("failed to generate a unique linking code")
}

// ResolveSession looks up a session by code. An open session whose deadline
// has passed is transitioned to expired before being returned; expiry is
// detected lazily here, there is no background sweep.
func (s *SQLiteStore) ResolveSession(ctx context.Context, code string) (*models.LinkingSession, error) {
	code = normalizeCode(code)

	session, err := s.querySession(ctx, code)
	if err != nil {
		return nil, err
	}

	if session.State == models.SessionOpen && session.Expired(time.Now()) {
		// Conditional on state so a concurrent consume is never overwritten.
		_, err = s.db.ExecContext(ctx,
			"UPDATE linking_sessions SET state = ? WHERE code = ? AND state = ?",
			models.SessionExpired, code, models.SessionOpen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to expire session: %w", err)
		}
		return s.querySession(ctx, code)
	}

	return session, nil
}

// CancelSession cancels the member's open session, if any.
func (s *SQLiteStore) CancelSession(ctx context.Context, memberID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE linking_sessions SET state = ? WHERE member_id = ? AND state = ?",
		models.SessionCancelled, memberID, models.SessionOpen,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNoOpenSession
	}
	return nil
}

func (s *SQLiteStore) querySession(ctx context.Context, code string) (*models.LinkingSession, error) {
	session := &models.LinkingSession{}
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx,
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
	return session, nil
}
