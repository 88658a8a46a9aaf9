package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mzotov/famwallet/internal/metrics"
	"github.com/mzotov/famwallet/internal/models"
	"github.com/mzotov/famwallet/internal/storage"
)

// DefaultLinkTTL is how long an invitation code stays valid unless
// configured otherwise.
const DefaultLinkTTL = 10 * time.Minute

// LinkService drives the wallet-linking flow: issuing invitation codes,
// revoking them and consuming them to merge two wallets.
type LinkService struct {
	store storage.Store
	ttl   time.Duration
}

// NewLinkService creates a new LinkService. A non-positive ttl falls back to
// DefaultLinkTTL.
func NewLinkService(store storage.Store, ttl time.Duration) *LinkService {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &LinkService{store: store, ttl: ttl}
}

// TTL returns the configured invitation lifetime.
func (s *LinkService) TTL() time.Duration {
	return s.ttl
}

// Invite opens a linking session for the person's group and returns it.
// Any previous open invitation by the same person is replaced.
func (s *LinkService) Invite(ctx context.Context, personID int64, name string) (*models.LinkingSession, error) {
	member, group, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member: %w", err)
	}

	session, err := s.store.OpenSession(ctx, member.PersonID, group.ID, s.ttl)
	if err != nil {
		slog.Error("Invite failed", "person_id", personID, "error", err)
		return nil, err
	}

	slog.Info("linking code issued",
		"person_id", personID,
		"group_id", group.ID,
		"expires_at", session.ExpiresAt,
	)
	metrics.CodesIssued.Inc()

	return session, nil
}

// Revoke cancels the person's open invitation, if any.
func (s *LinkService) Revoke(ctx context.Context, personID int64) error {
	err := s.store.CancelSession(ctx, personID)
	if err != nil && err != models.ErrNoOpenSession {
		slog.Error("Revoke failed", "person_id", personID, "error", err)
	}
	return err
}

// Join merges the person's wallet into the group whose invitation code is
// presented. The domain errors (invalid, expired, already used, self-link)
// pass through unchanged for the presentation layer to translate.
func (s *LinkService) Join(ctx context.Context, personID int64, name string, code string) (*models.MergeResult, error) {
	member, _, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member: %w", err)
	}

	result, err := s.store.MergeGroups(ctx, member.PersonID, code)
	if err != nil {
		switch err {
		case models.ErrInvalidCode, models.ErrCodeExpired, models.ErrCodeAlreadyUsed, models.ErrSelfLink:
			slog.Info("join rejected", "person_id", personID, "reason", err)
		default:
			slog.Error("Join failed", "person_id", personID, "error", err)
		}
		return nil, err
	}

	slog.Info("wallets merged",
		"person_id", personID,
		"group_id", result.Group.ID,
		"member_count", result.MemberCount,
	)
	metrics.MergesCompleted.Inc()

	return result, nil
}
