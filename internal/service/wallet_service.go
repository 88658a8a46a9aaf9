// Package service implements the application operations on top of the store:
// account bootstrap, ledger writes and the wallet-linking flow.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mzotov/famwallet/internal/metrics"
	"github.com/mzotov/famwallet/internal/models"
	"github.com/mzotov/famwallet/internal/storage"
)

// WalletService handles account bootstrap, ledger writes and the read
// projections consumed by the presentation layer.
type WalletService struct {
	store storage.Store
}

// NewWalletService creates a new WalletService with the given storage backend.
func NewWalletService(store storage.Store) *WalletService {
	return &WalletService{store: store}
}

// Start registers the person on first contact and returns their member and
// group. Safe to call on every interaction; it never creates duplicates.
func (s *WalletService) Start(ctx context.Context, personID int64, name string) (*models.Member, *models.Group, error) {
	member, group, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		slog.Error("Start failed", "person_id", personID, "error", err)
		return nil, nil, fmt.Errorf("failed to register member: %w", err)
	}
	return member, group, nil
}

// RecordIncome appends a positive entry to the person's group ledger and
// returns the entry together with the updated group.
func (s *WalletService) RecordIncome(ctx context.Context, personID int64, name string, amount decimal.Decimal, description string) (*models.LedgerEntry, *models.Group, error) {
	// Callers validate input, but the core still refuses nonsense amounts.
	if amount.Sign() <= 0 {
		return nil, nil, models.ErrNonPositiveAmount
	}
	return s.record(ctx, personID, name, amount, description, "income")
}

// RecordExpense appends a negative entry to the person's group ledger and
// returns the entry together with the updated group.
func (s *WalletService) RecordExpense(ctx context.Context, personID int64, name string, amount decimal.Decimal, description string) (*models.LedgerEntry, *models.Group, error) {
	if amount.Sign() <= 0 {
		return nil, nil, models.ErrNonPositiveAmount
	}
	return s.record(ctx, personID, name, amount.Neg(), description, "expense")
}

// record writes one signed entry. The sign has already been applied by the
// income/expense wrappers, which also reject non-positive magnitudes.
func (s *WalletService) record(ctx context.Context, personID int64, name string, signed decimal.Decimal, description, kind string) (*models.LedgerEntry, *models.Group, error) {
	member, group, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve member: %w", err)
	}

	entry, err := s.store.AppendEntry(ctx, group.ID, member.PersonID, signed, description)
	if err != nil {
		slog.Error("record failed", "person_id", personID, "kind", kind, "error", err)
		return nil, nil, err
	}

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("entry recorded",
		"person_id", personID,
		"group_id", group.ID,
		"kind", kind,
		"amount", signed.String(),
	)
	metrics.EntriesRecorded.WithLabelValues(kind).Inc()

	return entry, updated, nil
}

// Balance returns the person's group with its current balance.
func (s *WalletService) Balance(ctx context.Context, personID int64, name string) (*models.Group, error) {
	_, group, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member: %w", err)
	}
	return group, nil
}

// History returns the most recent entries of the person's group, newest
// first, together with the group itself.
func (s *WalletService) History(ctx context.Context, personID int64, name string, limit int) ([]models.LedgerEntry, *models.Group, error) {
	_, group, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve member: %w", err)
	}

	entries, err := s.store.RecentEntries(ctx, group.ID, limit)
	if err != nil {
		return nil, nil, err
	}
	return entries, group, nil
}

// Members returns the person's group and its member list.
func (s *WalletService) Members(ctx context.Context, personID int64, name string) ([]models.Member, *models.Group, error) {
	_, group, err := s.store.GetOrCreateMember(ctx, personID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve member: %w", err)
	}

	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, nil, err
	}
	return members, group, nil
}
