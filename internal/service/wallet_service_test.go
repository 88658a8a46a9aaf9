package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mzotov/famwallet/internal/models"
	"github.com/mzotov/famwallet/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "famwallet-service-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestWalletService(t *testing.T) {
	store := newTestStore(t)
	svc := NewWalletService(store)
	ctx := context.Background()

	t.Run("Start is idempotent", func(t *testing.T) {
		_, first, err := svc.Start(ctx, 1, "Anna")
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		_, second, err := svc.Start(ctx, 1, "Anna")
		if err != nil {
			t.Fatalf("second Start failed: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("expected one group, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("income and expense maintain the balance", func(t *testing.T) {
		if _, _, err := svc.RecordIncome(ctx, 2, "Boris", amount(t, "5000"), "salary"); err != nil {
			t.Fatalf("RecordIncome failed: %v", err)
		}
		entry, group, err := svc.RecordExpense(ctx, 2, "Boris", amount(t, "1299.99"), "groceries")
		if err != nil {
			t.Fatalf("RecordExpense failed: %v", err)
		}

		if entry.Amount.Sign() >= 0 {
			t.Errorf("expense entry amount should be negative, got %s", entry.Amount)
		}
		if !group.Balance.Equal(amount(t, "3700.01")) {
			t.Errorf("balance: got %s, want 3700.01", group.Balance)
		}
	})

	t.Run("expense may overdraw the balance", func(t *testing.T) {
		if _, _, err := svc.RecordIncome(ctx, 3, "Vera", amount(t, "100"), ""); err != nil {
			t.Fatalf("RecordIncome failed: %v", err)
		}
		_, group, err := svc.RecordExpense(ctx, 3, "Vera", amount(t, "500"), "car repair")
		if err != nil {
			t.Fatalf("RecordExpense failed: %v", err)
		}
		if !group.Balance.Equal(amount(t, "-400")) {
			t.Errorf("balance: got %s, want -400", group.Balance)
		}
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		for _, bad := range []string{"0", "-10"} {
			if _, _, err := svc.RecordIncome(ctx, 4, "Gleb", amount(t, bad), ""); !errors.Is(err, models.ErrNonPositiveAmount) {
				t.Errorf("RecordIncome(%s): expected ErrNonPositiveAmount, got %v", bad, err)
			}
			if _, _, err := svc.RecordExpense(ctx, 4, "Gleb", amount(t, bad), ""); !errors.Is(err, models.ErrNonPositiveAmount) {
				t.Errorf("RecordExpense(%s): expected ErrNonPositiveAmount, got %v", bad, err)
			}
		}
	})

	t.Run("History returns newest first", func(t *testing.T) {
		for _, a := range []string{"10", "20", "30"} {
			if _, _, err := svc.RecordIncome(ctx, 5, "Olya", amount(t, a), ""); err != nil {
				t.Fatalf("RecordIncome failed: %v", err)
			}
		}

		entries, group, err := svc.History(ctx, 5, "Olya", 2)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("entries: got %d, want 2", len(entries))
		}
		if !group.Balance.Equal(amount(t, "60")) {
			t.Errorf("balance: got %s, want 60", group.Balance)
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
				t.Error("history is not newest first")
			}
		}
	})

	t.Run("Members lists the group", func(t *testing.T) {
		members, group, err := svc.Members(ctx, 5, "Olya")
		if err != nil {
			t.Fatalf("Members failed: %v", err)
		}
		if len(members) != 1 {
			t.Fatalf("members: got %d, want 1", len(members))
		}
		if members[0].GroupID != group.ID {
			t.Errorf("member group: got %s, want %s", members[0].GroupID, group.ID)
		}
	})
}
