package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mzotov/famwallet/internal/models"
)

func TestMergeGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("merge moves balance, entries and members then retires the source", func(t *testing.T) {
		store := newTestStore(t)

		inviter, target, err := store.GetOrCreateMember(ctx, 1, "Anna")
		if err != nil {
			t.Fatalf("GetOrCreateMember failed: %v", err)
		}
		joiner, source, err := store.GetOrCreateMember(ctx, 2, "Boris")
		if err != nil {
			t.Fatalf("GetOrCreateMember failed: %v", err)
		}

		if _, err := store.AppendEntry(ctx, target.ID, inviter.PersonID, dec(t, "250"), "salary"); err != nil {
			t.Fatalf("AppendEntry failed: %v", err)
		}
		if _, err := store.AppendEntry(ctx, source.ID, joiner.PersonID, dec(t, "1000"), "bonus"); err != nil {
			t.Fatalf("AppendEntry failed: %v", err)
		}
		if _, err := store.AppendEntry(ctx, source.ID, joiner.PersonID, dec(t, "-100"), "lunch"); err != nil {
			t.Fatalf("AppendEntry failed: %v", err)
		}

		session, err := store.OpenSession(ctx, inviter.PersonID, target.ID, 10*time.Minute)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}

		result, err := store.MergeGroups(ctx, joiner.PersonID, session.Code)
		if err != nil {
			t.Fatalf("MergeGroups failed: %v", err)
		}

		if result.Group.ID != target.ID {
			t.Errorf("surviving group: got %s, want %s", result.Group.ID, target.ID)
		}
		if result.MemberCount != 2 {
			t.Errorf("member count: got %d, want 2", result.MemberCount)
		}
		// 250 + (1000 - 100)
		if !result.Group.Balance.Equal(dec(t, "1150")) {
			t.Errorf("merged balance: got %s, want 1150", result.Group.Balance)
		}

		// The joiner now belongs to the target group.
		movedMember, movedGroup, err := store.GetOrCreateMember(ctx, joiner.PersonID, joiner.Name)
		if err != nil {
			t.Fatalf("GetOrCreateMember failed: %v", err)
		}
		if movedMember.GroupID != target.ID || movedGroup.ID != target.ID {
			t.Errorf("joiner group: got %s, want %s", movedMember.GroupID, target.ID)
		}

		// All three entries live under the target, authorship untouched.
		entries, err := store.RecentEntries(ctx, target.ID, 10)
		if err != nil {
			t.Fatalf("RecentEntries failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("entries after merge: got %d, want 3", len(entries))
		}
		for _, e := range entries {
			if e.GroupID != target.ID {
				t.Errorf("entry %d still owned by %s", e.ID, e.GroupID)
			}
		}

		// The source is gone.
		if _, err := store.GetGroup(ctx, source.ID); err == nil {
			t.Error("expected the source group to be retired")
		}

		// The session is consumed.
		resolved, err := store.ResolveSession(ctx, session.Code)
		if err != nil {
			t.Fatalf("ResolveSession failed: %v", err)
		}
		if resolved.State != models.SessionConsumed {
			t.Errorf("session state: got %s, want %s", resolved.State, models.SessionConsumed)
		}
	})

	t.Run("consumed code cannot be reused", func(t *testing.T) {
		store := newTestStore(t)

		inviter, target, _ := store.GetOrCreateMember(ctx, 1, "Anna")
		joinerA, _, _ := store.GetOrCreateMember(ctx, 2, "Boris")
		joinerB, _, _ := store.GetOrCreateMember(ctx, 3, "Vera")

		session, err := store.OpenSession(ctx, inviter.PersonID, target.ID, 10*time.Minute)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}

		if _, err := store.MergeGroups(ctx, joinerA.PersonID, session.Code); err != nil {
			t.Fatalf("first MergeGroups failed: %v", err)
		}
		_, err = store.MergeGroups(ctx, joinerB.PersonID, session.Code)
		if !errors.Is(err, models.ErrCodeAlreadyUsed) {
			t.Errorf("expected ErrCodeAlreadyUsed, got %v", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		store := newTestStore(t)
		joiner, _, _ := store.GetOrCreateMember(ctx, 2, "Boris")

		_, err := store.MergeGroups(ctx, joiner.PersonID, "AAAAAA")
		if !errors.Is(err, models.ErrInvalidCode) {
			t.Errorf("expected ErrInvalidCode, got %v", err)
		}
	})

	t.Run("own code is rejected and the session stays open", func(t *testing.T) {
		store := newTestStore(t)
		inviter, group, _ := store.GetOrCreateMember(ctx, 1, "Anna")

		session, err := store.OpenSession(ctx, inviter.PersonID, group.ID, 10*time.Minute)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}

		_, err = store.MergeGroups(ctx, inviter.PersonID, session.Code)
		if !errors.Is(err, models.ErrSelfLink) {
			t.Errorf("expected ErrSelfLink, got %v", err)
		}

		resolved, err := store.ResolveSession(ctx, session.Code)
		if err != nil {
			t.Fatalf("ResolveSession failed: %v", err)
		}
		if resolved.State != models.SessionOpen {
			t.Errorf("session state after self-link: got %s, want %s", resolved.State, models.SessionOpen)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if !got.Balance.Equal(group.Balance) {
			t.Errorf("balance changed on rejected merge: got %s, want %s", got.Balance, group.Balance)
		}
	})

	t.Run("expired code fails and stays expired", func(t *testing.T) {
		store := newTestStore(t)
		inviter, target, _ := store.GetOrCreateMember(ctx, 1, "Anna")
		joiner, _, _ := store.GetOrCreateMember(ctx, 2, "Boris")

		session, err := store.OpenSession(ctx, inviter.PersonID, target.ID, -time.Second)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}

		_, err = store.MergeGroups(ctx, joiner.PersonID, session.Code)
		if !errors.Is(err, models.ErrCodeExpired) {
			t.Errorf("expected ErrCodeExpired, got %v", err)
		}

		// A second attempt sees the persisted terminal state, not a fresh
		// evaluation of the deadline.
		_, err = store.MergeGroups(ctx, joiner.PersonID, session.Code)
		if !errors.Is(err, models.ErrCodeExpired) {
			t.Errorf("expected ErrCodeExpired on retry, got %v", err)
		}
	})

	t.Run("cancelled code behaves like an unknown one", func(t *testing.T) {
		store := newTestStore(t)
		inviter, target, _ := store.GetOrCreateMember(ctx, 1, "Anna")
		joiner, _, _ := store.GetOrCreateMember(ctx, 2, "Boris")

		session, err := store.OpenSession(ctx, inviter.PersonID, target.ID, 10*time.Minute)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}
		if err := store.CancelSession(ctx, inviter.PersonID); err != nil {
			t.Fatalf("CancelSession failed: %v", err)
		}

		_, err = store.MergeGroups(ctx, joiner.PersonID, session.Code)
		if !errors.Is(err, models.ErrInvalidCode) {
			t.Errorf("expected ErrInvalidCode, got %v", err)
		}
	})

	t.Run("open invitations into the source die with it", func(t *testing.T) {
		store := newTestStore(t)
		inviter, target, _ := store.GetOrCreateMember(ctx, 1, "Anna")
		joiner, source, _ := store.GetOrCreateMember(ctx, 2, "Boris")

		// The joiner had an outstanding invitation into their own group.
		stale, err := store.OpenSession(ctx, joiner.PersonID, source.ID, 10*time.Minute)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}

		session, err := store.OpenSession(ctx, inviter.PersonID, target.ID, 10*time.Minute)
		if err != nil {
			t.Fatalf("OpenSession failed: %v", err)
		}
		if _, err := store.MergeGroups(ctx, joiner.PersonID, session.Code); err != nil {
			t.Fatalf("MergeGroups failed: %v", err)
		}

		resolved, err := store.ResolveSession(ctx, stale.Code)
		if err != nil {
			t.Fatalf("ResolveSession failed: %v", err)
		}
		if resolved.State != models.SessionCancelled {
			t.Errorf("stale session state: got %s, want %s", resolved.State, models.SessionCancelled)
		}
	})
}

// TestMergeGroupsConcurrent exercises the single-use guarantee: of two joins
// racing on one code, exactly one succeeds and the other observes the session
// as already consumed.
func TestMergeGroupsConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inviter, target, _ := store.GetOrCreateMember(ctx, 1, "Anna")
	joinerA, _, _ := store.GetOrCreateMember(ctx, 2, "Boris")
	joinerB, _, _ := store.GetOrCreateMember(ctx, 3, "Vera")

	session, err := store.OpenSession(ctx, inviter.PersonID, target.ID, 10*time.Minute)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, joiner := range []int64{joinerA.PersonID, joinerB.PersonID} {
		wg.Add(1)
		go func(i int, joiner int64) {
			defer wg.Done()
			_, results[i] = store.MergeGroups(ctx, joiner, session.Code)
		}(i, joiner)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, models.ErrCodeAlreadyUsed):
			losses++
		default:
			t.Errorf("unexpected join error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Errorf("wins=%d losses=%d, want exactly one of each", wins, losses)
	}

	members, err := store.ListMembers(ctx, target.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("target members: got %d, want 2", len(members))
	}
}

// TestMergeWalkthrough follows the canonical invite flow: a fresh wallet
// invites a member who already has history, and the merged wallet keeps both
// the balance and the history, with the newcomer able to record entries.
func TestMergeWalkthrough(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	memberA, groupA, err := store.GetOrCreateMember(ctx, 10, "A")
	if err != nil {
		t.Fatalf("GetOrCreateMember failed: %v", err)
	}
	memberB, groupB, err := store.GetOrCreateMember(ctx, 20, "B")
	if err != nil {
		t.Fatalf("GetOrCreateMember failed: %v", err)
	}

	// B has 1000 from three prior income entries.
	for _, amount := range []string{"400", "350", "250"} {
		if _, err := store.AppendEntry(ctx, groupB.ID, memberB.PersonID, dec(t, amount), "income"); err != nil {
			t.Fatalf("AppendEntry failed: %v", err)
		}
	}

	// A (balance 0) opens a 600-second invitation; B joins before expiry.
	session, err := store.OpenSession(ctx, memberA.PersonID, groupA.ID, 600*time.Second)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	result, err := store.MergeGroups(ctx, memberB.PersonID, session.Code)
	if err != nil {
		t.Fatalf("MergeGroups failed: %v", err)
	}

	// B's old group is retired; the merged wallet holds exactly B's 1000.
	if _, err := store.GetGroup(ctx, groupB.ID); err == nil {
		t.Error("expected B's old group to be retired")
	}
	if !result.Group.Balance.Equal(dec(t, "1000")) {
		t.Errorf("merged balance: got %s, want 1000", result.Group.Balance)
	}
	if result.MemberCount != 2 {
		t.Errorf("member count: got %d, want 2", result.MemberCount)
	}

	// A future entry by the newcomer shows up in the shared history.
	if _, err := store.AppendEntry(ctx, result.Group.ID, memberB.PersonID, dec(t, "-50"), "flowers"); err != nil {
		t.Fatalf("AppendEntry failed: %v", err)
	}
	entries, err := store.RecentEntries(ctx, result.Group.ID, 10)
	if err != nil {
		t.Fatalf("RecentEntries failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries: got %d, want 4", len(entries))
	}

	authors := map[int64]bool{}
	for _, e := range entries {
		authors[e.AuthorID] = true
	}
	if !authors[memberB.PersonID] {
		t.Error("expected the joining member among history authors")
	}

	got, err := store.GetGroup(ctx, result.Group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !got.Balance.Equal(dec(t, "950")) {
		t.Errorf("balance after new entry: got %s, want 950", got.Balance)
	}
}
