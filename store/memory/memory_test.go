package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/oddsdesk/tipsterbot/store"
)

func TestEnsureIdempotent(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts()

	first, created, err := accounts.Ensure(ctx, 42, "alice")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Fatal("expected first ensure to create")
	}
	second, created, err := accounts.Ensure(ctx, 42, "renamed")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if created {
		t.Fatal("second ensure must not create")
	}
	if second.DisplayName != first.DisplayName || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("second ensure returned a different record: %+v vs %+v", second, first)
	}
	if second.Premium || second.Delivered != 0 || second.PlanIntent != "" {
		t.Fatalf("fresh account has unexpected fields: %+v", second)
	}
}

func TestApproveMissingAccountIsNoop(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts()

	if err := accounts.Approve(ctx, 99, "plan1"); err != nil {
		t.Fatalf("approve of missing account must not fail: %v", err)
	}
	if _, err := accounts.Get(ctx, 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("approve must not create accounts, got %v", err)
	}
}

func TestApproveSetsPremiumAndClearsIntent(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts()

	if _, _, err := accounts.Ensure(ctx, 7, "bob"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := accounts.SetIntent(ctx, 7, "plan1"); err != nil {
		t.Fatalf("set intent: %v", err)
	}
	if err := accounts.Approve(ctx, 7, "plan1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	acc, err := accounts.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !acc.Premium || acc.PlanIntent != "" {
		t.Fatalf("expected premium with cleared intent, got %+v", acc)
	}
}

func TestSubmitOverwrites(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	if _, err := ledger.Submit(ctx, store.PaymentProof{UserID: 42, PlanID: "plan1", PhotoID: "first"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := ledger.Submit(ctx, store.PaymentProof{UserID: 42, PlanID: "plan1", PhotoID: "second"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	pending, err := ledger.ListPending(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one record, got %d", len(pending))
	}
	if pending[0].PhotoID != "second" {
		t.Fatalf("expected last submission to win, got %q", pending[0].PhotoID)
	}
}

func TestApproveAtMostOnce(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	if _, err := ledger.Approve(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("approve without record: want ErrNotFound, got %v", err)
	}

	if _, err := ledger.Submit(ctx, store.PaymentProof{UserID: 42, PlanID: "plan1", PhotoID: "p"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := ledger.Approve(ctx, 42); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := ledger.Approve(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second approve: want ErrNotFound, got %v", err)
	}
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	if _, err := ledger.Submit(ctx, store.PaymentProof{UserID: 1, PlanID: "plan1", PhotoID: "p"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Approve(ctx, 1); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly one successful approve, got %d", n)
	}
}

func TestListPendingSnapshot(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger()

	for _, id := range []int64{3, 1, 2} {
		if _, err := ledger.Submit(ctx, store.PaymentProof{UserID: id, PlanID: "plan1", PhotoID: "p"}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	snap, err := ledger.ListPending(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{3, 1, 2}
	for i, proof := range snap {
		if proof.UserID != want[i] {
			t.Fatalf("insertion order broken: got %d at %d", proof.UserID, i)
		}
	}

	// A submission after the snapshot must not appear in it.
	if _, err := ledger.Submit(ctx, store.PaymentProof{UserID: 4, PlanID: "plan1", PhotoID: "p"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("snapshot changed after later submit: %d records", len(snap))
	}
}

func TestComposeReplaceAndPeek(t *testing.T) {
	ctx := context.Background()
	compose := NewCompose()

	if err := compose.Open(ctx, 100, 1); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := compose.Open(ctx, 100, 2); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	sess, err := compose.Peek(ctx, 100)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if sess.TargetID != 2 {
		t.Fatalf("expected latest target, got %d", sess.TargetID)
	}

	// Peek is non-consuming; Close consumes.
	if _, err := compose.Peek(ctx, 100); err != nil {
		t.Fatalf("second peek: %v", err)
	}
	if _, err := compose.Close(ctx, 100); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := compose.Close(ctx, 100); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second close: want ErrNotFound, got %v", err)
	}
}
