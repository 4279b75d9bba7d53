package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oddsdesk/tipsterbot/store"
)

type ledger struct {
	mu      sync.Mutex
	records map[int64]store.PaymentProof
	order   []int64
	now     func() time.Time
}

// NewLedger constructs an in-memory payment ledger. Pending records
// keep their insertion order; resubmission keeps the original slot.
func NewLedger() store.Ledger {
	return &ledger{
		records: make(map[int64]store.PaymentProof),
		now:     time.Now,
	}
}

func (l *ledger) Submit(_ context.Context, proof store.PaymentProof) (store.PaymentProof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if proof.SubmittedAt.IsZero() {
		proof.SubmittedAt = l.now()
	}
	if _, exists := l.records[proof.UserID]; !exists {
		l.order = append(l.order, proof.UserID)
	}
	l.records[proof.UserID] = proof
	return proof, nil
}

func (l *ledger) Approve(_ context.Context, userID int64) (store.PaymentProof, error) {
	return l.take(userID)
}

func (l *ledger) Reject(_ context.Context, userID int64) (store.PaymentProof, error) {
	return l.take(userID)
}

// take removes and returns the pending record under one lock hold, so
// two concurrent approvals of the same payment cannot both succeed.
func (l *ledger) take(userID int64) (store.PaymentProof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	proof, ok := l.records[userID]
	if !ok {
		return store.PaymentProof{}, store.ErrNotFound
	}
	delete(l.records, userID)
	for i, id := range l.order {
		if id == userID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return proof, nil
}

func (l *ledger) ListPending(_ context.Context) ([]store.PaymentProof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]store.PaymentProof, 0, len(l.order))
	for _, id := range l.order {
		if proof, ok := l.records[id]; ok {
			out = append(out, proof)
		}
	}
	return out, nil
}

func (l *ledger) ClearAll(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make(map[int64]store.PaymentProof)
	l.order = nil
	return nil
}
