// Package memory provides mutex-guarded in-memory implementations of
// the workflow stores. They are the default backend and the one used
// by tests; the postgres package provides the durable variants.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oddsdesk/tipsterbot/store"
)

type accounts struct {
	mu      sync.Mutex
	records map[int64]store.Account
	now     func() time.Time
}

// NewAccounts constructs an in-memory account store.
func NewAccounts() store.Accounts {
	return &accounts{
		records: make(map[int64]store.Account),
		now:     time.Now,
	}
}

func (a *accounts) Ensure(_ context.Context, userID int64, displayName string) (store.Account, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if acc, ok := a.records[userID]; ok {
		return acc, false, nil
	}
	acc := store.Account{
		UserID:      userID,
		DisplayName: displayName,
		CreatedAt:   a.now(),
	}
	a.records[userID] = acc
	return acc, true, nil
}

func (a *accounts) SetIntent(_ context.Context, userID int64, planID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.records[userID]
	if !ok {
		return store.ErrNotFound
	}
	acc.PlanIntent = planID
	a.records[userID] = acc
	return nil
}

func (a *accounts) Approve(_ context.Context, userID int64, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.records[userID]
	if !ok {
		// Missing account is the caller's concern, not an error here.
		return nil
	}
	acc.Premium = true
	acc.PlanIntent = ""
	a.records[userID] = acc
	return nil
}

func (a *accounts) RecordDelivery(_ context.Context, userID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.records[userID]
	if !ok {
		return store.ErrNotFound
	}
	acc.Delivered++
	a.records[userID] = acc
	return nil
}

func (a *accounts) Get(_ context.Context, userID int64) (store.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acc, ok := a.records[userID]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return acc, nil
}

func (a *accounts) Reset(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = make(map[int64]store.Account)
	return nil
}
