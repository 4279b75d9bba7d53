package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oddsdesk/tipsterbot/store"
)

type compose struct {
	mu       sync.Mutex
	sessions map[int64]store.ComposeSession
	now      func() time.Time
}

// NewCompose constructs an in-memory compose-session registry.
func NewCompose() store.Compose {
	return &compose{
		sessions: make(map[int64]store.ComposeSession),
		now:      time.Now,
	}
}

func (c *compose) Open(_ context.Context, operatorID, targetID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A new target replaces any prior session, no accumulation.
	c.sessions[operatorID] = store.ComposeSession{
		OperatorID: operatorID,
		TargetID:   targetID,
		CreatedAt:  c.now(),
	}
	return nil
}

func (c *compose) Close(_ context.Context, operatorID int64) (store.ComposeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[operatorID]
	if !ok {
		return store.ComposeSession{}, store.ErrNotFound
	}
	delete(c.sessions, operatorID)
	return sess, nil
}

func (c *compose) Peek(_ context.Context, operatorID int64) (store.ComposeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[operatorID]
	if !ok {
		return store.ComposeSession{}, store.ErrNotFound
	}
	return sess, nil
}

func (c *compose) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[int64]store.ComposeSession)
	return nil
}
