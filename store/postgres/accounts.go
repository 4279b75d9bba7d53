// Package postgres implements the workflow stores on PostgreSQL via
// sqlx. Per-key atomicity relies on single-statement mutations; the
// approve/reject path is one DELETE ... RETURNING, so concurrent
// reviews of the same payment cannot both succeed.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oddsdesk/tipsterbot/store"
)

type accounts struct {
	db *sqlx.DB
}

// NewAccounts constructs the durable account store.
func NewAccounts(db *sqlx.DB) store.Accounts {
	return &accounts{db: db}
}

func (a *accounts) Ensure(ctx context.Context, userID int64, displayName string) (store.Account, bool, error) {
	res, err := a.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, displayName,
	)
	if err != nil {
		return store.Account{}, false, fmt.Errorf("accounts ensure: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return store.Account{}, false, fmt.Errorf("accounts ensure: %w", err)
	}

	var acc store.Account
	if err := a.db.GetContext(ctx, &acc,
		`SELECT user_id, display_name, premium, delivered, plan_intent, created_at
		 FROM accounts WHERE user_id = $1`, userID,
	); err != nil {
		return store.Account{}, false, fmt.Errorf("accounts ensure: %w", err)
	}
	return acc, inserted > 0, nil
}

func (a *accounts) SetIntent(ctx context.Context, userID int64, planID string) error {
	res, err := a.db.ExecContext(ctx,
		`UPDATE accounts SET plan_intent = $2 WHERE user_id = $1`,
		userID, planID,
	)
	if err != nil {
		return fmt.Errorf("accounts set intent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (a *accounts) Approve(ctx context.Context, userID int64, _ string) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE accounts SET premium = TRUE, plan_intent = '' WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("accounts approve: %w", err)
	}
	return nil
}

func (a *accounts) RecordDelivery(ctx context.Context, userID int64) error {
	res, err := a.db.ExecContext(ctx,
		`UPDATE accounts SET delivered = delivered + 1 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("accounts record delivery: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (a *accounts) Get(ctx context.Context, userID int64) (store.Account, error) {
	var acc store.Account
	err := a.db.GetContext(ctx, &acc,
		`SELECT user_id, display_name, premium, delivered, plan_intent, created_at
		 FROM accounts WHERE user_id = $1`, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Account{}, store.ErrNotFound
	}
	if err != nil {
		return store.Account{}, fmt.Errorf("accounts get: %w", err)
	}
	return acc, nil
}

func (a *accounts) Reset(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("accounts reset: %w", err)
	}
	return nil
}
