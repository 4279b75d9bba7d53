package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oddsdesk/tipsterbot/store"
)

type compose struct {
	db *sqlx.DB
}

// NewCompose constructs the durable compose-session registry.
func NewCompose(db *sqlx.DB) store.Compose {
	return &compose{db: db}
}

func (c *compose) Open(ctx context.Context, operatorID, targetID int64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO compose_sessions (operator_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (operator_id) DO UPDATE SET
			target_id  = EXCLUDED.target_id,
			created_at = now()`,
		operatorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("compose open: %w", err)
	}
	return nil
}

func (c *compose) Close(ctx context.Context, operatorID int64) (store.ComposeSession, error) {
	row := c.db.QueryRowxContext(ctx, `
		DELETE FROM compose_sessions WHERE operator_id = $1
		RETURNING operator_id, target_id, created_at`,
		operatorID,
	)
	var sess store.ComposeSession
	err := row.StructScan(&sess)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ComposeSession{}, store.ErrNotFound
	}
	if err != nil {
		return store.ComposeSession{}, fmt.Errorf("compose close: %w", err)
	}
	return sess, nil
}

func (c *compose) Peek(ctx context.Context, operatorID int64) (store.ComposeSession, error) {
	var sess store.ComposeSession
	err := c.db.GetContext(ctx, &sess,
		`SELECT operator_id, target_id, created_at FROM compose_sessions WHERE operator_id = $1`,
		operatorID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ComposeSession{}, store.ErrNotFound
	}
	if err != nil {
		return store.ComposeSession{}, fmt.Errorf("compose peek: %w", err)
	}
	return sess, nil
}

func (c *compose) Reset(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM compose_sessions`); err != nil {
		return fmt.Errorf("compose reset: %w", err)
	}
	return nil
}
