package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oddsdesk/tipsterbot/store"
)

type ledger struct {
	db *sqlx.DB
}

// NewLedger constructs the durable payment ledger. Insertion order for
// digests comes from the seq column, preserved across resubmissions.
func NewLedger(db *sqlx.DB) store.Ledger {
	return &ledger{db: db}
}

func (l *ledger) Submit(ctx context.Context, proof store.PaymentProof) (store.PaymentProof, error) {
	row := l.db.QueryRowxContext(ctx, `
		INSERT INTO pending_payments (user_id, display_name, plan_id, photo_id, document_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			plan_id      = EXCLUDED.plan_id,
			photo_id     = EXCLUDED.photo_id,
			document_id  = EXCLUDED.document_id,
			submitted_at = now()
		RETURNING user_id, display_name, plan_id, photo_id, document_id, submitted_at`,
		proof.UserID, proof.DisplayName, proof.PlanID, proof.PhotoID, proof.DocumentID,
	)
	var stored store.PaymentProof
	if err := row.StructScan(&stored); err != nil {
		return store.PaymentProof{}, fmt.Errorf("ledger submit: %w", err)
	}
	return stored, nil
}

func (l *ledger) Approve(ctx context.Context, userID int64) (store.PaymentProof, error) {
	return l.take(ctx, userID, "approve")
}

func (l *ledger) Reject(ctx context.Context, userID int64) (store.PaymentProof, error) {
	return l.take(ctx, userID, "reject")
}

func (l *ledger) take(ctx context.Context, userID int64, op string) (store.PaymentProof, error) {
	row := l.db.QueryRowxContext(ctx, `
		DELETE FROM pending_payments WHERE user_id = $1
		RETURNING user_id, display_name, plan_id, photo_id, document_id, submitted_at`,
		userID,
	)
	var proof store.PaymentProof
	err := row.StructScan(&proof)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PaymentProof{}, store.ErrNotFound
	}
	if err != nil {
		return store.PaymentProof{}, fmt.Errorf("ledger %s: %w", op, err)
	}
	return proof, nil
}

func (l *ledger) ListPending(ctx context.Context) ([]store.PaymentProof, error) {
	var out []store.PaymentProof
	if err := l.db.SelectContext(ctx, &out, `
		SELECT user_id, display_name, plan_id, photo_id, document_id, submitted_at
		FROM pending_payments ORDER BY seq`,
	); err != nil {
		return nil, fmt.Errorf("ledger list pending: %w", err)
	}
	return out, nil
}

func (l *ledger) ClearAll(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM pending_payments`); err != nil {
		return fmt.Errorf("ledger clear: %w", err)
	}
	return nil
}
