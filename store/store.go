// Package store defines the three keyed stores behind the workflow
// engine: customer accounts, the pending-payment ledger, and operator
// compose sessions. Implementations must serialize access per key so
// that read-then-write operations (ensure, approve, reject, open) are
// atomic with respect to concurrent calls for the same identity.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record does not exist. It is a
// recoverable, per-request condition and never fatal.
var ErrNotFound = errors.New("store: not found")

// Account is one record per chat participant, created lazily on the
// first inbound event from that identity.
type Account struct {
	UserID      int64     `db:"user_id"`
	DisplayName string    `db:"display_name"`
	Premium     bool      `db:"premium"`
	Delivered   int       `db:"delivered"`
	PlanIntent  string    `db:"plan_intent"`
	CreatedAt   time.Time `db:"created_at"`
}

// PaymentProof is a pending payment-proof record. At most one live
// record exists per customer; a later submission overwrites it.
// Exactly one of PhotoID and DocumentID is set.
type PaymentProof struct {
	UserID      int64     `db:"user_id"`
	DisplayName string    `db:"display_name"`
	PlanID      string    `db:"plan_id"`
	PhotoID     string    `db:"photo_id"`
	DocumentID  string    `db:"document_id"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// Kind reports the proof reference kind for logs and digests.
func (p PaymentProof) Kind() string {
	if p.PhotoID != "" {
		return "photo"
	}
	return "document"
}

// ComposeSession is an operator's single-use manual-delivery intent
// bound to one target customer. At most one session per operator.
type ComposeSession struct {
	OperatorID int64     `db:"operator_id"`
	TargetID   int64     `db:"target_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Accounts is the account store contract.
type Accounts interface {
	// Ensure returns the existing account or creates a fresh one
	// (premium=false, delivered=0, no intent). The second result
	// reports whether a record was created by this call.
	Ensure(ctx context.Context, userID int64, displayName string) (Account, bool, error)

	// SetIntent records the plan the customer is about to pay for.
	// Idempotent; ErrNotFound if the account does not exist.
	SetIntent(ctx context.Context, userID int64, planID string) error

	// Approve sets premium and clears the intent. Missing accounts are
	// a no-op, not an error; callers gate delivery eligibility.
	Approve(ctx context.Context, userID int64, planID string) error

	// RecordDelivery increments the delivered-artifact counter.
	RecordDelivery(ctx context.Context, userID int64) error

	Get(ctx context.Context, userID int64) (Account, error)

	// Reset removes every account. Administrative use only.
	Reset(ctx context.Context) error
}

// Ledger is the payment-proof ledger contract.
type Ledger interface {
	// Submit stores the proof, overwriting any prior pending record
	// for the same customer, and returns the stored record.
	Submit(ctx context.Context, proof PaymentProof) (PaymentProof, error)

	// Approve atomically removes and returns the pending record, or
	// ErrNotFound when none exists.
	Approve(ctx context.Context, userID int64) (PaymentProof, error)

	// Reject is symmetric to Approve; no account mutation happens here.
	Reject(ctx context.Context, userID int64) (PaymentProof, error)

	// ListPending returns a snapshot of pending records in insertion
	// order. Mutations after the call do not affect the returned slice.
	ListPending(ctx context.Context) ([]PaymentProof, error)

	// ClearAll removes every pending record.
	ClearAll(ctx context.Context) error
}

// Compose is the compose-session registry contract.
type Compose interface {
	// Open binds the operator to a target, silently replacing any
	// prior session for the same operator.
	Open(ctx context.Context, operatorID, targetID int64) error

	// Close removes and returns the operator's session, or ErrNotFound.
	Close(ctx context.Context, operatorID int64) (ComposeSession, error)

	// Peek returns the session without consuming it, or ErrNotFound.
	Peek(ctx context.Context, operatorID int64) (ComposeSession, error)

	// Reset removes every session.
	Reset(ctx context.Context) error
}
