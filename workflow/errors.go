package workflow

import "fmt"

// Error is a typed domain error. Code feeds the router's err_code
// derivation in handler summary logs.
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

// Code returns the stable machine-readable error code.
func (e *Error) Code() string { return e.code }

var (
	// ErrUnauthorized rejects a non-operator invoking an operator-only
	// action. No state changes.
	ErrUnauthorized = &Error{code: "UNAUTHORIZED", message: "this action is for the admin only"}

	// ErrNoPendingPayment means the ledger has no record to review.
	ErrNoPendingPayment = &Error{code: "NO_PENDING_PAYMENT", message: "no pending payment for this user"}

	// ErrNoComposeSession means the operator has nothing open to
	// deliver or cancel.
	ErrNoComposeSession = &Error{code: "NO_COMPOSE_SESSION", message: "no compose session open"}

	// ErrUnsupportedPayload rejects a compose payload kind that cannot
	// be forwarded. The session stays open.
	ErrUnsupportedPayload = &Error{code: "UNSUPPORTED_PAYLOAD", message: "unsupported message type; send text, photo, or document"}

	// ErrOperatorProof guards the invariant that the operator's own
	// uploads are never recorded as payment proofs.
	ErrOperatorProof = &Error{code: "OPERATOR_PROOF", message: "operator uploads are not payment proofs"}
)

// DeliveryError reports a transient gateway failure while forwarding a
// compose payload. The session is preserved for a manual retry.
type DeliveryError struct {
	TargetID int64
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %d failed: %v", e.TargetID, e.Err)
}

// Code identifies the failure class for handler summary logs.
func (e *DeliveryError) Code() string { return "GATEWAY_DELIVERY" }

func (e *DeliveryError) Unwrap() error { return e.Err }
