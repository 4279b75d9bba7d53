// Package workflow implements the approval/delivery engine: it
// orchestrates the account store, payment ledger, and compose-session
// registry in response to inbound chat events, and emits outbound
// notifications through the messaging gateway. Store mutations always
// commit before any gateway call is made.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oddsdesk/tipsterbot/core/logger"
	"github.com/oddsdesk/tipsterbot/store"
)

const component = "service.workflow"

// Gateway delivers outbound payloads to chat identities. The telegram
// adapter renders the actual message texts and inline controls.
type Gateway interface {
	SendText(ctx context.Context, to int64, text string) error
	SendPhoto(ctx context.Context, to int64, fileID, caption string) error
	SendDocument(ctx context.Context, to int64, fileID, caption string) error
	// CopyMessage relays a message verbatim without re-encoding.
	CopyMessage(ctx context.Context, to, fromChat int64, messageID int) error

	// OperatorOnboarded greets the operator identity on its first-ever
	// account creation.
	OperatorOnboarded(ctx context.Context, operatorID int64) error
	// ProofAccepted acknowledges a customer's proof submission.
	ProofAccepted(ctx context.Context, userID int64, plan Plan, known bool) error
	// ProofForwarded notifies the operator about a new pending proof,
	// attaching review controls for that customer.
	ProofForwarded(ctx context.Context, operatorID int64, proof store.PaymentProof, plan Plan, known bool) error
	// PaymentApproved tells the customer their payment was verified.
	PaymentApproved(ctx context.Context, userID int64, plan Plan) error
	// PaymentRejected tells the customer their proof was declined.
	PaymentRejected(ctx context.Context, userID int64) error
}

// ProofSubmission is an inbound payment proof from a customer.
// Exactly one of PhotoID and DocumentID is set.
type ProofSubmission struct {
	UserID      int64
	DisplayName string
	ChatID      int64
	MessageID   int
	PhotoID     string
	DocumentID  string
	// ClaimedPlan comes from the upload control and may name a plan
	// the catalog does not know; it is stored verbatim in that case.
	ClaimedPlan string
}

// ComposePayload is an inbound message interpreted as the manual
// delivery payload for an open compose session.
type ComposePayload struct {
	Text       string
	PhotoID    string
	DocumentID string
	Caption    string
}

// Config wires the engine's collaborators.
type Config struct {
	OperatorID int64
	Catalog    *Catalog
	Accounts   store.Accounts
	Ledger     store.Ledger
	Compose    store.Compose
	Gateway    Gateway
}

// Engine is the only component with business logic; the stores own
// their per-key atomicity, so the engine's decisions are sequential
// per inbound event.
type Engine struct {
	operatorID int64
	catalog    *Catalog
	accounts   store.Accounts
	ledger     store.Ledger
	compose    store.Compose
	gateway    Gateway
}

// New validates the configuration and constructs an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("workflow: nil catalog")
	}
	if cfg.Accounts == nil || cfg.Ledger == nil || cfg.Compose == nil {
		return nil, fmt.Errorf("workflow: all three stores are required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("workflow: nil gateway")
	}
	return &Engine{
		operatorID: cfg.OperatorID,
		catalog:    cfg.Catalog,
		accounts:   cfg.Accounts,
		ledger:     cfg.Ledger,
		compose:    cfg.Compose,
		gateway:    cfg.Gateway,
	}, nil
}

// IsOperator reports whether id is the configured operator identity.
func (e *Engine) IsOperator(id int64) bool {
	return e.operatorID != 0 && id == e.operatorID
}

// Catalog exposes the plan catalog for presentation layers.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Register ensures an account exists for the sender. The one-time
// operator onboarding notice fires after the creation committed and
// never fails the registration.
func (e *Engine) Register(ctx context.Context, userID int64, displayName string) (store.Account, bool, error) {
	acc, created, err := e.accounts.Ensure(ctx, userID, displayName)
	if err != nil {
		return store.Account{}, false, fmt.Errorf("register %d: %w", userID, err)
	}
	if created && e.IsOperator(userID) {
		if gwErr := e.gateway.OperatorOnboarded(ctx, userID); gwErr != nil {
			logger.Warn(ctx, component, "operator.onboard.notify_failed",
				slog.Int64("user_id", userID),
				slog.String("err", gwErr.Error()),
			)
		}
	}
	return acc, created, nil
}

// Account returns the stored account or store.ErrNotFound.
func (e *Engine) Account(ctx context.Context, userID int64) (store.Account, error) {
	return e.accounts.Get(ctx, userID)
}

// SelectPlan records the customer's purchase intent. Unknown plan ids
// fall back to the default plan, matching the single-plan menu.
func (e *Engine) SelectPlan(ctx context.Context, userID int64, displayName, planID string) (Plan, error) {
	if _, _, err := e.accounts.Ensure(ctx, userID, displayName); err != nil {
		return Plan{}, fmt.Errorf("select plan: %w", err)
	}
	plan, known := e.catalog.Resolve(planID)
	if !known {
		plan = e.catalog.Default()
	}
	if err := e.accounts.SetIntent(ctx, userID, plan.ID); err != nil {
		return Plan{}, fmt.Errorf("select plan: %w", err)
	}
	logger.Debug(ctx, component, "plan.selected",
		slog.Int64("user_id", userID),
		slog.String("plan_id", plan.ID),
	)
	return plan, nil
}

// ClearIntent drops a purchase intent, e.g. after the cancel control.
func (e *Engine) ClearIntent(ctx context.Context, userID int64) error {
	err := e.accounts.SetIntent(ctx, userID, "")
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// SubmitProof records a customer's payment proof, acknowledges the
// customer, and then forwards the proof to the operator. Forwarding is
// best-effort: a gateway failure there is logged and never blocks the
// customer's acknowledgment.
func (e *Engine) SubmitProof(ctx context.Context, sub ProofSubmission) (store.PaymentProof, error) {
	if e.IsOperator(sub.UserID) {
		// Operator uploads are compose payloads, never proofs.
		return store.PaymentProof{}, ErrOperatorProof
	}

	acc, _, err := e.accounts.Ensure(ctx, sub.UserID, sub.DisplayName)
	if err != nil {
		return store.PaymentProof{}, fmt.Errorf("submit proof: %w", err)
	}

	claimed := sub.ClaimedPlan
	if claimed == "" {
		claimed = acc.PlanIntent
	}
	plan, known := e.catalog.Resolve(claimed)

	proof, err := e.ledger.Submit(ctx, store.PaymentProof{
		UserID:      sub.UserID,
		DisplayName: sub.DisplayName,
		PlanID:      plan.ID,
		PhotoID:     sub.PhotoID,
		DocumentID:  sub.DocumentID,
	})
	if err != nil {
		return store.PaymentProof{}, fmt.Errorf("submit proof: %w", err)
	}
	logger.Info(ctx, component, "proof.submitted",
		slog.Int64("user_id", sub.UserID),
		slog.String("plan_id", proof.PlanID),
		slog.String("proof_kind", proof.Kind()),
	)

	if ackErr := e.gateway.ProofAccepted(ctx, sub.UserID, plan, known); ackErr != nil {
		logger.Warn(ctx, component, "proof.ack_failed",
			slog.Int64("user_id", sub.UserID),
			slog.String("err", ackErr.Error()),
		)
	}

	if e.operatorID != 0 {
		if fwdErr := e.forwardProof(ctx, sub, proof, plan, known); fwdErr != nil {
			logger.Error(ctx, component, "proof.forward_failed",
				slog.Int64("user_id", sub.UserID),
				slog.Int64("chat_id", sub.ChatID),
				slog.String("err", fwdErr.Error()),
			)
		}
	}
	return proof, nil
}

func (e *Engine) forwardProof(ctx context.Context, sub ProofSubmission, proof store.PaymentProof, plan Plan, known bool) error {
	if err := e.gateway.CopyMessage(ctx, e.operatorID, sub.ChatID, sub.MessageID); err != nil {
		return fmt.Errorf("copy proof: %w", err)
	}
	if err := e.gateway.ProofForwarded(ctx, e.operatorID, proof, plan, known); err != nil {
		return fmt.Errorf("notify operator: %w", err)
	}
	return nil
}

// Approve resolves a pending payment: the ledger record is atomically
// removed, the account turns premium, and the customer is notified.
func (e *Engine) Approve(ctx context.Context, callerID, targetID int64) (store.PaymentProof, error) {
	if err := e.requireOperator(callerID); err != nil {
		return store.PaymentProof{}, err
	}
	proof, err := e.ledger.Approve(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return store.PaymentProof{}, ErrNoPendingPayment
	}
	if err != nil {
		return store.PaymentProof{}, fmt.Errorf("approve %d: %w", targetID, err)
	}
	if err := e.accounts.Approve(ctx, targetID, proof.PlanID); err != nil {
		return store.PaymentProof{}, fmt.Errorf("approve %d: %w", targetID, err)
	}
	logger.Info(ctx, component, "payment.approved",
		slog.Int64("target_id", targetID),
		slog.String("plan_id", proof.PlanID),
	)

	plan, _ := e.catalog.Resolve(proof.PlanID)
	if gwErr := e.gateway.PaymentApproved(ctx, targetID, plan); gwErr != nil {
		logger.Warn(ctx, component, "payment.approved.notify_failed",
			slog.Int64("target_id", targetID),
			slog.String("err", gwErr.Error()),
		)
	}
	return proof, nil
}

// Reject removes the pending record without touching the account, so
// the customer keeps their intent and may resubmit.
func (e *Engine) Reject(ctx context.Context, callerID, targetID int64) (store.PaymentProof, error) {
	if err := e.requireOperator(callerID); err != nil {
		return store.PaymentProof{}, err
	}
	proof, err := e.ledger.Reject(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return store.PaymentProof{}, ErrNoPendingPayment
	}
	if err != nil {
		return store.PaymentProof{}, fmt.Errorf("reject %d: %w", targetID, err)
	}
	logger.Info(ctx, component, "payment.rejected",
		slog.Int64("target_id", targetID),
		slog.String("plan_id", proof.PlanID),
	)
	if gwErr := e.gateway.PaymentRejected(ctx, targetID); gwErr != nil {
		logger.Warn(ctx, component, "payment.rejected.notify_failed",
			slog.Int64("target_id", targetID),
			slog.String("err", gwErr.Error()),
		)
	}
	return proof, nil
}

// Pending returns the insertion-ordered snapshot of unreviewed proofs.
func (e *Engine) Pending(ctx context.Context, callerID int64) ([]store.PaymentProof, error) {
	if err := e.requireOperator(callerID); err != nil {
		return nil, err
	}
	return e.ledger.ListPending(ctx)
}

// OpenCompose binds the operator to a delivery target, replacing any
// prior session. It reports whether the target account is known so the
// caller can warn, sending is still allowed either way.
func (e *Engine) OpenCompose(ctx context.Context, callerID, targetID int64) (bool, error) {
	if err := e.requireOperator(callerID); err != nil {
		return false, err
	}
	known := true
	if _, err := e.accounts.Get(ctx, targetID); errors.Is(err, store.ErrNotFound) {
		known = false
	} else if err != nil {
		return false, fmt.Errorf("open compose: %w", err)
	}
	if err := e.compose.Open(ctx, callerID, targetID); err != nil {
		return false, fmt.Errorf("open compose: %w", err)
	}
	logger.Info(ctx, component, "compose.opened",
		slog.Int64("target_id", targetID),
	)
	return known, nil
}

// CancelCompose closes the operator's session without delivering.
func (e *Engine) CancelCompose(ctx context.Context, callerID int64) (store.ComposeSession, error) {
	sess, err := e.compose.Close(ctx, callerID)
	if errors.Is(err, store.ErrNotFound) {
		return store.ComposeSession{}, ErrNoComposeSession
	}
	if err != nil {
		return store.ComposeSession{}, fmt.Errorf("cancel compose: %w", err)
	}
	logger.Info(ctx, component, "compose.cancelled",
		slog.Int64("target_id", sess.TargetID),
	)
	return sess, nil
}

// ComposeTarget reports the sender's open session, if any. The bot's
// message dispatch consults this first: a sender with an open session
// is delivering, not chatting.
func (e *Engine) ComposeTarget(ctx context.Context, senderID int64) (store.ComposeSession, bool) {
	sess, err := e.compose.Peek(ctx, senderID)
	if err != nil {
		return store.ComposeSession{}, false
	}
	return sess, true
}

// Deliver forwards the payload to the open session's target. The
// session is consumed atomically up front, so concurrent payloads race
// on the store's Close and exactly one of them sends (one delivery per
// session). An unsupported payload or a gateway failure reopens the
// session for a manual retry. On success the target account's
// delivered counter increments.
func (e *Engine) Deliver(ctx context.Context, operatorID int64, payload ComposePayload) (store.ComposeSession, error) {
	sess, err := e.compose.Close(ctx, operatorID)
	if errors.Is(err, store.ErrNotFound) {
		return store.ComposeSession{}, ErrNoComposeSession
	}
	if err != nil {
		return store.ComposeSession{}, fmt.Errorf("deliver: %w", err)
	}

	reopen := func() {
		if openErr := e.compose.Open(ctx, operatorID, sess.TargetID); openErr != nil {
			logger.Warn(ctx, component, "compose.reopen_failed",
				slog.Int64("target_id", sess.TargetID),
				slog.String("err", openErr.Error()),
			)
		}
	}

	var sendErr error
	switch {
	case payload.PhotoID != "":
		sendErr = e.gateway.SendPhoto(ctx, sess.TargetID, payload.PhotoID, payload.Caption)
	case payload.DocumentID != "":
		sendErr = e.gateway.SendDocument(ctx, sess.TargetID, payload.DocumentID, payload.Caption)
	case payload.Text != "":
		sendErr = e.gateway.SendText(ctx, sess.TargetID, payload.Text)
	default:
		reopen()
		return sess, ErrUnsupportedPayload
	}
	if sendErr != nil {
		reopen()
		return sess, &DeliveryError{TargetID: sess.TargetID, Err: sendErr}
	}

	if err := e.accounts.RecordDelivery(ctx, sess.TargetID); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn(ctx, component, "delivery.count_failed",
			slog.Int64("target_id", sess.TargetID),
			slog.String("err", err.Error()),
		)
	}
	logger.Info(ctx, component, "compose.delivered",
		slog.Int64("target_id", sess.TargetID),
	)
	return sess, nil
}

// ClearPending bulk-deletes the ledger.
func (e *Engine) ClearPending(ctx context.Context, callerID int64) error {
	if err := e.requireOperator(callerID); err != nil {
		return err
	}
	if err := e.ledger.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear pending: %w", err)
	}
	logger.Info(ctx, component, "ledger.cleared")
	return nil
}

// ResetAll clears accounts, pending payments, and compose sessions.
func (e *Engine) ResetAll(ctx context.Context, callerID int64) error {
	if err := e.requireOperator(callerID); err != nil {
		return err
	}
	if err := e.accounts.Reset(ctx); err != nil {
		return fmt.Errorf("reset: accounts: %w", err)
	}
	if err := e.ledger.ClearAll(ctx); err != nil {
		return fmt.Errorf("reset: ledger: %w", err)
	}
	if err := e.compose.Reset(ctx); err != nil {
		return fmt.Errorf("reset: compose: %w", err)
	}
	logger.Info(ctx, component, "state.reset")
	return nil
}

func (e *Engine) requireOperator(callerID int64) error {
	if !e.IsOperator(callerID) {
		return ErrUnauthorized
	}
	return nil
}
