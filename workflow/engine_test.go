package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/store/memory"
)

const operatorID = int64(999)

type call struct {
	kind   string
	to     int64
	detail string
}

// fakeGateway records outbound notifications and can be told to fail
// specific call kinds. When sendEntered/sendGate are set before the
// test spawns goroutines, SendText signals entry and blocks until the
// gate closes, so tests can hold a delivery in flight.
type fakeGateway struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]error

	sendEntered chan struct{}
	sendGate    chan struct{}
}

func (g *fakeGateway) record(kind string, to int64, detail string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[kind]; err != nil {
		return err
	}
	g.calls = append(g.calls, call{kind: kind, to: to, detail: detail})
	return nil
}

func (g *fakeGateway) setFail(kind string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail == nil {
		g.fail = make(map[string]error)
	}
	g.fail[kind] = err
}

func (g *fakeGateway) last(kind string) (call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.calls) - 1; i >= 0; i-- {
		if g.calls[i].kind == kind {
			return g.calls[i], true
		}
	}
	return call{}, false
}

func (g *fakeGateway) count(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func (g *fakeGateway) SendText(_ context.Context, to int64, text string) error {
	if g.sendEntered != nil {
		g.sendEntered <- struct{}{}
		<-g.sendGate
	}
	return g.record("send_text", to, text)
}

func (g *fakeGateway) SendPhoto(_ context.Context, to int64, fileID, caption string) error {
	return g.record("send_photo", to, fileID)
}

func (g *fakeGateway) SendDocument(_ context.Context, to int64, fileID, caption string) error {
	return g.record("send_document", to, fileID)
}

func (g *fakeGateway) CopyMessage(_ context.Context, to, fromChat int64, messageID int) error {
	return g.record("copy", to, fmt.Sprintf("%d/%d", fromChat, messageID))
}

func (g *fakeGateway) OperatorOnboarded(_ context.Context, operator int64) error {
	return g.record("operator_onboarded", operator, "")
}

func (g *fakeGateway) ProofAccepted(_ context.Context, userID int64, plan Plan, known bool) error {
	return g.record("proof_accepted", userID, fmt.Sprintf("%s known=%t", plan.ID, known))
}

func (g *fakeGateway) ProofForwarded(_ context.Context, operator int64, proof store.PaymentProof, plan Plan, known bool) error {
	return g.record("proof_forwarded", operator, fmt.Sprintf("user=%d plan=%s", proof.UserID, plan.ID))
}

func (g *fakeGateway) PaymentApproved(_ context.Context, userID int64, plan Plan) error {
	return g.record("payment_approved", userID, plan.ID)
}

func (g *fakeGateway) PaymentRejected(_ context.Context, userID int64) error {
	return g.record("payment_rejected", userID, "")
}

func newTestEngine(t *testing.T) (*Engine, *fakeGateway) {
	t.Helper()
	catalog, err := NewCatalog([]Plan{{ID: "tier3", Name: "Premium Tips", Price: "100 GHS", Units: "10 Odds"}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	gw := &fakeGateway{}
	eng, err := New(Config{
		OperatorID: operatorID,
		Catalog:    catalog,
		Accounts:   memory.NewAccounts(),
		Ledger:     memory.NewLedger(),
		Compose:    memory.NewCompose(),
		Gateway:    gw,
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng, gw
}

func submitPhotoProof(t *testing.T, eng *Engine, userID int64) store.PaymentProof {
	t.Helper()
	proof, err := eng.SubmitProof(context.Background(), ProofSubmission{
		UserID:      userID,
		DisplayName: "alice",
		ChatID:      userID,
		MessageID:   7,
		PhotoID:     "photo-1",
	})
	if err != nil {
		t.Fatalf("submit proof: %v", err)
	}
	return proof
}

func TestFullSubscriptionFlow(t *testing.T) {
	ctx := context.Background()
	eng, gw := newTestEngine(t)

	if _, _, err := eng.Register(ctx, 42, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	plan, err := eng.SelectPlan(ctx, 42, "alice", "tier3")
	if err != nil {
		t.Fatalf("select plan: %v", err)
	}
	if plan.ID != "tier3" {
		t.Fatalf("unexpected plan %q", plan.ID)
	}

	proof := submitPhotoProof(t, eng, 42)
	if proof.PlanID != "tier3" || proof.Kind() != "photo" {
		t.Fatalf("stored proof wrong: %+v", proof)
	}
	if _, ok := gw.last("proof_accepted"); !ok {
		t.Fatal("customer was not acknowledged")
	}
	if c, ok := gw.last("copy"); !ok || c.to != operatorID {
		t.Fatalf("proof not relayed to operator: %+v", c)
	}
	if c, ok := gw.last("proof_forwarded"); !ok || c.to != operatorID {
		t.Fatalf("operator not notified: %+v", c)
	}

	pending, err := eng.Pending(ctx, operatorID)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending: %v (%d records)", err, len(pending))
	}

	if _, err := eng.Approve(ctx, operatorID, 42); err != nil {
		t.Fatalf("approve: %v", err)
	}
	acc, err := eng.Account(ctx, 42)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if !acc.Premium || acc.PlanIntent != "" {
		t.Fatalf("expected premium account with cleared intent, got %+v", acc)
	}
	if c, ok := gw.last("payment_approved"); !ok || c.to != 42 {
		t.Fatalf("customer not told about approval: %+v", c)
	}
	if pending, _ := eng.Pending(ctx, operatorID); len(pending) != 0 {
		t.Fatalf("ledger still has %d records after approve", len(pending))
	}

	known, err := eng.OpenCompose(ctx, operatorID, 42)
	if err != nil || !known {
		t.Fatalf("open compose: known=%t err=%v", known, err)
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); !open {
		t.Fatal("compose session missing after open")
	}

	const tip = "Over 2.5 goals: Arsenal vs Spurs"
	sess, err := eng.Deliver(ctx, operatorID, ComposePayload{Text: tip})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if sess.TargetID != 42 {
		t.Fatalf("delivered to wrong target %d", sess.TargetID)
	}
	if c, ok := gw.last("send_text"); !ok || c.to != 42 || c.detail != tip {
		t.Fatalf("payload not forwarded verbatim: %+v", c)
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); open {
		t.Fatal("session must close after a successful delivery")
	}
	acc, _ = eng.Account(ctx, 42)
	if acc.Delivered != 1 {
		t.Fatalf("delivered counter = %d, want 1", acc.Delivered)
	}
}

func TestOperatorOnlyActions(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	checks := map[string]func() error{
		"approve": func() error { _, err := eng.Approve(ctx, 42, 1); return err },
		"reject":  func() error { _, err := eng.Reject(ctx, 42, 1); return err },
		"pending": func() error { _, err := eng.Pending(ctx, 42); return err },
		"compose": func() error { _, err := eng.OpenCompose(ctx, 42, 1); return err },
		"clear":   func() error { return eng.ClearPending(ctx, 42) },
		"reset":   func() error { return eng.ResetAll(ctx, 42) },
	}
	for name, fn := range checks {
		if err := fn(); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s by non-operator: want ErrUnauthorized, got %v", name, err)
		}
	}
}

func TestOperatorUploadIsNotAProof(t *testing.T) {
	eng, gw := newTestEngine(t)

	_, err := eng.SubmitProof(context.Background(), ProofSubmission{UserID: operatorID, PhotoID: "p"})
	if !errors.Is(err, ErrOperatorProof) {
		t.Fatalf("want ErrOperatorProof, got %v", err)
	}
	if n := gw.count("proof_forwarded"); n != 0 {
		t.Fatalf("operator upload must not be forwarded, got %d notifications", n)
	}
}

func TestProofWithoutIntentFallsBackToDefaultPlan(t *testing.T) {
	eng, gw := newTestEngine(t)

	proof := submitPhotoProof(t, eng, 50)
	if proof.PlanID != "tier3" {
		t.Fatalf("want default plan, got %q", proof.PlanID)
	}
	if c, _ := gw.last("proof_accepted"); c.detail != "tier3 known=true" {
		t.Fatalf("ack detail = %q", c.detail)
	}
}

func TestUnknownClaimedPlanStoredVerbatim(t *testing.T) {
	eng, gw := newTestEngine(t)

	proof, err := eng.SubmitProof(context.Background(), ProofSubmission{
		UserID: 51, ChatID: 51, MessageID: 1, DocumentID: "doc-1", ClaimedPlan: "tier9",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if proof.PlanID != "tier9" {
		t.Fatalf("claimed plan rewritten to %q", proof.PlanID)
	}
	if c, _ := gw.last("proof_accepted"); c.detail != "tier9 known=false" {
		t.Fatalf("ack detail = %q", c.detail)
	}
}

func TestForwardFailureDoesNotBlockSubmission(t *testing.T) {
	ctx := context.Background()
	eng, gw := newTestEngine(t)
	gw.setFail("copy", errors.New("network down"))

	submitPhotoProof(t, eng, 60)

	if _, ok := gw.last("proof_accepted"); !ok {
		t.Fatal("customer ack must survive a forward failure")
	}
	pending, err := eng.Pending(ctx, operatorID)
	if err != nil || len(pending) != 1 {
		t.Fatalf("proof must still be recorded: %v (%d)", err, len(pending))
	}
}

func TestRejectKeepsAccountAndIntent(t *testing.T) {
	ctx := context.Background()
	eng, gw := newTestEngine(t)

	if _, err := eng.SelectPlan(ctx, 42, "alice", "tier3"); err != nil {
		t.Fatalf("select plan: %v", err)
	}
	submitPhotoProof(t, eng, 42)

	if _, err := eng.Reject(ctx, operatorID, 42); err != nil {
		t.Fatalf("reject: %v", err)
	}
	acc, err := eng.Account(ctx, 42)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acc.Premium {
		t.Fatal("reject must not grant premium")
	}
	if acc.PlanIntent != "tier3" {
		t.Fatalf("intent lost on reject: %q", acc.PlanIntent)
	}
	if c, ok := gw.last("payment_rejected"); !ok || c.to != 42 {
		t.Fatalf("customer not told about rejection: %+v", c)
	}
	if _, err := eng.Reject(ctx, operatorID, 42); !errors.Is(err, ErrNoPendingPayment) {
		t.Fatalf("second reject: want ErrNoPendingPayment, got %v", err)
	}
}

func TestApproveWithoutPending(t *testing.T) {
	eng, _ := newTestEngine(t)

	if _, err := eng.Approve(context.Background(), operatorID, 42); !errors.Is(err, ErrNoPendingPayment) {
		t.Fatalf("want ErrNoPendingPayment, got %v", err)
	}
}

func TestComposeUnknownTargetStillOpens(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	known, err := eng.OpenCompose(ctx, operatorID, 123)
	if err != nil {
		t.Fatalf("open compose: %v", err)
	}
	if known {
		t.Fatal("target 123 was never registered")
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); !open {
		t.Fatal("session must open even for unknown targets")
	}
}

func TestDeliverUnsupportedPayloadKeepsSession(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	if _, err := eng.OpenCompose(ctx, operatorID, 42); err != nil {
		t.Fatalf("open compose: %v", err)
	}
	if _, err := eng.Deliver(ctx, operatorID, ComposePayload{}); !errors.Is(err, ErrUnsupportedPayload) {
		t.Fatalf("want ErrUnsupportedPayload, got %v", err)
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); !open {
		t.Fatal("session must survive an unsupported payload")
	}
}

func TestDeliverFailureKeepsSessionForRetry(t *testing.T) {
	ctx := context.Background()
	eng, gw := newTestEngine(t)

	if _, err := eng.OpenCompose(ctx, operatorID, 42); err != nil {
		t.Fatalf("open compose: %v", err)
	}

	gw.setFail("send_text", errors.New("flood limit"))
	_, err := eng.Deliver(ctx, operatorID, ComposePayload{Text: "tip"})
	var dErr *DeliveryError
	if !errors.As(err, &dErr) || dErr.TargetID != 42 {
		t.Fatalf("want DeliveryError for 42, got %v", err)
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); !open {
		t.Fatal("session must survive a gateway failure")
	}

	gw.setFail("send_text", nil)
	if _, err := eng.Deliver(ctx, operatorID, ComposePayload{Text: "tip"}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); open {
		t.Fatal("session must close after the successful retry")
	}
}

func TestConcurrentDeliverSingleShot(t *testing.T) {
	ctx := context.Background()
	eng, gw := newTestEngine(t)

	if _, _, err := eng.Register(ctx, 42, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := eng.OpenCompose(ctx, operatorID, 42); err != nil {
		t.Fatalf("open compose: %v", err)
	}

	gw.sendEntered = make(chan struct{})
	gw.sendGate = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		_, err := eng.Deliver(ctx, operatorID, ComposePayload{Text: "tip"})
		first <- err
	}()
	// The session is consumed and the send is held in flight.
	<-gw.sendEntered

	if _, err := eng.Deliver(ctx, operatorID, ComposePayload{Text: "tip"}); !errors.Is(err, ErrNoComposeSession) {
		t.Fatalf("second deliver while first in flight: want ErrNoComposeSession, got %v", err)
	}

	close(gw.sendGate)
	if err := <-first; err != nil {
		t.Fatalf("first deliver: %v", err)
	}

	if n := gw.count("send_text"); n != 1 {
		t.Fatalf("payload sent %d times, want 1", n)
	}
	acc, err := eng.Account(ctx, 42)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acc.Delivered != 1 {
		t.Fatalf("delivered counter = %d, want 1", acc.Delivered)
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); open {
		t.Fatal("session must stay closed after the single delivery")
	}
}

func TestCancelCompose(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	if _, err := eng.CancelCompose(ctx, operatorID); !errors.Is(err, ErrNoComposeSession) {
		t.Fatalf("cancel without session: want ErrNoComposeSession, got %v", err)
	}
	if _, err := eng.OpenCompose(ctx, operatorID, 42); err != nil {
		t.Fatalf("open compose: %v", err)
	}
	sess, err := eng.CancelCompose(ctx, operatorID)
	if err != nil || sess.TargetID != 42 {
		t.Fatalf("cancel: sess=%+v err=%v", sess, err)
	}
	if _, err := eng.Deliver(ctx, operatorID, ComposePayload{Text: "tip"}); !errors.Is(err, ErrNoComposeSession) {
		t.Fatalf("deliver after cancel: want ErrNoComposeSession, got %v", err)
	}
}

func TestOperatorOnboardedOnce(t *testing.T) {
	ctx := context.Background()
	eng, gw := newTestEngine(t)

	if _, _, err := eng.Register(ctx, operatorID, "boss"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := eng.Register(ctx, operatorID, "boss"); err != nil {
		t.Fatalf("register again: %v", err)
	}
	if n := gw.count("operator_onboarded"); n != 1 {
		t.Fatalf("onboarding notice sent %d times, want 1", n)
	}
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	if _, _, err := eng.Register(ctx, 42, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	submitPhotoProof(t, eng, 42)
	if _, err := eng.OpenCompose(ctx, operatorID, 42); err != nil {
		t.Fatalf("open compose: %v", err)
	}

	if err := eng.ResetAll(ctx, operatorID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := eng.Account(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("accounts survived reset: %v", err)
	}
	if pending, _ := eng.Pending(ctx, operatorID); len(pending) != 0 {
		t.Fatalf("ledger survived reset: %d records", len(pending))
	}
	if _, open := eng.ComposeTarget(ctx, operatorID); open {
		t.Fatal("compose sessions survived reset")
	}
}
