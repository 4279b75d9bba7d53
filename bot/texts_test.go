package bot

import (
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/oddsdesk/tipsterbot/core/config"
	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/workflow"
)

func testTexts() texts {
	return texts{payment: coreconfig.PaymentConfig{
		Method: "MTN Mobile Money",
		Number: "0241234567",
		Name:   "Sports Tips",
		Owner:  "Tipster",
	}}
}

func testPlan() workflow.Plan {
	return workflow.Plan{ID: "tier3", Name: "Premium Tips", Price: "100 GHS", Units: "10 Odds"}
}

func TestWelcomeEscapesUserName(t *testing.T) {
	tx := testTexts()
	user := &tele.User{FirstName: "<script>alert(1)</script>"}

	got := tx.welcome(user, testPlan())
	if strings.Contains(got, "<script>") {
		t.Fatal("user name rendered unescaped")
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped name in: %s", got)
	}
	if !strings.Contains(got, "💰 100 GHS - 10 Odds") {
		t.Fatalf("plan line missing: %s", got)
	}
}

func TestSubscribeShowsPaymentRail(t *testing.T) {
	got := testTexts().subscribe(testPlan())

	for _, want := range []string{"MTN Mobile Money", "0241234567", "Sports Tips", "100 GHS", "10 Odds"} {
		if !strings.Contains(got, want) {
			t.Errorf("subscribe text missing %q", want)
		}
	}
}

func TestProofForwardedDegradesOnUnknownPlan(t *testing.T) {
	tx := testTexts()
	proof := store.PaymentProof{UserID: 42, DisplayName: "alice", PlanID: "tier9"}

	got := tx.proofForwarded(proof, workflow.Plan{ID: "tier9"}, false)
	if !strings.Contains(got, "tier9 (unknown plan)") {
		t.Fatalf("unknown plan not marked: %s", got)
	}
	if !strings.Contains(got, "Amount: -") {
		t.Fatalf("unknown plan must blank the amount: %s", got)
	}
}

func TestProofAcceptedOmitsDetailsForUnknownPlan(t *testing.T) {
	tx := testTexts()

	known := tx.proofAccepted(testPlan(), true)
	if !strings.Contains(known, "Plan: Premium Tips") {
		t.Fatalf("known plan details missing: %s", known)
	}
	unknown := tx.proofAccepted(workflow.Plan{ID: "tier9"}, false)
	if strings.Contains(unknown, "Plan:") {
		t.Fatalf("unknown plan must omit details: %s", unknown)
	}
}

func TestPendingListNumbersEntries(t *testing.T) {
	tx := testTexts()
	resolve := func(id string) (workflow.Plan, bool) {
		if id == "tier3" {
			return testPlan(), true
		}
		return workflow.Plan{ID: id}, false
	}

	if got := tx.pendingList(nil, resolve); !strings.Contains(got, "No Pending Payments") {
		t.Fatalf("empty list text wrong: %s", got)
	}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	proofs := []store.PaymentProof{
		{UserID: 1, DisplayName: "a", PlanID: "tier3", SubmittedAt: now},
		{UserID: 2, DisplayName: "b", PlanID: "tier9", SubmittedAt: now},
	}
	got := tx.pendingList(proofs, resolve)
	if !strings.Contains(got, "Payment #1") || !strings.Contains(got, "Payment #2") {
		t.Fatalf("entries not numbered: %s", got)
	}
	if !strings.Contains(got, "tier9 (unknown plan)") {
		t.Fatalf("unknown plan entry not degraded: %s", got)
	}
}

func TestComposeOpenedWarnsOnUnknownTarget(t *testing.T) {
	tx := testTexts()

	if got := tx.composeOpened(true); strings.Contains(got, "Warning") {
		t.Fatalf("known target must not warn: %s", got)
	}
	if got := tx.composeOpened(false); !strings.HasPrefix(got, "Warning") {
		t.Fatalf("unknown target must warn first: %s", got)
	}
}
