package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/oddsdesk/tipsterbot/core/config"
	"github.com/oddsdesk/tipsterbot/core/telegram/format"
	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/workflow"
)

// texts renders every customer and operator facing message in HTML
// parse mode. All user-controlled values pass through EscapeHTML.
type texts struct {
	payment coreconfig.PaymentConfig
}

func (t texts) owner() string {
	return format.EscapeHTML(t.payment.Owner)
}

func (t texts) planLine(plan workflow.Plan) string {
	return fmt.Sprintf("💰 %s - %s", format.EscapeHTML(plan.Price), format.EscapeHTML(plan.Units))
}

func (t texts) welcome(user *tele.User, plan workflow.Plan) string {
	name := ""
	if user != nil {
		name = user.FirstName
		if name == "" {
			name = user.Username
		}
	}
	return fmt.Sprintf(
		"<b>Welcome to %s! 🎲</b>\n\n"+
			"Hi %s!\n\n"+
			"<b>Available Plan:</b>\n%s\n\n"+
			"<b>Features:</b>\n"+
			"✅ Daily betting odds\n✅ Expert analysis\n✅ Multiple sports covered\n✅ High accuracy predictions\n\n"+
			"Subscribe now to unlock premium tips!",
		t.owner(), format.EscapeHTML(name), t.planLine(plan),
	)
}

func (t texts) menu(plan workflow.Plan) string {
	return fmt.Sprintf(
		"<b>Welcome to %s! 🎲</b>\n\n<b>Available Plan:</b>\n%s",
		t.owner(), t.planLine(plan),
	)
}

func (t texts) shortWelcome() string {
	return fmt.Sprintf(
		"<b>Welcome to %s! 🎲</b>\n\nGet expert betting predictions and tips from our AI-powered analysis.",
		t.owner(),
	)
}

func (t texts) help(plan workflow.Plan) string {
	return fmt.Sprintf(
		"<b>%s - Help</b>\n\n"+
			"<b>Commands:</b>\n"+
			"/start, /pay, /status, /tips, /help\n\n"+
			"<b>Available Plan:</b>\n%s\n\n"+
			"<b>How to subscribe:</b>\n"+
			"1. Open /start\n"+
			"2. Tap 'Pay with Paystack' or pay via MoMo\n"+
			"3. MOMO Number: %s\n"+
			"4. Send screenshot if you didn't use Paystack\n"+
			"5. Wait for approval and receive your odds\n\n"+
			"<b>Contact Support:</b> Reply with 'support'",
		t.owner(), t.planLine(plan), format.EscapeHTML(t.payment.Number),
	)
}

func (t texts) status(acc store.Account) string {
	status := "❌ Free"
	if acc.Premium {
		status = "✅ Premium"
	}
	return fmt.Sprintf(
		"<b>Your Account Status</b>\n\n"+
			"Status: %s\n"+
			"Tips Received: %d\n"+
			"Joined: %s",
		status, acc.Delivered, acc.CreatedAt.Format("2006-01-02"),
	)
}

func (t texts) startFirst() string {
	return "Please use /start first to initialize your account."
}

func (t texts) premiumTeaser() string {
	return "<b>Premium Content</b>\n\n" +
		"Subscribe to get access to today's betting tips!\n\n" +
		"Our premium members receive:\n" +
		"🎯 Daily expert predictions\n" +
		"📊 Detailed analysis\n" +
		"💰 High-value betting opportunities"
}

func (t texts) tipsPending() string {
	return fmt.Sprintf(
		"<b>🎯 Premium Tips Delivery</b>\n\n"+
			"Your odds will be sent to you as an image by the admin shortly.\n\n"+
			"If you haven't received it, reply with 'support' to contact %s.",
		t.owner(),
	)
}

func (t texts) pay() string {
	return "<b>Secure Payment</b>\n\n" +
		"Tap the button below to pay with Paystack.\n\n" +
		"If you pay via mobile money directly, please send a screenshot for verification."
}

func (t texts) subscribe(plan workflow.Plan) string {
	return fmt.Sprintf(
		"<b>Subscribe to %s</b>\n\n"+
			"<b>Price: %s</b>\n"+
			"<b>You'll get: %s</b>\n\n"+
			"<b>📱 Payment Details:</b>\n"+
			"Method: %s\n"+
			"Number: %s\n"+
			"Name: %s\n\n"+
			"<b>Send %s to the above number</b>\n\n"+
			"After payment:\n"+
			"1️⃣ Take a screenshot of the payment\n"+
			"2️⃣ Click 'Send Payment Screenshot'\n"+
			"3️⃣ Upload the screenshot\n"+
			"4️⃣ Wait for approval from %s\n\n"+
			"<i>Your odds will be sent after approval</i>",
		format.EscapeHTML(plan.Name),
		format.EscapeHTML(plan.Price),
		format.EscapeHTML(plan.Units),
		format.EscapeHTML(t.payment.Method),
		format.EscapeHTML(t.payment.Number),
		format.EscapeHTML(t.payment.Name),
		format.EscapeHTML(plan.Price),
		t.owner(),
	)
}

func (t texts) uploadInstructions() string {
	return "<b>📸 Send Payment Screenshot</b>\n\n" +
		"Please send a screenshot of your payment confirmation.\n" +
		"Make sure it clearly shows your amount, recipient number, reference, and name."
}

func (t texts) howItWorks(plan workflow.Plan) string {
	return fmt.Sprintf(
		"<b>How %s Works</b>\n\n"+
			"1️⃣ <b>Choose Plan</b> - %s for %s\n"+
			"2️⃣ <b>Pay</b> - Use the Paystack button or pay via %s to %s\n"+
			"3️⃣ <b>Send Screenshot</b> - If you didn't use Paystack\n"+
			"4️⃣ <b>Get Approved</b> - Wait for %s to verify\n"+
			"5️⃣ <b>Receive Tips</b> - Get your daily betting odds\n\n"+
			"<b>Available Plan:</b>\n%s\n\n"+
			"<b>Payment To:</b> %s\n<b>%s:</b> %s",
		t.owner(),
		format.EscapeHTML(plan.Price), format.EscapeHTML(plan.Units),
		format.EscapeHTML(t.payment.Method), format.EscapeHTML(t.payment.Number),
		t.owner(),
		t.planLine(plan),
		format.EscapeHTML(t.payment.Name),
		format.EscapeHTML(t.payment.Method), format.EscapeHTML(t.payment.Number),
	)
}

func (t texts) operatorWelcome() string {
	return "<b>👋 Welcome Admin!</b>\n\n" +
		"You are now set up to receive payment screenshots and notifications.\n\n" +
		"Commands:\n/pending, /approve [user_id], /test"
}

func (t texts) proofAccepted(plan workflow.Plan, known bool) string {
	details := ""
	if known {
		details = fmt.Sprintf(
			"Plan: %s\nAmount: %s\nOdds: %s\n\n",
			format.EscapeHTML(plan.Name),
			format.EscapeHTML(plan.Price),
			format.EscapeHTML(plan.Units),
		)
	}
	return fmt.Sprintf(
		"<b>✅ Screenshot Received!</b>\n\n"+
			"Thank you for sending your payment proof.\n\n"+
			"%s"+
			"Your screenshot has been sent to %s for verification.\nYou'll receive your odds once approved.",
		details, t.owner(),
	)
}

func (t texts) proofForwarded(proof store.PaymentProof, plan workflow.Plan, known bool) string {
	planName := format.EscapeHTML(plan.Name)
	amount := format.EscapeHTML(plan.Price)
	odds := format.EscapeHTML(plan.Units)
	if !known {
		planName = format.EscapeHTML(proof.PlanID) + " (unknown plan)"
		amount, odds = "-", "-"
	}
	return fmt.Sprintf(
		"<b>📸 New Payment Screenshot</b>\n\n"+
			"User: %s\n"+
			"User ID: %d\n"+
			"Plan: %s\n"+
			"Amount: %s\n"+
			"Odds: %s\n\n"+
			"Tap below to send the game now.",
		format.EscapeHTML(proof.DisplayName), proof.UserID, planName, amount, odds,
	)
}

func (t texts) paymentApproved(plan workflow.Plan) string {
	return fmt.Sprintf(
		"<b>✅ Payment Approved!</b>\n\n"+
			"Your %s subscription is now active.\n"+
			"Your odds will be delivered by %s shortly.",
		format.EscapeHTML(plan.Name), t.owner(),
	)
}

func (t texts) paymentRejected() string {
	return fmt.Sprintf(
		"<b>❌ Payment Not Verified</b>\n\n"+
			"Your payment proof could not be verified.\n"+
			"Please double-check the payment and send a new screenshot, or contact %s for support.",
		t.owner(),
	)
}

func (t texts) approvedSummary(proof store.PaymentProof, plan workflow.Plan) string {
	return fmt.Sprintf(
		"<b>✅ Payment Approved!</b>\n\nUser: %s\n"+
			"Plan: %s\nAmount: %s\n\n"+
			"Use /send %d to deliver the predictions now.",
		format.EscapeHTML(proof.DisplayName),
		format.EscapeHTML(plan.Name),
		format.EscapeHTML(plan.Price),
		proof.UserID,
	)
}

func (t texts) pendingList(proofs []store.PaymentProof, resolve func(string) (workflow.Plan, bool)) string {
	if len(proofs) == 0 {
		return "<b>✅ No Pending Payments</b>\n\nAll payments have been processed!"
	}
	var b strings.Builder
	b.WriteString("<b>📋 Pending Payments</b>\n\n")
	for i, p := range proofs {
		plan, known := resolve(p.PlanID)
		planName := format.EscapeHTML(plan.Name)
		amount := format.EscapeHTML(plan.Price)
		odds := format.EscapeHTML(plan.Units)
		if !known {
			planName = format.EscapeHTML(p.PlanID) + " (unknown plan)"
			amount, odds = "-", "-"
		}
		fmt.Fprintf(&b,
			"<b>Payment #%d</b>\n"+
				"User: %s\n"+
				"User ID: %d\n"+
				"Plan: %s\n"+
				"Amount: %s\n"+
				"Odds: %s\n"+
				"Status: ⏳ Awaiting Approval\n"+
				"Screenshot: Received ✅\n"+
				"Time: %s\n\n",
			i+1,
			format.EscapeHTML(p.DisplayName),
			p.UserID,
			planName,
			amount,
			odds,
			p.SubmittedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return b.String()
}

func (t texts) myID(userID int64) string {
	return fmt.Sprintf(
		"<b>Your Telegram User ID:</b>\n\n<code>%d</code>\n\n"+
			"Add to .env as TELEGRAM_ADMIN_ID and restart bot.",
		userID,
	)
}

func (t texts) testAdmin(adminID int64) string {
	return fmt.Sprintf(
		"<b>✅ Admin Mode Active!</b>\n\nYour ID: %d\nReady to receive payments!",
		adminID,
	)
}

func (t texts) testUser(userID int64) string {
	return fmt.Sprintf("✅ Bot is working!\n\nYour ID: %d", userID)
}

func (t texts) support() string {
	return fmt.Sprintf(
		"📧 <b>Support Request Received</b>\n\n"+
			"Contact %s directly for support. Use /help for common questions.",
		t.owner(),
	)
}

func (t texts) fallback() string {
	return fmt.Sprintf(
		"<b>Welcome to %s! 🎲</b>\n\nUse /start to get started or /help for more information.",
		t.owner(),
	)
}

func (t texts) composeOpened(known bool) string {
	msg := "✉️ Compose mode: send the odds now (text/photo/document).\nUse /cancel_send to cancel."
	if !known {
		msg = "Warning: user not found in database. You can still send.\n\n" + msg
	}
	return msg
}
