package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/oddsdesk/tipsterbot/core/telegram/keyboard"
	"github.com/oddsdesk/tipsterbot/workflow"
)

// Callback keys. Payloads carry the plan id or target user id.
const (
	cbSubscribe = "subscribe"
	cbUpload    = "upload"
	cbTips      = "get_tips"
	cbHow       = "how_it_works"
	cbCancel    = "cancel"
	cbCompose   = "admin_send"
	cbApprove   = "approve"
)

type keyboards struct {
	paystackLink string
}

func (k keyboards) paystackBtn() keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: "💳 Pay with Paystack", URL: k.paystackLink}
}

func (k keyboards) subscribeBtn(plan workflow.Plan, label string) keyboard.InlineBtn {
	if label == "" {
		label = fmt.Sprintf("💳 %s - %s", plan.Price, plan.Units)
	}
	return keyboard.InlineBtn{Text: label, Unique: cbSubscribe, Data: plan.ID}
}

// mainMenu is the /start and /menu keyboard.
func (k keyboards) mainMenu(plan workflow.Plan) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		k.paystackBtn(),
		k.subscribeBtn(plan, ""),
		{Text: "ℹ️ How It Works", Unique: cbHow},
	})
}

// payMenu omits the how-it-works row.
func (k keyboards) payMenu(plan workflow.Plan) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		k.paystackBtn(),
		k.subscribeBtn(plan, ""),
	})
}

// subscribeMenu guides the customer from payment to proof upload.
func (k keyboards) subscribeMenu(plan workflow.Plan) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		k.paystackBtn(),
		{Text: "📸 Send Payment Screenshot", Unique: cbUpload, Data: plan.ID},
		{Text: "❌ Cancel", Unique: cbCancel},
	})
}

// statusMenu nudges free accounts towards subscribing.
func (k keyboards) statusMenu(plan workflow.Plan) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		k.paystackBtn(),
		k.subscribeBtn(plan, "🔔 Subscribe Now"),
	})
}

// reviewMenu attaches operator controls to a forwarded proof.
func (k keyboards) reviewMenu(userID int64) *tele.ReplyMarkup {
	uid := strconv.FormatInt(userID, 10)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Approve", Unique: cbApprove, Data: uid}},
		[]keyboard.InlineBtn{{Text: "✉️ Send Game", Unique: cbCompose, Data: uid}},
	)
}
