package bot

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/oddsdesk/tipsterbot/core/telegram/helpers"
	"github.com/oddsdesk/tipsterbot/workflow"
)

// Resolve routes free-form messages by sender state rather than
// content. An operator with an open compose session is always
// delivering; any other sender's photo or document is a payment proof.
// Plain customer text falls through to the registry's command lookup
// and text fallback.
func (a *App) Resolve(c tele.Context) (string, tele.HandlerFunc, bool) {
	sender := c.Sender()
	if sender == nil || c.Message() == nil {
		return "", nil, false
	}
	if a.engine.IsOperator(sender.ID) {
		if _, open := a.engine.ComposeTarget(tghelpers.BuildContext(c), sender.ID); open {
			return "compose.deliver", a.deliverCompose, true
		}
		return "", nil, false
	}
	m := c.Message()
	if m.Photo != nil || m.Document != nil {
		return "proof.intake", a.intakeProof, true
	}
	return "", nil, false
}

func (a *App) deliverCompose(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	m := c.Message()

	var payload workflow.ComposePayload
	switch {
	case m.Photo != nil:
		payload.PhotoID = m.Photo.FileID
		payload.Caption = m.Caption
	case m.Document != nil:
		payload.DocumentID = m.Document.FileID
		payload.Caption = m.Caption
	default:
		payload.Text = m.Text
	}

	sess, err := a.engine.Deliver(ctx, c.Sender().ID, payload)
	if errors.Is(err, workflow.ErrUnsupportedPayload) {
		return tghelpers.SendText(c, "Unsupported message type. Send text, a photo, or a document, or /cancel_send to exit.")
	}
	var dErr *workflow.DeliveryError
	if errors.As(err, &dErr) {
		return tghelpers.SendText(c, fmt.Sprintf("❌ Failed to deliver to user %d. Please try again.", dErr.TargetID))
	}
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Game delivered to user %d.", sess.TargetID))
}

func (a *App) intakeProof(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	m := c.Message()
	sender := c.Sender()

	sub := workflow.ProofSubmission{
		UserID:      sender.ID,
		DisplayName: displayName(sender),
		ChatID:      m.Chat.ID,
		MessageID:   m.ID,
	}
	if m.Photo != nil {
		sub.PhotoID = m.Photo.FileID
	} else if m.Document != nil {
		sub.DocumentID = m.Document.FileID
	}

	// Acknowledgment and operator forwarding happen inside the engine.
	_, err := a.engine.SubmitProof(ctx, sub)
	return err
}

// unknownMedia answers payloads no mode claimed: the operator gets the
// compose hint, customers get the proof-format hint.
func (a *App) unknownMedia(c tele.Context) error {
	if sender := c.Sender(); sender != nil && a.engine.IsOperator(sender.ID) {
		return tghelpers.SendText(c, "No compose session open. Use /send <user_id> first.")
	}
	return tghelpers.SendText(c, "To verify a payment, send the screenshot as a photo or document.")
}

// textFallback answers customer text that matched no command. A rough
// keyword check routes payment questions to the support blurb.
func (a *App) textFallback(c tele.Context) error {
	lower := strings.ToLower(c.Text())
	if strings.Contains(lower, "help") || strings.Contains(lower, "support") || strings.Contains(lower, "payment") {
		return tghelpers.SendHTML(c, a.texts.support())
	}
	return tghelpers.SendHTML(c, a.texts.fallback(), a.kb.mainMenu(a.engine.Catalog().Default()))
}
