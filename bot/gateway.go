package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/workflow"
)

// Gateway implements workflow.Gateway over a Telebot instance. The bot
// is bound at startup because telebot builds it inside the run loop;
// every send before Bind fails fast.
type Gateway struct {
	bot   atomic.Pointer[tele.Bot]
	texts texts
	kb    keyboards
}

// NewGateway builds an unbound gateway with the presentation config.
func NewGateway(t texts, kb keyboards) *Gateway {
	return &Gateway{texts: t, kb: kb}
}

// Bind attaches the live bot instance.
func (g *Gateway) Bind(b *tele.Bot) {
	g.bot.Store(b)
}

func (g *Gateway) client() (*tele.Bot, error) {
	b := g.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("gateway: bot not bound")
	}
	return b, nil
}

func htmlOpts(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
}

// SendText delivers plain text to a chat identity.
func (g *Gateway) SendText(_ context.Context, to int64, text string) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: to}, text)
	return err
}

// SendPhoto delivers a photo by file id with an optional caption.
func (g *Gateway) SendPhoto(_ context.Context, to int64, fileID, caption string) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	_, err = b.Send(&tele.User{ID: to}, photo)
	return err
}

// SendDocument delivers a document by file id with an optional caption.
func (g *Gateway) SendDocument(_ context.Context, to int64, fileID, caption string) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	doc := &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	_, err = b.Send(&tele.User{ID: to}, doc)
	return err
}

// CopyMessage relays a message verbatim, keeping the original media.
func (g *Gateway) CopyMessage(_ context.Context, to, fromChat int64, messageID int) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	src := tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    fromChat,
	}
	_, err = b.Copy(&tele.User{ID: to}, src)
	return err
}

// OperatorOnboarded greets the operator on first account creation.
func (g *Gateway) OperatorOnboarded(_ context.Context, operatorID int64) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: operatorID}, g.texts.operatorWelcome(), htmlOpts(nil))
	return err
}

// ProofAccepted acknowledges the customer's submission.
func (g *Gateway) ProofAccepted(_ context.Context, userID int64, plan workflow.Plan, known bool) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: userID}, g.texts.proofAccepted(plan, known), htmlOpts(nil))
	return err
}

// ProofForwarded notifies the operator with review controls attached.
func (g *Gateway) ProofForwarded(_ context.Context, operatorID int64, proof store.PaymentProof, plan workflow.Plan, known bool) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: operatorID},
		g.texts.proofForwarded(proof, plan, known),
		htmlOpts(g.kb.reviewMenu(proof.UserID)),
	)
	return err
}

// PaymentApproved tells the customer their subscription is active.
func (g *Gateway) PaymentApproved(_ context.Context, userID int64, plan workflow.Plan) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: userID}, g.texts.paymentApproved(plan), htmlOpts(nil))
	return err
}

// PaymentRejected tells the customer their proof was declined.
func (g *Gateway) PaymentRejected(_ context.Context, userID int64) error {
	b, err := g.client()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: userID}, g.texts.paymentRejected(), htmlOpts(nil))
	return err
}
