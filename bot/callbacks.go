package bot

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/oddsdesk/tipsterbot/core/telegram"
	"github.com/oddsdesk/tipsterbot/core/telegram/callbacks"
	tghelpers "github.com/oddsdesk/tipsterbot/core/telegram/helpers"
	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/workflow"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	reg.RegisterCallback(cbSubscribe, a.cbSubscribe)
	reg.RegisterCallback(cbUpload, a.cbUpload)
	reg.RegisterCallback(cbTips, a.cbTips)
	reg.RegisterCallback(cbHow, a.cbHow)
	reg.RegisterCallback(cbCancel, a.cbCancel)
	reg.RegisterCallback(cbApprove, a.cbApprove)
	reg.RegisterCallback(cbCompose, a.cbCompose)
}

func (a *App) cbSubscribe(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	plan, err := a.engine.SelectPlan(ctx, user.ID, displayName(user), callbacks.PayloadString(c))
	if err != nil {
		return err
	}
	return tghelpers.EditOrSendHTML(c, a.texts.subscribe(plan), a.kb.subscribeMenu(plan))
}

func (a *App) cbUpload(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if _, err := a.engine.SelectPlan(ctx, user.ID, displayName(user), callbacks.PayloadString(c)); err != nil {
		return err
	}
	return tghelpers.SendHTML(c, a.texts.uploadInstructions())
}

func (a *App) cbTips(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	acc, err := a.engine.Account(ctx, c.Sender().ID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !acc.Premium) {
		return tghelpers.EditOrSendHTML(c, a.texts.premiumTeaser(), a.kb.payMenu(a.engine.Catalog().Default()))
	}
	if err != nil {
		return err
	}
	return tghelpers.EditOrSendHTML(c, a.texts.tipsPending())
}

func (a *App) cbHow(c tele.Context) error {
	plan := a.engine.Catalog().Default()
	return tghelpers.EditOrSendHTML(c, a.texts.howItWorks(plan), a.kb.payMenu(plan))
}

func (a *App) cbCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.engine.ClearIntent(ctx, c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.EditOrSendHTML(c, a.texts.shortWelcome(), a.kb.mainMenu(a.engine.Catalog().Default()))
}

// cbApprove handles the inline approve control on a forwarded proof.
func (a *App) cbApprove(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if !a.engine.IsOperator(c.Sender().ID) {
		return tghelpers.SendText(c, "This action is for the admin only.")
	}
	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Malformed approval reference.")
	}
	proof, err := a.engine.Approve(ctx, c.Sender().ID, target)
	if errors.Is(err, workflow.ErrNoPendingPayment) {
		return tghelpers.SendText(c, fmt.Sprintf("No pending payment found for user %d", target))
	}
	if err != nil {
		return err
	}
	plan, _ := a.engine.Catalog().Resolve(proof.PlanID)
	return tghelpers.SendHTML(c, a.texts.approvedSummary(proof, plan))
}

// cbCompose opens compose mode straight from the forwarded proof.
func (a *App) cbCompose(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if !a.engine.IsOperator(c.Sender().ID) {
		return tghelpers.SendText(c, "This action is for the admin only.")
	}
	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Malformed compose reference.")
	}
	known, err := a.engine.OpenCompose(ctx, c.Sender().ID, target)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, a.texts.composeOpened(known))
}
