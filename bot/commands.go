package bot

import (
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/oddsdesk/tipsterbot/core/telegram"
	"github.com/oddsdesk/tipsterbot/core/telegram/commands"
	tghelpers "github.com/oddsdesk/tipsterbot/core/telegram/helpers"
	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/workflow"
)

// displayName prefers the username, falling back to the first name.
func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.cmdStart,
		Description: "Open main menu",
	})
	reg.RegisterCommand("/pay", commands.Command{
		Handler:     a.cmdPay,
		Description: "Pay with Paystack",
	})
	reg.RegisterCommand("/status", commands.Command{
		Handler:     a.cmdStatus,
		Description: "View your status",
	})
	reg.RegisterCommand("/tips", commands.Command{
		Handler:     a.cmdTips,
		Description: "Get today's tips",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.cmdHelp,
		Description: "Help and info",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.cmdMenu,
		Description: "Show the plan menu",
	})
	reg.RegisterCommand("/myid", commands.Command{
		Handler:     a.cmdMyID,
		Description: "Show your Telegram user id",
	})
	reg.RegisterCommand("/test", commands.Command{
		Handler:     a.cmdTest,
		Description: "Check the bot is alive",
	})

	reg.RegisterCommand("/approve", commands.Command{
		Handler:     a.cmdApprove,
		Description: "Approve a pending payment",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/reject", commands.Command{
		Handler:     a.cmdReject,
		Description: "Reject a pending payment",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/send", commands.Command{
		Handler:     a.cmdSend,
		Description: "Open compose mode for a customer",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/cancel_send", commands.Command{
		Handler:     a.cmdCancelSend,
		Description: "Cancel compose mode",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/pending", commands.Command{
		Handler:     a.cmdPending,
		Description: "List pending payments",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/clear_pending", commands.Command{
		Handler:     a.cmdClearPending,
		Description: "Clear all pending payments",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/reset_data", commands.Command{
		Handler:     a.cmdResetData,
		Description: "Reset users, payments, and sessions",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/refreshcommands", commands.Command{
		Handler:     a.cmdRefreshCommands,
		Description: "Republish the command menu",
		AdminOnly:   true,
	})
}

func (a *App) cmdStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if _, _, err := a.engine.Register(ctx, user.ID, displayName(user)); err != nil {
		return err
	}
	plan := a.engine.Catalog().Default()
	return tghelpers.SendHTML(c, a.texts.welcome(user, plan), a.kb.mainMenu(plan))
}

func (a *App) cmdHelp(c tele.Context) error {
	return tghelpers.SendHTML(c, a.texts.help(a.engine.Catalog().Default()))
}

func (a *App) cmdStatus(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	acc, err := a.engine.Account(ctx, c.Sender().ID)
	if errors.Is(err, store.ErrNotFound) {
		return tghelpers.SendText(c, a.texts.startFirst())
	}
	if err != nil {
		return err
	}
	if acc.Premium {
		return tghelpers.SendHTML(c, a.texts.status(acc))
	}
	return tghelpers.SendHTML(c, a.texts.status(acc), a.kb.statusMenu(a.engine.Catalog().Default()))
}

func (a *App) cmdTips(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	acc, err := a.engine.Account(ctx, c.Sender().ID)
	if errors.Is(err, store.ErrNotFound) {
		return tghelpers.SendText(c, a.texts.startFirst())
	}
	if err != nil {
		return err
	}
	if !acc.Premium {
		return tghelpers.SendHTML(c, a.texts.premiumTeaser(), a.kb.payMenu(a.engine.Catalog().Default()))
	}
	return tghelpers.SendHTML(c, a.texts.tipsPending())
}

func (a *App) cmdPay(c tele.Context) error {
	return tghelpers.SendHTML(c, a.texts.pay(), a.kb.payMenu(a.engine.Catalog().Default()))
}

func (a *App) cmdMenu(c tele.Context) error {
	plan := a.engine.Catalog().Default()
	return tghelpers.SendHTML(c, a.texts.menu(plan), a.kb.mainMenu(plan))
}

func (a *App) cmdMyID(c tele.Context) error {
	return tghelpers.SendHTML(c, a.texts.myID(c.Sender().ID))
}

func (a *App) cmdTest(c tele.Context) error {
	id := c.Sender().ID
	if a.engine.IsOperator(id) {
		return tghelpers.SendHTML(c, a.texts.testAdmin(id))
	}
	return tghelpers.SendText(c, a.texts.testUser(id))
}

func targetArg(c tele.Context) (int64, bool) {
	args := c.Args()
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (a *App) cmdApprove(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	target, ok := targetArg(c)
	if !ok {
		return tghelpers.SendText(c, "Usage: /approve <user_id>")
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

func (a *App) cmdReject(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	target, ok := targetArg(c)
	if !ok {
		return tghelpers.SendText(c, "Usage: /reject <user_id>")
	}
	_, err := a.engine.Reject(ctx, c.Sender().ID, target)
	if errors.Is(err, workflow.ErrNoPendingPayment) {
		return tghelpers.SendText(c, fmt.Sprintf("No pending payment found for user %d", target))
	}
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Rejected pending payment for user %d.", target))
}

func (a *App) cmdSend(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	target, ok := targetArg(c)
	if !ok {
		return tghelpers.SendText(c, "Usage: /send <user_id>")
	}
	known, err := a.engine.OpenCompose(ctx, c.Sender().ID, target)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, a.texts.composeOpened(known))
}

func (a *App) cmdCancelSend(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	_, err := a.engine.CancelCompose(ctx, c.Sender().ID)
	if errors.Is(err, workflow.ErrNoComposeSession) {
		return tghelpers.SendText(c, "Nothing to cancel.")
	}
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, "✅ Cancelled. Compose mode ended.")
}

func (a *App) cmdPending(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	proofs, err := a.engine.Pending(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, a.texts.pendingList(proofs, a.engine.Catalog().Resolve))
}

func (a *App) cmdClearPending(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.engine.ClearPending(ctx, c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.SendText(c, "✅ Cleared all pending payments.")
}

func (a *App) cmdResetData(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.engine.ResetAll(ctx, c.Sender().ID); err != nil {
		return err
	}
	return tghelpers.SendText(c, "✅ Reset data: users, pending payments, and compose sessions.")
}

func (a *App) cmdRefreshCommands(c tele.Context) error {
	if err := c.Bot().SetCommands(a.registry.ListCommands(true)); err != nil {
		return tghelpers.SendText(c, fmt.Sprintf("❌ Failed to refresh commands: %v", err))
	}
	return tghelpers.SendText(c, "✅ Commands refreshed. Open the side menu to see them.")
}
