// Package bot is the Telegram-facing layer: command and callback
// handlers, message mode resolution, rendered texts and keyboards, and
// the gateway the workflow engine notifies through.
package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/oddsdesk/tipsterbot/core/config"
	coretelegram "github.com/oddsdesk/tipsterbot/core/telegram"
	tghelpers "github.com/oddsdesk/tipsterbot/core/telegram/helpers"
	"github.com/oddsdesk/tipsterbot/core/telegram/router"
	"github.com/oddsdesk/tipsterbot/workflow"
)

// App binds the engine to the Telegram runtime.
type App struct {
	cfg      *coreconfig.Config
	engine   *workflow.Engine
	gateway  *Gateway
	texts    texts
	kb       keyboards
	registry *coretelegram.Registry
}

// BuildGateway constructs the engine's outbound gateway from the
// payment settings. The underlying bot client is bound at startup.
func BuildGateway(cfg *coreconfig.Config) *Gateway {
	return NewGateway(
		texts{payment: cfg.Payment},
		keyboards{paystackLink: cfg.Payment.PaystackLink},
	)
}

// NewApp wires handlers into a fresh registry. The gateway must be the
// one the engine was constructed with.
func NewApp(cfg *coreconfig.Config, engine *workflow.Engine, gateway *Gateway) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if engine == nil {
		return nil, fmt.Errorf("bot: nil engine")
	}
	if gateway == nil {
		return nil, fmt.Errorf("bot: nil gateway")
	}

	a := &App{
		cfg:      cfg,
		engine:   engine,
		gateway:  gateway,
		texts:    texts{payment: cfg.Payment},
		kb:       keyboards{paystackLink: cfg.Payment.PaystackLink},
		registry: coretelegram.NewRegistry(),
	}
	a.registerCommands(a.registry)
	a.registerCallbacks(a.registry)
	a.registry.SetTextFallback(a.textFallback)
	return a, nil
}

// CoreConfig satisfies the cmd runner's ConfigCarrier.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// TelegramRunOptions assembles middlewares and routes for RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	adminReject := func(c tele.Context) error {
		return tghelpers.SendText(c, "This command is for the admin only.")
	}

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: adminReject,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a, a.registry, router.MessageOptions{
		UnknownMedia:  a.unknownMedia,
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: adminReject,
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.gateway.Bind(rt.Bot)
			return nil
		},
	}, nil
}
