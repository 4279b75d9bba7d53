package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oddsdesk/tipsterbot/bot"
	"github.com/oddsdesk/tipsterbot/core/bootstrap"
	"github.com/oddsdesk/tipsterbot/core/buildinfo"
	corecmd "github.com/oddsdesk/tipsterbot/core/cmd"
	coreconfig "github.com/oddsdesk/tipsterbot/core/config"
	"github.com/oddsdesk/tipsterbot/store"
	"github.com/oddsdesk/tipsterbot/store/memory"
	"github.com/oddsdesk/tipsterbot/store/postgres"
	"github.com/oddsdesk/tipsterbot/workflow"
)

type carrier struct {
	cfg *coreconfig.Config
}

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	log.Printf("tipsterbot %s (%s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date)

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return carrier{cfg: cfg}, nil
		},
		Bootstrap: buildApp,
	})
	if err != nil {
		log.Fatalf("tipsterbot: %v", err)
	}
}

func buildApp(c corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := c.CoreConfig()

	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	var (
		accounts store.Accounts
		ledger   store.Ledger
		compose  store.Compose
	)
	switch cfg.Storage.Backend {
	case coreconfig.StoragePostgres:
		accounts = postgres.NewAccounts(res.DB)
		ledger = postgres.NewLedger(res.DB)
		compose = postgres.NewCompose(res.DB)
	default:
		accounts = memory.NewAccounts()
		ledger = memory.NewLedger()
		compose = memory.NewCompose()
	}

	plans := make([]workflow.Plan, 0, len(cfg.Plans))
	for _, p := range cfg.Plans {
		plans = append(plans, workflow.Plan{ID: p.ID, Name: p.Name, Price: p.Price, Units: p.Units})
	}
	catalog, err := workflow.NewCatalog(plans)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	gateway := bot.BuildGateway(cfg)
	engine, err := workflow.New(workflow.Config{
		OperatorID: cfg.Telegram.AdminID,
		Catalog:    catalog,
		Accounts:   accounts,
		Ledger:     ledger,
		Compose:    compose,
		Gateway:    gateway,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	return bot.NewApp(cfg, engine, gateway)
}
