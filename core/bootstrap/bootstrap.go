// Package bootstrap initializes process-wide infrastructure: the
// structured logger always, and the PostgreSQL pool plus migrations
// when the postgres storage backend is selected.
package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/oddsdesk/tipsterbot/core/config"
	coredatabase "github.com/oddsdesk/tipsterbot/core/database"
	"github.com/oddsdesk/tipsterbot/core/logger"
)

// Options control the bootstrap pipeline. The function fields exist for
// tests; nil selects the real implementation.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(logger.Options) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when the memory backend is selected.
type Result struct {
	DB *sqlx.DB
}

// DatabaseConfig maps the config's database section onto the database
// package's connection settings.
func DatabaseConfig(cfg *coreconfig.Config) coredatabase.Config {
	return coredatabase.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Name:           cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: cfg.Database.MaxConnections,
	}
}

// Run initializes the logger and, for the postgres backend, connects to
// the database and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.Init
	}
	lc := opts.Config.Logging
	if err := loggerInit(logger.Options{
		Level:       lc.Level,
		Format:      lc.Format,
		DebugSample: lc.DebugSample,
		Dir:         lc.Dir,
		File:        lc.File,
		Profile:     lc.Profile,
	}); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Config.Storage.Backend != coreconfig.StoragePostgres {
		return &Result{}, nil
	}

	dbCfg := DatabaseConfig(opts.Config)

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}
