// Package container wires the engine, storage and service from configuration.
package container

import (
	"context"
	"fmt"
	"os"

	"randomnet/adapters/db/postgres/migrations"
	"randomnet/adapters/excel"
	"randomnet/adapters/postgres"
	"randomnet/adapters/rng"
	"randomnet/app"
	domain "randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/internal/config"
	"randomnet/internal/replicate"
	"randomnet/internal/testkit"
	"randomnet/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// WorkerCommand is the hidden subcommand a process worker is started with.
const WorkerCommand = "worker"

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	Runs       ports.RunRepository
	Reader     ports.DatasetReader
	Dispatcher *replicate.Dispatcher
	Service    *app.NullDistributionService
}

// New builds the container. With a DATABASE_URL it connects, migrates and
// persists runs in Postgres; without one runs live in memory.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
	}

	spawner, err := c.newSpawner()
	if err != nil {
		return nil, err
	}
	c.Dispatcher = replicate.NewDispatcher(spawner, c.Logger)
	c.Reader = excel.NewDataReader(c.Logger)

	if err := c.initRepositories(ctx); err != nil {
		c.Shutdown()
		return nil, err
	}
	c.Service = app.NewNullDistributionService(c.Dispatcher, c.Reader, c.Runs, c.Logger)
	return c, nil
}

func (c *Container) newSpawner() (replicate.Spawner, error) {
	switch c.Config.Engine.WorkerMode {
	case config.WorkerModeGoroutine:
		return replicate.NewGoroutineSpawner(rng.New(), nil, c.Logger), nil
	default:
		s, err := replicate.NewProcessSpawner(c.Logger, WorkerCommand)
		if err != nil {
			return nil, fmt.Errorf("failed to create process spawner: %w", err)
		}
		s.Stderr = os.Stderr
		return s, nil
	}
}

// initRepositories picks the run store
func (c *Container) initRepositories(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.Info("DATABASE_URL not set, runs are kept in memory")
		c.Runs = testkit.NewInMemoryRunRepository()
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	c.DB = db
	if err := migrations.NewMigrator(db.DB, os.Stderr).Up(ctx); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	c.Runs = postgres.NewRunRepository(db)
	return nil
}

// Options returns the configured pool options.
func (c *Container) Options() domain.Options {
	e := c.Config.Engine
	return domain.Options{
		Replicates:    e.Replicates,
		Processes:     e.Processes,
		Timeout:       e.Timeout,
		ProgressEvery: e.ProgressEvery,
		Seed:          e.Seed,
	}
}

// Shutdown releases the database connection.
func (c *Container) Shutdown() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
