package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-shipbridge/core"
	shipmigrations "github.com/goliatone/go-shipbridge/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type persistenceConfig struct {
	cfg     core.DatabaseConfig
	service string
}

func (c persistenceConfig) GetDebug() bool {
	return c.cfg.Debug
}

func (c persistenceConfig) GetDriver() string {
	return c.cfg.Driver
}

func (c persistenceConfig) GetServer() string {
	return c.cfg.DSN
}

func (c persistenceConfig) GetPingTimeout() time.Duration {
	if c.cfg.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.cfg.PingTimeout
}

func (c persistenceConfig) GetOtelIdentifier() string {
	return c.service
}

// OpenDatabase opens the configured database, registers the embedded
// migrations for its dialect and applies them.
func OpenDatabase(ctx context.Context, cfg core.DatabaseConfig, serviceName string) (*persistence.Client, error) {
	dialect, err := shipmigrations.ForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(dialect.SQLDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("app: open database: %w", err)
	}
	if dialect.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dialect.MaxOpenConns)
	}

	client, err := persistence.New(persistenceConfig{cfg: cfg, service: serviceName}, sqlDB, dialect.Bun())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("app: persistence client: %w", err)
	}

	if _, err := shipmigrations.Register(client, dialect); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: migrate: %w", err)
	}
	return client, nil
}
