package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	DefaultWebhookShopName = "fluid-droplet"
)

type HTTPConfig struct {
	Addr         string        `koanf:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

type FluidConfig struct {
	BaseURL          string        `koanf:"base_url" mapstructure:"base_url"`
	WebhookAuthToken string        `koanf:"webhook_auth_token" mapstructure:"webhook_auth_token"`
	Timeout          time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type ShipHeroConfig struct {
	GraphQLURL            string        `koanf:"graphql_url" mapstructure:"graphql_url"`
	AuthURL               string        `koanf:"auth_url" mapstructure:"auth_url"`
	WebhookSecret         string        `koanf:"webhook_secret" mapstructure:"webhook_secret"`
	AllowUnsignedWebhooks bool          `koanf:"allow_unsigned_webhooks" mapstructure:"allow_unsigned_webhooks"`
	WebhookURL            string        `koanf:"webhook_url" mapstructure:"webhook_url"`
	WebhookShopName       string        `koanf:"webhook_shop_name" mapstructure:"webhook_shop_name"`
	Timeout               time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type WorkersConfig struct {
	Count       int           `koanf:"count" mapstructure:"count"`
	QueueSize   int           `koanf:"queue_size" mapstructure:"queue_size"`
	MaxAttempts int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	MaxDelay    time.Duration `koanf:"max_delay" mapstructure:"max_delay"`
}

type CacheConfig struct {
	TTL time.Duration `koanf:"ttl" mapstructure:"ttl"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Environment string         `koanf:"environment" mapstructure:"environment"`
	LogLevel    string         `koanf:"log_level" mapstructure:"log_level"`
	HTTP        HTTPConfig     `koanf:"http" mapstructure:"http"`
	Database    DatabaseConfig `koanf:"database" mapstructure:"database"`
	Fluid       FluidConfig    `koanf:"fluid" mapstructure:"fluid"`
	ShipHero    ShipHeroConfig `koanf:"shiphero" mapstructure:"shiphero"`
	Workers     WorkersConfig  `koanf:"workers" mapstructure:"workers"`
	Cache       CacheConfig    `koanf:"cache" mapstructure:"cache"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "shipbridge",
		Environment: EnvironmentDevelopment,
		LogLevel:    "info",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			MaxBodyBytes: 5 << 20,
		},
		Database: DatabaseConfig{
			Driver:      DriverSQLite,
			DSN:         "file:shipbridge.db?cache=shared&_foreign_keys=on",
			PingTimeout: 5 * time.Second,
		},
		Fluid: FluidConfig{
			BaseURL: "https://api.fluid.app",
			Timeout: 30 * time.Second,
		},
		ShipHero: ShipHeroConfig{
			GraphQLURL:      "https://public-api.shiphero.com/graphql",
			AuthURL:         "https://public-api.shiphero.com/auth/token",
			WebhookShopName: DefaultWebhookShopName,
			Timeout:         30 * time.Second,
		},
		Workers: WorkersConfig{
			Count:       4,
			QueueSize:   256,
			MaxAttempts: 1,
			MaxDelay:    time.Minute,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch strings.TrimSpace(c.Database.Driver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("core: unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("core: database dsn is required")
	}
	if c.Workers.Count < 0 || c.Workers.QueueSize < 0 {
		return fmt.Errorf("core: worker count and queue size must not be negative")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvironmentProduction)
}
