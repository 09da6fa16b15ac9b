package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
)

type HTTPConfig struct {
	Addr        string `koanf:"addr" mapstructure:"addr"`
	WebhookPath string `koanf:"webhook_path" mapstructure:"webhook_path"`
	// CORSOrigins is a comma separated allow list for the admin routes.
	// Empty allows any origin.
	CORSOrigins string `koanf:"cors_origins" mapstructure:"cors_origins"`
}

func (c HTTPConfig) Origins() []string {
	out := []string{}
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

type WebhookConfig struct {
	Secret     string `koanf:"secret" mapstructure:"secret"`
	LogPayload bool   `koanf:"log_payload" mapstructure:"log_payload"`
	Customer   string `koanf:"customer" mapstructure:"customer"`
	Source     string `koanf:"source" mapstructure:"source"`
	ScriptName string `koanf:"script_name" mapstructure:"script_name"`
}

func (c WebhookConfig) Identity() RunIdentity {
	return RunIdentity{
		Customer:   c.Customer,
		Source:     c.Source,
		ScriptName: c.ScriptName,
	}.Normalize()
}

type DatabaseConfig struct {
	Driver      string `koanf:"driver" mapstructure:"driver"`
	DSN         string `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool   `koanf:"debug" mapstructure:"debug"`
	PingTimeout string `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

func (c DatabaseConfig) PingTimeoutDuration() time.Duration {
	return parseDurationOr(c.PingTimeout, 5*time.Second)
}

type ConsistencyConfig struct {
	MaxAttempts  int    `koanf:"max_attempts" mapstructure:"max_attempts"`
	WaitInterval string `koanf:"wait_interval" mapstructure:"wait_interval"`
}

func (c ConsistencyConfig) Interval() time.Duration {
	return parseDurationOr(c.WaitInterval, 10*time.Second)
}

type DownstreamConfig struct {
	BufferWindow string `koanf:"buffer_window" mapstructure:"buffer_window"`
}

func (c DownstreamConfig) Window() time.Duration {
	return parseDurationOr(c.BufferWindow, 90*time.Minute)
}

type AdminConfig struct {
	JWTSecret string `koanf:"jwt_secret" mapstructure:"jwt_secret"`
}

func (c AdminConfig) Enabled() bool {
	return strings.TrimSpace(c.JWTSecret) != ""
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	Env         string            `koanf:"env" mapstructure:"env"`
	HTTP        HTTPConfig        `koanf:"http" mapstructure:"http"`
	Webhook     WebhookConfig     `koanf:"webhook" mapstructure:"webhook"`
	Database    DatabaseConfig    `koanf:"database" mapstructure:"database"`
	Consistency ConsistencyConfig `koanf:"consistency" mapstructure:"consistency"`
	Downstream  DownstreamConfig  `koanf:"downstream" mapstructure:"downstream"`
	Admin       AdminConfig       `koanf:"admin" mapstructure:"admin"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "storesync",
		Env:         "development",
		HTTP: HTTPConfig{
			Addr:        ":8080",
			WebhookPath: "/webhook",
		},
		Webhook: WebhookConfig{
			Source:     "woocommerce",
			ScriptName: "webhook",
		},
		Database: DatabaseConfig{
			Driver:      DriverPostgres,
			PingTimeout: "5s",
		},
		Consistency: ConsistencyConfig{
			MaxAttempts:  10,
			WaitInterval: "10s",
		},
		Downstream: DownstreamConfig{
			BufferWindow: "90m",
		},
	}
}

func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Webhook.Secret) == "" {
		return fmt.Errorf("core: webhook.secret is required")
	}
	if !strings.HasPrefix(strings.TrimSpace(c.HTTP.WebhookPath), "/") {
		return fmt.Errorf("core: http.webhook_path must start with /")
	}
	switch strings.TrimSpace(c.Database.Driver) {
	case DriverPostgres, DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("core: database.driver %q is not supported", c.Database.Driver)
	}
	if c.Consistency.MaxAttempts <= 0 {
		return fmt.Errorf("core: consistency.max_attempts must be positive")
	}
	durations := map[string]string{
		"database.ping_timeout":     c.Database.PingTimeout,
		"consistency.wait_interval": c.Consistency.WaitInterval,
		"downstream.buffer_window":  c.Downstream.BufferWindow,
	}
	for key, value := range durations {
		if strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("core: %s is invalid: %w", key, err)
		}
		if parsed < 0 {
			return fmt.Errorf("core: %s must not be negative", key)
		}
	}
	return nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
