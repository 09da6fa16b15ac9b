package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigRequiresSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing webhook secret to fail validation")
	}
	cfg.Webhook.Secret = "shh"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults plus secret to validate: %v", err)
	}
	if cfg.Consistency.MaxAttempts != 10 || cfg.Consistency.Interval() != 10*time.Second {
		t.Fatalf("unexpected consistency defaults %#v", cfg.Consistency)
	}
	if cfg.Admin.Enabled() {
		t.Fatalf("admin routes must be disabled without a jwt secret")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := DefaultConfig()
	base.Webhook.Secret = "shh"

	cases := map[string]func(*Config){
		"driver":        func(c *Config) { c.Database.Driver = "oracle" },
		"attempts":      func(c *Config) { c.Consistency.MaxAttempts = 0 },
		"interval":      func(c *Config) { c.Consistency.WaitInterval = "soon" },
		"webhook path":  func(c *Config) { c.HTTP.WebhookPath = "webhook" },
		"buffer window": func(c *Config) { c.Downstream.BufferWindow = "-1m" },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfigLayersFileEnvAndRuntime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storesync.yaml")
	yamlDoc := []byte(`
service_name: shop-sync
webhook:
  secret: from-file
  customer: acme
consistency:
  max_attempts: 3
  wait_interval: 2s
`)
	if err := os.WriteFile(path, yamlDoc, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := map[string]string{
		"STORESYNC_WEBHOOK_SECRET":           "from-env",
		"STORESYNC_CONSISTENCY_MAX_ATTEMPTS": "5",
	}
	provider := NewCfgxConfigProvider(LayeredRawConfigLoader{
		Loaders: []RawConfigLoader{
			YAMLFileLoader{Path: path},
			EnvLoader{Lookup: func(key string) (string, bool) {
				value, ok := env[key]
				return value, ok
			}},
		},
	})

	cfg, err := LoadConfig(context.Background(), provider, Config{
		HTTP: HTTPConfig{Addr: ":9090"},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "shop-sync" {
		t.Fatalf("expected file service name, got %q", cfg.ServiceName)
	}
	if cfg.Webhook.Secret != "from-env" {
		t.Fatalf("expected env to override file secret, got %q", cfg.Webhook.Secret)
	}
	if cfg.Webhook.Customer != "acme" {
		t.Fatalf("expected file customer, got %q", cfg.Webhook.Customer)
	}
	if cfg.Consistency.MaxAttempts != 5 {
		t.Fatalf("expected env max attempts, got %d", cfg.Consistency.MaxAttempts)
	}
	if cfg.Consistency.Interval() != 2*time.Second {
		t.Fatalf("expected file wait interval, got %s", cfg.Consistency.Interval())
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("expected runtime addr override, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.WebhookPath != "/webhook" || cfg.Webhook.Source != "woocommerce" {
		t.Fatalf("expected defaults to survive, got %#v", cfg)
	}
}

func TestLoadConfigRuntimeSecretSatisfiesValidation(t *testing.T) {
	cfg, err := LoadConfig(context.Background(), NewCfgxConfigProvider(nil), Config{
		Webhook: WebhookConfig{Secret: "runtime"},
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Webhook.Secret != "runtime" {
		t.Fatalf("expected runtime secret, got %q", cfg.Webhook.Secret)
	}
}

func TestEnvLoaderRejectsMalformedNumbers(t *testing.T) {
	loader := EnvLoader{Lookup: func(key string) (string, bool) {
		if key == "STORESYNC_CONSISTENCY_MAX_ATTEMPTS" {
			return "many", true
		}
		return "", false
	}}
	if _, err := loader.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected malformed integer to fail")
	}
}

func TestYAMLFileLoaderOptionalMissingFile(t *testing.T) {
	raw, err := YAMLFileLoader{Path: filepath.Join(t.TempDir(), "absent.yaml"), Optional: true}.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty raw config, got %#v", raw)
	}
	if _, err := (YAMLFileLoader{Path: filepath.Join(t.TempDir(), "absent.yaml")}).LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected required missing file to fail")
	}
}
