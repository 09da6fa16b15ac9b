package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "STORESYNC_"

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// LoadConfig resolves defaults, the provider's layers and runtime overrides
// into a validated Config.
func LoadConfig(ctx context.Context, provider ConfigProvider, runtime Config) (Config, error) {
	defaults := DefaultConfig()
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// YAMLFileLoader reads a YAML document into a raw config map. A missing file
// is an error unless Optional is set.
type YAMLFileLoader struct {
	Path     string
	Optional bool
}

func (l YAMLFileLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && l.Optional {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("core: read config file %q: %w", path, err)
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("core: parse config file %q: %w", path, err)
	}
	return out, nil
}

type envKind int

const (
	envString envKind = iota
	envInt
	envBool
)

type envBinding struct {
	path []string
	kind envKind
}

var envBindings = map[string]envBinding{
	"SERVICE_NAME":              {path: []string{"service_name"}},
	"ENV":                       {path: []string{"env"}},
	"HTTP_ADDR":                 {path: []string{"http", "addr"}},
	"HTTP_WEBHOOK_PATH":         {path: []string{"http", "webhook_path"}},
	"HTTP_CORS_ORIGINS":         {path: []string{"http", "cors_origins"}},
	"WEBHOOK_SECRET":            {path: []string{"webhook", "secret"}},
	"WEBHOOK_LOG_PAYLOAD":       {path: []string{"webhook", "log_payload"}, kind: envBool},
	"WEBHOOK_CUSTOMER":          {path: []string{"webhook", "customer"}},
	"WEBHOOK_SOURCE":            {path: []string{"webhook", "source"}},
	"WEBHOOK_SCRIPT_NAME":       {path: []string{"webhook", "script_name"}},
	"DATABASE_DRIVER":           {path: []string{"database", "driver"}},
	"DATABASE_DSN":              {path: []string{"database", "dsn"}},
	"DATABASE_DEBUG":            {path: []string{"database", "debug"}, kind: envBool},
	"DATABASE_PING_TIMEOUT":     {path: []string{"database", "ping_timeout"}},
	"CONSISTENCY_MAX_ATTEMPTS":  {path: []string{"consistency", "max_attempts"}, kind: envInt},
	"CONSISTENCY_WAIT_INTERVAL": {path: []string{"consistency", "wait_interval"}},
	"DOWNSTREAM_BUFFER_WINDOW":  {path: []string{"downstream", "buffer_window"}},
	"ADMIN_JWT_SECRET":          {path: []string{"admin", "jwt_secret"}},
}

// EnvLoader maps STORESYNC_* variables onto config keys.
type EnvLoader struct {
	Prefix string
	Lookup func(key string) (string, bool)
}

func (l EnvLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := l.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	out := map[string]any{}
	for suffix, binding := range envBindings {
		raw, ok := lookup(prefix + suffix)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		var value any = raw
		switch binding.kind {
		case envInt:
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("core: %s%s must be an integer: %w", prefix, suffix, err)
			}
			value = parsed
		case envBool:
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("core: %s%s must be a boolean: %w", prefix, suffix, err)
			}
			value = parsed
		}
		setPath(out, binding.path, value)
	}
	return out, nil
}

// LayeredRawConfigLoader merges its loaders in order; later loaders win.
type LayeredRawConfigLoader struct {
	Loaders []RawConfigLoader
}

func (l LayeredRawConfigLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	merged := map[string]any{}
	for idx, loader := range l.Loaders {
		if loader == nil {
			continue
		}
		raw, err := loader.LoadRaw(ctx)
		if err != nil {
			return nil, err
		}
		merged, err = mergeRawLayers(merged, raw, fmt.Sprintf("source_%d", idx))
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func mergeRawLayers(base map[string]any, overlay map[string]any, name string) (map[string]any, error) {
	if len(overlay) == 0 {
		return base, nil
	}
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("base", 0),
			base,
			opts.WithSnapshotID[map[string]any]("base"),
		),
		opts.NewLayer(
			opts.NewScope(name, 10),
			overlay,
			opts.WithSnapshotID[map[string]any](name),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("core: config source stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, fmt.Errorf("core: config source merge failed: %w", err)
	}
	return merged.Value, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// NewFileAndEnvConfigProvider layers an optional YAML file under STORESYNC_*
// environment variables.
func NewFileAndEnvConfigProvider(path string) *CfgxConfigProvider {
	return NewCfgxConfigProvider(LayeredRawConfigLoader{
		Loaders: []RawConfigLoader{
			YAMLFileLoader{Path: path, Optional: true},
			EnvLoader{},
		},
	})
}

// Load builds the loaded layer only. Validation runs once every layer has
// been resolved, so a secret supplied at runtime still satisfies it.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	putString := func(path []string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			setPath(layer, path, value)
		}
	}
	putBool := func(path []string, value bool) {
		if includeZero || value {
			setPath(layer, path, value)
		}
	}

	putString([]string{"service_name"}, cfg.ServiceName)
	putString([]string{"env"}, cfg.Env)
	putString([]string{"http", "addr"}, cfg.HTTP.Addr)
	putString([]string{"http", "webhook_path"}, cfg.HTTP.WebhookPath)
	putString([]string{"http", "cors_origins"}, cfg.HTTP.CORSOrigins)
	putString([]string{"webhook", "secret"}, cfg.Webhook.Secret)
	putBool([]string{"webhook", "log_payload"}, cfg.Webhook.LogPayload)
	putString([]string{"webhook", "customer"}, cfg.Webhook.Customer)
	putString([]string{"webhook", "source"}, cfg.Webhook.Source)
	putString([]string{"webhook", "script_name"}, cfg.Webhook.ScriptName)
	putString([]string{"database", "driver"}, cfg.Database.Driver)
	putString([]string{"database", "dsn"}, cfg.Database.DSN)
	putBool([]string{"database", "debug"}, cfg.Database.Debug)
	putString([]string{"database", "ping_timeout"}, cfg.Database.PingTimeout)
	if includeZero || cfg.Consistency.MaxAttempts != 0 {
		setPath(layer, []string{"consistency", "max_attempts"}, cfg.Consistency.MaxAttempts)
	}
	putString([]string{"consistency", "wait_interval"}, cfg.Consistency.WaitInterval)
	putString([]string{"downstream", "buffer_window"}, cfg.Downstream.BufferWindow)
	putString([]string{"admin", "jwt_secret"}, cfg.Admin.JWTSecret)
	return layer
}

func setPath(target map[string]any, path []string, value any) {
	if len(path) == 0 {
		return
	}
	current := target
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}
