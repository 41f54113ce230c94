package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	"github.com/goliatone/go-config/koanf/providers/env"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
	"github.com/joho/godotenv"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
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

// EnvConfigLoader reads dotenv files and the process environment through the
// go-config env provider. Variable names are config paths upper-cased with
// "_" in place of ".", e.g. SHIPHERO_WEBHOOK_SECRET for
// shiphero.webhook_secret, optionally behind Prefix. Process variables win
// over dotenv files. Values stay strings; typing happens on decode.
type EnvConfigLoader struct {
	Files  []string
	Prefix string
}

func NewEnvConfigLoader(files ...string) *EnvConfigLoader {
	return &EnvConfigLoader{Files: files}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l == nil {
		return map[string]any{}, nil
	}
	paths := configEnvPaths()
	lookup := func(key string) (string, bool) {
		if l.Prefix != "" {
			if !strings.HasPrefix(key, l.Prefix) {
				return "", false
			}
			key = strings.TrimPrefix(key, l.Prefix)
		}
		path, ok := paths[key]
		return path, ok
	}

	raw := map[string]any{}
	for _, file := range l.Files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			continue
		}
		parsed, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("core: read env file %s: %w", file, err)
		}
		for key, value := range parsed {
			path, ok := lookup(key)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			setPath(raw, path, strings.TrimSpace(value))
		}
	}

	provider := env.ProviderWithValue(l.Prefix, ".", func(key, value string) (string, any) {
		path, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return path, strings.TrimSpace(value)
	})
	// the provider logs every variable it visits, secrets included
	provider.SetLogger(glog.Nop())
	data, err := provider.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("core: read environment: %w", err)
	}
	fromEnv := map[string]any{}
	if err := json.Unmarshal(data, &fromEnv); err != nil {
		return nil, fmt.Errorf("core: decode environment: %w", err)
	}
	mergeRaw(raw, fromEnv)
	return raw, nil
}

func mergeRaw(dst, src map[string]any) {
	for key, value := range src {
		nested, ok := value.(map[string]any)
		if existing, isMap := dst[key].(map[string]any); ok && isMap {
			mergeRaw(existing, nested)
			continue
		}
		dst[key] = value
	}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

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
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults, loaded config and runtime overrides, in
// that order of precedence.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
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
	return resolved, nil
}

// LoadConfig resolves configuration from defaults, the loader and runtime
// overrides.
func LoadConfig(ctx context.Context, loader RawConfigLoader, runtime Config) (Config, error) {
	defaults := DefaultConfig()
	loaded, err := NewCfgxConfigProvider(loader).Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	walkConfig(reflect.ValueOf(cfg), "", func(path string, value reflect.Value) {
		if !includeZero && value.IsZero() {
			return
		}
		setPath(layer, path, value.Interface())
	})
	return layer
}

// configEnvPaths maps environment names to config paths.
func configEnvPaths() map[string]string {
	paths := map[string]string{}
	walkConfig(reflect.ValueOf(Config{}), "", func(path string, _ reflect.Value) {
		paths[strings.ToUpper(strings.ReplaceAll(path, ".", "_"))] = path
	})
	return paths
}

func walkConfig(value reflect.Value, prefix string, visit func(path string, value reflect.Value)) {
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		key := strings.TrimSpace(field.Tag.Get("koanf"))
		if key == "" || !field.IsExported() {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		fieldValue := value.Field(i)
		if fieldValue.Kind() == reflect.Struct && fieldValue.Type() != reflect.TypeOf(time.Time{}) {
			walkConfig(fieldValue, path, visit)
			continue
		}
		visit(path, fieldValue)
	}
}

func setPath(target map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := target
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
