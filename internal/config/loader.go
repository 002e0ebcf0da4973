package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment keys.
const (
	EnvPrefix  = "WRESTLERANK_"
	EnvConfig  = EnvPrefix + "CONFIG"
	defaultEnv = ".env"
)

type loadOptions struct {
	envFile string
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithEnvFile reads dotenv values from path instead of ".env".
// An empty path disables the dotenv layer.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New(ctx))
//  2. dotenv file, which never overrides variables already set
//  3. YAML file if WRESTLERANK_CONFIG is set
//  4. env (prefix WRESTLERANK_)
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{envFile: defaultEnv}
	for _, opt := range opts {
		opt(&o)
	}

	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: dotenv %s: %v", ErrLoadConfig, o.envFile, err)
		}
	}

	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// WRESTLERANK_SOURCE_DSN -> source_dsn; underscores match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	// The config path itself is not a setting.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
