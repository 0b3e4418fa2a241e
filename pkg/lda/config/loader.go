package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// PathEnvVar overrides the config file path when none is given.
	PathEnvVar = "LDA_CONFIG"
	envPrefix  = "LDA_"
)

// Load builds the configuration from three layers, lowest first: defaults,
// the YAML file at path (or $LDA_CONFIG; no file is fine), and LDA_*
// environment variables such as LDA_MODEL_TOPICS or LDA_STORE_MINIO_BUCKET.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	paths := envPaths(k.Keys())
	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return paths[key]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envPaths maps every known key to its environment variable name:
// model.log_every -> LDA_MODEL_LOG_EVERY. Unknown variables map to ""
// and are skipped by the env provider.
func envPaths(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[envPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return out
}
