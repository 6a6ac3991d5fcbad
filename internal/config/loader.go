// Package config provides configuration loading, defaults, and validation for
// the PatentsView graph loader.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all loader settings.
const envPrefix = "PVGRAPH"

// newViper builds a Viper instance with YAML file type, the PVGRAPH_ env
// prefix and a "." → "_" key replacer, so "load.node_batch_size" resolves to
// PVGRAPH_LOAD_NODE_BATCH_SIZE.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// Load reads the YAML file at configPath when it is non-empty, merges
// PVGRAPH_* environment overrides, applies defaults and validates.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from PVGRAPH_* variables and defaults only.
//
//	PVGRAPH_<SECTION>_<FIELD>   e.g.  PVGRAPH_NEO4J_URI, PVGRAPH_LOAD_TABLES
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Finalize applies defaults to cfg and validates it. Callers that modify a
// loaded Config (for example with command-line flags) run it again.
func Finalize(cfg *Config) error {
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	if err := Finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

//Personal.AI order the ending
