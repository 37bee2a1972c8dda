// Package config builds the immutable RunConfig for one backup pass.
//
// Values are merged in a documented order: command-line flags win over
// config-file values, which win over defaults. The merge itself is handled
// by viper (flags are bound in cmd); this package owns the defaults, the
// unmarshal step and the validation of the resulting configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mysql-backup-sync/internal/backup"
)

// SetDefaults registers the configuration defaults on the viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("retention_days", 0)
	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("compression.algorithm", "gzip")
	v.SetDefault("sync.provider", string(backup.SyncProviderRsync))
}

// Load unmarshals and validates the resolved configuration. The viper
// instance must already have its config file read and flags bound.
func Load(v *viper.Viper) (*backup.RunConfig, error) {
	SetDefaults(v)

	var cfg backup.RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadUnvalidated unmarshals the resolved configuration without validating
// it. Used by commands that inspect configuration (config show) where an
// incomplete config is still worth printing.
func LoadUnvalidated(v *viper.Viper) (*backup.RunConfig, error) {
	SetDefaults(v)

	var cfg backup.RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

// ToYAML renders the configuration with secrets redacted
func ToYAML(cfg backup.RunConfig) (string, error) {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return "", fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return string(data), nil
}
