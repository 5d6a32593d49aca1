// Copyright (C) 2026 nerites-labs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads this module's ambient process settings: log
// level/format, metrics exposure, the PKI store layout, and the session
// table sizing parameters. It is explicitly NOT the OPC UA XML
// address-space/endpoint configuration a full stack also needs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerites-labs/opcua-seccore/cryptoprovider/pki"
)

// Config is the root configuration structure for this security core.
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Policy      PolicyConfig   `yaml:"policy" json:"policy"`
	Session     SessionConfig  `yaml:"session" json:"session"`
	PKI         PKIConfig      `yaml:"pki" json:"pki"`
	Logging     *LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig `yaml:"metrics" json:"metrics"`
}

// PolicyConfig selects the default Security Policy URI a channel is
// constructed with absent per-endpoint negotiation.
type PolicyConfig struct {
	DefaultURI string `yaml:"default_uri" json:"default_uri"`
}

// SessionConfig is the session slot table's sizing and timeout bounds.
type SessionConfig struct {
	MaxSessions        uint32        `yaml:"max_sessions" json:"max_sessions"`
	MinSessionTimeout  time.Duration `yaml:"min_session_timeout" json:"min_session_timeout"`
	MaxSessionTimeout  time.Duration `yaml:"max_session_timeout" json:"max_session_timeout"`
	DefaultTimeout     time.Duration `yaml:"default_timeout" json:"default_timeout"`
}

// PKIConfig locates the on-disk certificate and CRL store consumed by
// cryptoprovider/pki.NewFromStore.
type PKIConfig struct {
	TrustedRootsDir          string `yaml:"trusted_roots_dir" json:"trusted_roots_dir"`
	TrustedIntermediatesDir  string `yaml:"trusted_intermediates_dir" json:"trusted_intermediates_dir"`
	UntrustedRootsDir        string `yaml:"untrusted_roots_dir" json:"untrusted_roots_dir"`
	UntrustedIntermediatesDir string `yaml:"untrusted_intermediates_dir" json:"untrusted_intermediates_dir"`
	IssuedCertsDir           string `yaml:"issued_certs_dir" json:"issued_certs_dir"`
	CRLDir                   string `yaml:"crl_dir" json:"crl_dir"`
}

// StoreLayout converts this config's directories into a
// cryptoprovider/pki.StoreLayout, ready to pass to pki.NewFromStore.
func (c PKIConfig) StoreLayout() pki.StoreLayout {
	return pki.StoreLayout{
		TrustedRootsDir:           c.TrustedRootsDir,
		TrustedIntermediatesDir:   c.TrustedIntermediatesDir,
		UntrustedRootsDir:         c.UntrustedRootsDir,
		UntrustedIntermediatesDir: c.UntrustedIntermediatesDir,
		IssuedCertsDir:            c.IssuedCertsDir,
		CRLsDir:                   c.CRLDir,
	}
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // json, pretty
	Output string `yaml:"output" json:"output"` // stdout, stderr, file path
}

// MetricsConfig configures the internal/metrics HTTP exposition.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile reads and parses a YAML or JSON config file, applying
// environment variable substitution and defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse file (tried YAML and JSON): %w", err)
		}
	}

	SubstituteEnvVarsInConfig(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile writes cfg to path, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Policy.DefaultURI == "" {
		cfg.Policy.DefaultURI = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 100
	}
	if cfg.Session.MinSessionTimeout == 0 {
		cfg.Session.MinSessionTimeout = 10 * time.Second
	}
	if cfg.Session.MaxSessionTimeout == 0 {
		cfg.Session.MaxSessionTimeout = time.Hour
	}
	if cfg.Session.DefaultTimeout == 0 {
		cfg.Session.DefaultTimeout = time.Minute
	}
	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}
	if cfg.Metrics != nil && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks that the session timeout bounds and the session table
// size are self-consistent, returning every violation found rather than
// failing fast on the first. The PKI directories are not checked.
func (c *Config) Validate() error {
	var problems []string

	if c.Session.MinSessionTimeout <= 0 {
		problems = append(problems, "session.min_session_timeout must be positive")
	}
	if c.Session.MaxSessionTimeout < c.Session.MinSessionTimeout {
		problems = append(problems, "session.max_session_timeout must be >= min_session_timeout")
	}
	if c.Session.DefaultTimeout < c.Session.MinSessionTimeout || c.Session.DefaultTimeout > c.Session.MaxSessionTimeout {
		problems = append(problems, "session.default_timeout must be within [min_session_timeout, max_session_timeout]")
	}
	if c.Session.MaxSessions == 0 {
		problems = append(problems, "session.max_sessions must be > 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
