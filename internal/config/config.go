// Package config loads the environment configuration shared by the
// workbench server and the helper CLI.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	InstanceUrl  string `env:"SN_INSTANCE"`
	ClientId     string `env:"SN_CLIENT_ID"`
	ClientSecret string `env:"SN_CLIENT_SECRET"`
	RedirectUri  string `env:"SN_REDIRECT_URI"`
	AppPrefix    string `env:"SN_APP_PREFIX" envDefault:"x_dxcis_underwri_0"`

	Addr         string `env:"WORKBENCH_ADDR" envDefault:":7070"`
	RelayBase    string `env:"WORKBENCH_RELAY_BASE" envDefault:"http://localhost:7070"`
	DbName       string `env:"WORKBENCH_DB" envDefault:"workbench.db"`
	CookieSecret string `env:"WORKBENCH_COOKIE_SECRET"`
}

// Load parses the environment and fails fast on anything the OAuth flow
// cannot run without. Placeholder defaults for credentials are deliberately
// not provided.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse environment: %w", err)
	}

	if cfg.InstanceUrl == "" {
		return nil, fmt.Errorf("SN_INSTANCE is required")
	}

	if cfg.ClientId == "" {
		return nil, fmt.Errorf("SN_CLIENT_ID is required")
	}

	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("SN_CLIENT_SECRET is required")
	}

	if cfg.RedirectUri == "" {
		return nil, fmt.Errorf("SN_REDIRECT_URI is required")
	}

	return &cfg, nil
}
