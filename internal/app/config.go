package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/viewsbot/core/config"
	coredatabase "github.com/m3rciful/viewsbot/core/database"
	"github.com/m3rciful/viewsbot/internal/keepalive"
	"github.com/m3rciful/viewsbot/internal/ledger/filestore"
)

// Ledger backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

const (
	defaultOrderAPIURL    = "https://testuser2.onrender.com/order"
	defaultAdsURL         = "https://libtl.com/sdk.js?zone=9870348&sdk=show_9870348"
	defaultSessionTTL     = 30
	defaultJanitorSpec    = "@every 1m"
	defaultAdsCooldownSec = 30
)

// LedgerConfig selects where balances live.
type LedgerConfig struct {
	Backend string `yaml:"backend" envconfig:"LEDGER_BACKEND"`
	Path    string `yaml:"path" envconfig:"LEDGER_PATH"`
}

// OrderAPIConfig points at the views provider.
type OrderAPIConfig struct {
	URL            string `yaml:"url" envconfig:"ORDER_API_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"ORDER_API_TIMEOUT_SECONDS"`
}

// AdsConfig configures the ad page and the claim cooldown.
type AdsConfig struct {
	URL             string `yaml:"url" envconfig:"ADS_URL"`
	CooldownSeconds int    `yaml:"cooldown_seconds" envconfig:"ADS_COOLDOWN_SECONDS"`
}

// KeepAliveConfig configures the liveness HTTP endpoints.
type KeepAliveConfig struct {
	Disabled bool   `yaml:"disabled" envconfig:"KEEPALIVE_DISABLED"`
	Listen   string `yaml:"listen" envconfig:"KEEPALIVE_LISTEN"`
	Port     int    `yaml:"port" envconfig:"PORT"`
}

// SessionConfig bounds in-memory conversation state.
type SessionConfig struct {
	TTLMinutes      int    `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
	JanitorSchedule string `yaml:"janitor_schedule" envconfig:"JANITOR_SCHEDULE"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Ledger    LedgerConfig        `yaml:"ledger"`
	OrderAPI  OrderAPIConfig      `yaml:"order_api"`
	Ads       AdsConfig           `yaml:"ads"`
	KeepAlive KeepAliveConfig     `yaml:"keepalive"`
	Session   SessionConfig       `yaml:"session"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path (empty means environment only), applies defaults and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Ledger.Backend = strings.ToLower(strings.TrimSpace(c.Ledger.Backend))
	switch c.Ledger.Backend {
	case "":
		c.Ledger.Backend = BackendFile
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("invalid ledger.backend %q; allowed: file, postgres", c.Ledger.Backend)
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = filestore.DefaultPath
	}
	if c.Ledger.Backend == BackendPostgres && c.Database.Name == "" {
		return fmt.Errorf("database.name is required when ledger.backend is 'postgres'")
	}

	if strings.TrimSpace(c.OrderAPI.URL) == "" {
		c.OrderAPI.URL = defaultOrderAPIURL
	}
	if c.OrderAPI.TimeoutSeconds < 0 {
		return fmt.Errorf("order_api.timeout_seconds must be >= 0")
	}

	if c.Ads.URL == "" {
		c.Ads.URL = defaultAdsURL
	}
	if c.Ads.CooldownSeconds <= 0 {
		c.Ads.CooldownSeconds = defaultAdsCooldownSec
	}

	if c.KeepAlive.Listen == "" {
		if c.KeepAlive.Port > 0 {
			c.KeepAlive.Listen = "0.0.0.0:" + strconv.Itoa(c.KeepAlive.Port)
		} else {
			c.KeepAlive.Listen = keepalive.DefaultAddr
		}
	}

	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = defaultSessionTTL
	}
	if c.Session.JanitorSchedule == "" {
		c.Session.JanitorSchedule = defaultJanitorSpec
	}
	return nil
}

// OrderAPITimeout returns the provider timeout; zero selects the client default.
func (c *Config) OrderAPITimeout() time.Duration {
	return time.Duration(c.OrderAPI.TimeoutSeconds) * time.Second
}

// AdsCooldown returns the claim window.
func (c *Config) AdsCooldown() time.Duration {
	return time.Duration(c.Ads.CooldownSeconds) * time.Second
}

// SessionTTL returns how long an idle dialogue survives.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}
