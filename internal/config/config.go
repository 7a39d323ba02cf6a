package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-driven settings for the punch server.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppName    string `env:"APP_NAME" envDefault:"Punch Server"`
	Env        string `env:"ENV" envDefault:"DEV"`
	BotToken   string `env:"BOT_TOKEN"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/punch.db"`

	// Deployment timezone. All dates, punch times and day boundaries are
	// computed in this location, never in server-local time.
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Dubai"`

	GraceMinutes      int           `env:"GRACE_MINUTES" envDefault:"5"`
	LockTimeout       time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`

	// Registry capacity. The hard cap mirrors the 500KB budget of the
	// original property store; a write that would push the serialized
	// registry past the soft cap triggers a synchronous reconciliation.
	RegistrySoftCapBytes int `env:"REGISTRY_SOFT_CAP_BYTES" envDefault:"460800"`

	ReportHour int `env:"REPORT_HOUR" envDefault:"20"`
}

// New parses the environment into a Config.
func New() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	if len(c.Port) > 0 && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

// Location resolves the deployment timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
