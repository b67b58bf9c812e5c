package crossapp

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingAppID indicates no member app identity was configured
	ErrMissingAppID = errors.New("crossapp.missing_app_id")

	// ErrMissingServer indicates neither a domain nor an API base was configured
	ErrMissingServer = errors.New("crossapp.missing_server")
)

var defaultEnvLoaded sync.Once

// Config identifies which member app is authenticating and where the
// identity/credit server lives. It is immutable for the lifetime of one
// SDK instance.
type Config struct {
	// AppID is the member app identity registered with the central server.
	AppID string `env:"CROSSAPP_APP_ID" yaml:"app_id"`

	// Domain is the identity/credit server host, e.g. "hub.example.com".
	Domain string `env:"CROSSAPP_DOMAIN" yaml:"domain"`

	// APIBase overrides the server URL entirely when set, e.g. for local
	// development against "http://localhost:8000".
	APIBase string `env:"CROSSAPP_API_BASE" yaml:"api_base"`

	// Debug enables human-readable debug logging.
	Debug bool `env:"CROSSAPP_DEBUG" envDefault:"false" yaml:"debug"`

	// RefreshLead is how long before token expiry the proactive refresh fires.
	RefreshLead time.Duration `env:"CROSSAPP_REFRESH_LEAD" envDefault:"5m" yaml:"refresh_lead"`

	// RequestTimeout bounds every HTTP request to the server.
	RequestTimeout time.Duration `env:"CROSSAPP_REQUEST_TIMEOUT" envDefault:"30s" yaml:"request_timeout"`

	// SessionDir enables the file-backed session store rooted there.
	// When empty, sessions live in memory and die with the process.
	SessionDir string `env:"CROSSAPP_SESSION_DIR" yaml:"session_dir"`
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return ErrMissingAppID
	}
	if strings.TrimSpace(c.Domain) == "" && strings.TrimSpace(c.APIBase) == "" {
		return ErrMissingServer
	}
	return nil
}

// BaseURL returns the server URL the SDK talks to: APIBase when set,
// otherwise HTTPS against the configured domain.
func (c Config) BaseURL() string {
	if c.APIBase != "" {
		return strings.TrimRight(c.APIBase, "/")
	}
	return "https://" + strings.TrimSuffix(c.Domain, "/")
}

// LoadConfig populates a Config from environment variables, loading a
// local .env file first if one exists.
func LoadConfig() (Config, error) {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional; ignore a missing one.
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile populates a Config from a YAML file.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Config{
		RefreshLead:    5 * time.Minute,
		RequestTimeout: 30 * time.Second,
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
