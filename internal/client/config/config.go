// Package config assembles the client's runtime settings from layered
// sources: defaults, an optional .env file, environment variables, an
// optional JSON file, and command-line flags. Later sources override
// earlier ones.
package config

import "time"

// Config holds the runtime settings of the ReadyInterview client.
type Config struct {
	// BackendBaseURL is the base URL of the hosted identity/document/file
	// service, e.g. "https://api.readyinterview.app".
	BackendBaseURL string `env:"RI_BACKEND_URL"`

	// APIKey identifies this client deployment to the backend.
	APIKey string `env:"RI_API_KEY"`

	// Google OAuth client credentials for federated sign-in. Empty
	// disables the Google flow.
	GoogleClientID     string `env:"RI_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"RI_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"RI_GOOGLE_REDIRECT_URL"`

	// LocalStoreDSN locates the sqlite preference store.
	LocalStoreDSN string `env:"RI_LOCAL_STORE_DSN"`

	// Session budgets.
	InitialResolveTimeout time.Duration `env:"RI_INITIAL_RESOLVE_TIMEOUT"`
	DocReadTimeout        time.Duration `env:"RI_DOC_READ_TIMEOUT"`
	InactivityLimit       time.Duration `env:"RI_INACTIVITY_LIMIT"`

	// LanguagePollInterval drives the cross-instance language watcher.
	LanguagePollInterval time.Duration `env:"RI_LANGUAGE_POLL_INTERVAL"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"RI_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendBaseURL = "https://api.readyinterview.app"
	c.LocalStoreDSN = "readyinterview.db"
	c.InitialResolveTimeout = 10 * time.Second
	c.DocReadTimeout = 2500 * time.Millisecond
	c.InactivityLimit = time.Hour
	c.LanguagePollInterval = 3 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, JSON (if present) and command-line flags (if
// present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
