package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	// HTTP Server
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend selection
	DataBackend string `env:"DATA_BACKEND" envDefault:"memory"`
	DataDir     string `env:"DATA_DIR" envDefault:"data"`

	// Database
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/fintrack.db"`
	PostgresDSN  string `env:"POSTGRES_DSN"`

	// AMQP
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"fintrack"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"transaction_changes"`

	// Summaries
	OpenRouterAPIURL  string        `env:"OPENROUTER_API_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterModel   string        `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterReferer string        `env:"OPENROUTER_REFERER"`
	OpenRouterTitle   string        `env:"OPENROUTER_TITLE" envDefault:"fintrack"`
	SummaryTimeout    time.Duration `env:"SUMMARY_TIMEOUT" envDefault:"60s"`

	// Avatars
	MediaDir     string `env:"MEDIA_DIR" envDefault:"./data/media"`
	MediaBaseURL string `env:"MEDIA_BASE_URL" envDefault:"/media"`

	// Auth
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	OAuthClientID     string        `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string        `env:"OAUTH_CLIENT_SECRET"`
	OAuthAuthURL      string        `env:"OAUTH_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/auth"`
	OAuthTokenURL     string        `env:"OAUTH_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	OAuthUserInfoURL  string        `env:"OAUTH_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	OAuthRedirectURL  string        `env:"OAUTH_REDIRECT_URL"`
	OAuthScopes       []string      `env:"OAUTH_SCOPES" envDefault:"openid,email,profile" envSeparator:","`

	// Google Sheets export
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `env:"GOOGLE_SHEET_NAME" envDefault:"Movimientos"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Worker
	WorkerPrefetch int `env:"WORKER_PREFETCH" envDefault:"10"`
}

var validBackends = []string{"memory", "sqlite", "postgres"}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// OAuthEnabled reports whether OAuth sign-in is configured.
func (c *Config) OAuthEnabled() bool {
	return c.OAuthClientID != ""
}

// SheetsEnabled reports whether the worker should export to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		} else if parsedURL, err := url.Parse(c.PostgresDSN); err != nil {
			errors = append(errors, fmt.Sprintf("invalid POSTGRES_DSN: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid POSTGRES_DSN scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	// AMQP is optional; when configured it must be complete
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.OpenRouterAPIURL != "" {
		if parsedURL, err := url.Parse(c.OpenRouterAPIURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid OPENROUTER_API_URL '%s': must be an http(s) URL", c.OpenRouterAPIURL))
		}
	}
	if c.SummaryTimeout < time.Second || c.SummaryTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid summary timeout %v: must be between 1s and 5m", c.SummaryTimeout))
	}

	if c.MediaDir == "" {
		errors = append(errors, "MEDIA_DIR cannot be empty")
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.OAuthEnabled() {
		if c.OAuthClientSecret == "" {
			errors = append(errors, "OAUTH_CLIENT_SECRET is required when OAUTH_CLIENT_ID is set")
		}
		if c.OAuthRedirectURL == "" {
			errors = append(errors, "OAUTH_REDIRECT_URL is required when OAUTH_CLIENT_ID is set")
		}
		if c.OAuthAuthURL == "" || c.OAuthTokenURL == "" || c.OAuthUserInfoURL == "" {
			errors = append(errors, "OAuth auth, token and userinfo URLs are required when OAUTH_CLIENT_ID is set")
		}
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.WorkerPrefetch < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker prefetch %d: must be at least 1", c.WorkerPrefetch))
	} else if c.WorkerPrefetch > 1000 {
		errors = append(errors, fmt.Sprintf("invalid worker prefetch %d: must be at most 1000", c.WorkerPrefetch))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
