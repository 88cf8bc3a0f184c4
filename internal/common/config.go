// Package common provides shared utilities for Finlet
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the Finlet agent
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
	Refresh     RefreshConfig `toml:"refresh"`
}

// ServerConfig holds the local HTTP API configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds local store configuration
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	TradeDesk    TradeDeskConfig    `toml:"tradedesk"`
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
	Gemini       GeminiConfig       `toml:"gemini"`
}

// TradeDeskConfig holds the paper-trading backend configuration
type TradeDeskConfig struct {
	BaseURL       string `toml:"base_url"`
	RateLimit     int    `toml:"rate_limit"`
	Timeout       string `toml:"timeout"`
	VerifyTimeout string `toml:"verify_timeout"` // token verification allows for a cold-starting backend
	SaveTimeout   string `toml:"save_timeout"`   // education progress save budget
}

// GetTimeout parses and returns the request timeout duration
func (c *TradeDeskConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetVerifyTimeout parses and returns the token verification budget
func (c *TradeDeskConfig) GetVerifyTimeout() time.Duration {
	d, err := time.ParseDuration(c.VerifyTimeout)
	if err != nil {
		return 90 * time.Second
	}
	return d
}

// GetSaveTimeout parses and returns the progress save budget
func (c *TradeDeskConfig) GetSaveTimeout() time.Duration {
	d, err := time.ParseDuration(c.SaveTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// AlphaVantageConfig holds the Alpha Vantage fallback quote source configuration
type AlphaVantageConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AuthConfig holds authentication configuration.
// GoogleClientID identifies the OAuth client the UI signs in with;
// JWTSecret signs the agent's own session tokens for the local API.
type AuthConfig struct {
	GoogleClientID string `toml:"google_client_id"`
	JWTSecret      string `toml:"jwt_secret"`
	TokenExpiry    string `toml:"token_expiry"`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// RefreshConfig holds polling and refresh intervals
type RefreshConfig struct {
	QuoteInterval   string `toml:"quote_interval"`
	SessionInterval string `toml:"session_interval"`
}

// GetQuoteInterval parses and returns the quote polling interval
func (c *RefreshConfig) GetQuoteInterval() time.Duration {
	d, err := time.ParseDuration(c.QuoteInterval)
	if err != nil {
		return FreshnessQuote
	}
	return d
}

// GetSessionInterval parses and returns the silent session refresh interval
func (c *RefreshConfig) GetSessionInterval() time.Duration {
	d, err := time.ParseDuration(c.SessionInterval)
	if err != nil {
		return FreshnessPortfolio
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7370,
		},
		Storage: StorageConfig{
			Path: "data/local",
		},
		Clients: ClientsConfig{
			TradeDesk: TradeDeskConfig{
				BaseURL:       "http://localhost:3001",
				RateLimit:     10,
				Timeout:       "30s",
				VerifyTimeout: "90s",
				SaveTimeout:   "5s",
			},
			AlphaVantage: AlphaVantageConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 1,
				Timeout:   "15s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Refresh: RefreshConfig{
			QuoteInterval:   "60s",
			SessionInterval: "5m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FINLET_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FINLET_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FINLET_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FINLET_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FINLET_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if v := os.Getenv("FINLET_API_BASE_URL"); v != "" {
		config.Clients.TradeDesk.BaseURL = v
	}
	if v := os.Getenv("FINLET_GOOGLE_CLIENT_ID"); v != "" {
		config.Auth.GoogleClientID = v
	}
	if v := os.Getenv("FINLET_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}

	// API keys accept both the bare and prefixed forms
	for _, name := range []string{"FINLET_GEMINI_API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.Gemini.APIKey = v
			break
		}
	}
	for _, name := range []string{"FINLET_ALPHA_VANTAGE_API_KEY", "ALPHA_VANTAGE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.AlphaVantage.APIKey = v
			break
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
