package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the intake service
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	MetaCAPI  MetaCAPIConfig  `yaml:"meta_capi"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// SheetsConfig holds Google Sheets service-account configuration.
// The sheet is the durable registration store: one appended row per lead.
type SheetsConfig struct {
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKey          string `yaml:"private_key"`
	SpreadsheetID       string `yaml:"spreadsheet_id"`
	Range               string `yaml:"range"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AnalyticsConfig holds the behavioral analytics collector configuration
type AnalyticsConfig struct {
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c AnalyticsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MetaCAPIConfig holds Meta Conversions API configuration.
// An empty AccessToken disables the relay entirely (not an error).
type MetaCAPIConfig struct {
	PixelID        string `yaml:"pixel_id"`
	AccessToken    string `yaml:"access_token"`
	TestEventCode  string `yaml:"test_event_code"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c MetaCAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Sheets.Range == "" {
		c.Sheets.Range = "Sheet1!A:D"
	}
	if c.Sheets.TimeoutSeconds == 0 {
		c.Sheets.TimeoutSeconds = 10
	}
	if c.Analytics.Endpoint == "" {
		c.Analytics.Endpoint = "https://us.i.posthog.com"
	}
	if c.Analytics.TimeoutSeconds == 0 {
		c.Analytics.TimeoutSeconds = 10
	}
	if c.MetaCAPI.APIVersion == "" {
		c.MetaCAPI.APIVersion = "v21.0"
	}
	if c.MetaCAPI.TimeoutSeconds == 0 {
		c.MetaCAPI.TimeoutSeconds = 10
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
// A missing config file is not an error: the service can run on env vars
// alone, which is how it is deployed behind the landing site.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			cfg = &Config{}
			cfg.applyDefaults()
		} else {
			cfg = loaded
		}
	} else {
		cfg = &Config{}
		cfg.applyDefaults()
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		cfg.Server.AllowedOrigins = cfg.Server.AllowedOrigins[:0]
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, trimmed)
			}
		}
	}
	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"); v != "" {
		cfg.Sheets.ServiceAccountEmail = v
	}
	if v := os.Getenv("GOOGLE_PRIVATE_KEY"); v != "" {
		cfg.Sheets.PrivateKey = v
	}
	if v := os.Getenv("GOOGLE_SHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_SHEET_RANGE"); v != "" {
		cfg.Sheets.Range = v
	}
	if v := os.Getenv("POSTHOG_API_KEY"); v != "" {
		cfg.Analytics.APIKey = v
	}
	if v := os.Getenv("POSTHOG_ENDPOINT"); v != "" {
		cfg.Analytics.Endpoint = v
	}
	if v := os.Getenv("META_PIXEL_ID"); v != "" {
		cfg.MetaCAPI.PixelID = v
	}
	if v := os.Getenv("META_ACCESS_TOKEN"); v != "" {
		cfg.MetaCAPI.AccessToken = v
	}
	if v := os.Getenv("META_TEST_EVENT_CODE"); v != "" {
		cfg.MetaCAPI.TestEventCode = v
	}

	return cfg, nil
}
