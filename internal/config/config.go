package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fmuoria/interview-review-agent/internal/logger"
)

// Evaluator providers
const (
	ProviderWebhook  = "webhook"
	ProviderVertexAI = "vertexai"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Drive     DriveConfig     `yaml:"drive"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Slack     SlackConfig     `yaml:"slack"`
	Manatal   ManatalConfig   `yaml:"manatal"`
	Records   RecordsConfig   `yaml:"records"`
	Logger    logger.Config   `yaml:"logger"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port                   string `yaml:"port"`
	BaseURL                string `yaml:"base_url"` // public URL of the UI, used for OAuth redirects
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	ExportConcurrency      int    `yaml:"export_concurrency"`
}

// MySQLConfig configures the candidate record store
type MySQLConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               int    `yaml:"log_level"` // 1 silent .. 4 info
}

// RedisConfig configures the OAuth state store
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	PoolSize        int    `yaml:"pool_size"`
	StateTTLMinutes int    `yaml:"state_ttl_minutes"`
}

// DriveConfig configures how interview notes are found in Google Drive
type DriveConfig struct {
	ListPageSize int `yaml:"list_page_size"`
}

// EvaluatorConfig selects and configures the evaluation workflow
type EvaluatorConfig struct {
	Provider            string `yaml:"provider"`
	WebhookURL          string `yaml:"webhook_url"`
	SendToURL           string `yaml:"send_to_url"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	GoogleCloudProject  string `yaml:"google_cloud_project"`
	GoogleCloudLocation string `yaml:"google_cloud_location"`
	Model               string `yaml:"model"`
}

// SlackConfig holds the Slack app credentials for the OAuth connect flow
type SlackConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURI  string   `yaml:"redirect_uri"`
	UserScopes   []string `yaml:"user_scopes"`
}

// ManatalConfig configures the ATS candidate lookup
type ManatalConfig struct {
	BaseURL string `yaml:"base_url"`
}

// RecordsConfig controls candidate record expiry
type RecordsConfig struct {
	TTLDays              int `yaml:"ttl_days"`
	PurgeIntervalMinutes int `yaml:"purge_interval_minutes"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8080",
			BaseURL:                "http://localhost:3000",
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    120,
			ShutdownTimeoutSeconds: 15,
			ExportConcurrency:      4,
		},
		MySQL: MySQLConfig{
			MaxIdleConns:           5,
			MaxOpenConns:           20,
			ConnMaxLifetimeMinutes: 30,
			LogLevel:               2,
		},
		Redis: RedisConfig{
			Address:         "localhost:6379",
			PoolSize:        10,
			StateTTLMinutes: 10,
		},
		Drive: DriveConfig{
			ListPageSize: 100,
		},
		Evaluator: EvaluatorConfig{
			Provider:            ProviderWebhook,
			TimeoutSeconds:      120,
			GoogleCloudLocation: "us-central1",
			Model:               "gemini-1.5-flash",
		},
		Slack: SlackConfig{
			UserScopes: []string{"chat:write", "channels:read", "users:read"},
		},
		Manatal: ManatalConfig{
			BaseURL: "https://api.manatal.com/open/v3",
		},
		Records: RecordsConfig{
			TTLDays:              90,
			PurgeIntervalMinutes: 60,
		},
		Logger: logger.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (optional), then .env, then the environment
func Load(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// LoadFrom loads configuration from a YAML file on top of the defaults.
// A missing or empty path yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from environment variables read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Server.Port, "PORT")
	set(&c.Server.BaseURL, "APP_BASE_URL")
	set(&c.MySQL.DSN, "MYSQL_DSN")
	set(&c.Redis.Address, "REDIS_ADDR")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	set(&c.Evaluator.Provider, "EVALUATOR_PROVIDER")
	set(&c.Evaluator.WebhookURL, "N8N_WEBHOOK_URL")
	set(&c.Evaluator.SendToURL, "N8N_SENDTO_URL")
	set(&c.Evaluator.GoogleCloudProject, "GOOGLE_CLOUD_PROJECT")
	set(&c.Evaluator.GoogleCloudLocation, "GOOGLE_CLOUD_LOCATION")
	set(&c.Slack.ClientID, "SLACK_CLIENT_ID")
	set(&c.Slack.ClientSecret, "SLACK_CLIENT_SECRET")
	set(&c.Slack.RedirectURI, "SLACK_REDIRECT_URI")
	set(&c.Logger.Level, "LOG_LEVEL")

	if v := getenv("RECORD_TTL_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.Records.TTLDays = days
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}

	if c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required")
	}

	switch c.Evaluator.Provider {
	case ProviderWebhook:
		if c.Evaluator.WebhookURL == "" {
			return fmt.Errorf("evaluator.webhook_url is required for the webhook provider")
		}
	case ProviderVertexAI:
		if c.Evaluator.GoogleCloudProject == "" {
			return fmt.Errorf("evaluator.google_cloud_project is required for the vertexai provider")
		}
		if c.Evaluator.GoogleCloudLocation == "" {
			return fmt.Errorf("evaluator.google_cloud_location is required for the vertexai provider")
		}
	default:
		return fmt.Errorf("unknown evaluator provider %q", c.Evaluator.Provider)
	}

	if c.Records.TTLDays <= 0 {
		return fmt.Errorf("records.ttl_days must be positive")
	}

	return nil
}

// RecordTTL returns the lifetime of a newly created candidate record
func (c *Config) RecordTTL() time.Duration {
	return time.Duration(c.Records.TTLDays) * 24 * time.Hour
}

// PurgeInterval returns how often expired candidate records are deleted
func (c *Config) PurgeInterval() time.Duration {
	if c.Records.PurgeIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Records.PurgeIntervalMinutes) * time.Minute
}

// StateTTL returns how long a pending OAuth state stays valid
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.Redis.StateTTLMinutes) * time.Minute
}

// Timeout returns the timeout for one evaluation call; zero means none
func (c EvaluatorConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
