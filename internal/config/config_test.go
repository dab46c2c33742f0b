package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ProviderWebhook, cfg.Evaluator.Provider)
	assert.Equal(t, 90, cfg.Records.TTLDays)
	assert.Equal(t, 90*24*time.Hour, cfg.RecordTTL())
	assert.Equal(t, 10*time.Minute, cfg.StateTTL())
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromYAML(t *testing.T) {
	content := `
server:
  port: "9090"
mysql:
  dsn: "user:pass@tcp(localhost:3306)/reviews?parseTime=true"
evaluator:
  provider: vertexai
  google_cloud_project: hiring-prod
records:
  ttl_days: 30
logger:
  level: debug
  format: pretty
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, ProviderVertexAI, cfg.Evaluator.Provider)
	assert.Equal(t, "hiring-prod", cfg.Evaluator.GoogleCloudProject)
	// untouched keys keep their defaults
	assert.Equal(t, "us-central1", cfg.Evaluator.GoogleCloudLocation)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 30, cfg.Records.TTLDays)
	assert.Equal(t, "pretty", cfg.Logger.Format)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":               "7000",
		"MYSQL_DSN":          "dsn-from-env",
		"REDIS_ADDR":         "redis:6379",
		"N8N_WEBHOOK_URL":    "https://n8n.example.com/webhook/eval",
		"N8N_SENDTO_URL":     "https://n8n.example.com/webhook/send",
		"SLACK_CLIENT_ID":    "client",
		"APP_BASE_URL":       "https://review.example.com",
		"EVALUATOR_PROVIDER": "webhook",
		"RECORD_TTL_DAYS":    "7",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(key string) string { return env[key] })

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "dsn-from-env", cfg.MySQL.DSN)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "https://n8n.example.com/webhook/eval", cfg.Evaluator.WebhookURL)
	assert.Equal(t, "https://n8n.example.com/webhook/send", cfg.Evaluator.SendToURL)
	assert.Equal(t, "client", cfg.Slack.ClientID)
	assert.Equal(t, "https://review.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 7, cfg.Records.TTLDays)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.MySQL.DSN = "dsn"
		cfg.Evaluator.WebhookURL = "https://n8n.example.com/webhook/eval"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid webhook config", mutate: func(*Config) {}},
		{name: "missing dsn", mutate: func(c *Config) { c.MySQL.DSN = "" }, wantErr: true},
		{name: "missing webhook url", mutate: func(c *Config) { c.Evaluator.WebhookURL = "" }, wantErr: true},
		{
			name: "vertexai needs project",
			mutate: func(c *Config) {
				c.Evaluator.Provider = ProviderVertexAI
			},
			wantErr: true,
		},
		{
			name: "vertexai with project",
			mutate: func(c *Config) {
				c.Evaluator.Provider = ProviderVertexAI
				c.Evaluator.GoogleCloudProject = "hiring-prod"
			},
		},
		{name: "unknown provider", mutate: func(c *Config) { c.Evaluator.Provider = "carrier-pigeon" }, wantErr: true},
		{name: "non-positive ttl", mutate: func(c *Config) { c.Records.TTLDays = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluatorTimeout(t *testing.T) {
	assert.Equal(t, 120*time.Second, DefaultConfig().Evaluator.Timeout())
	assert.Equal(t, time.Duration(0), EvaluatorConfig{TimeoutSeconds: -1}.Timeout())
}
