package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	S3Endpoint      string `envconfig:"S3_ENDPOINT"`
	S3AccessKey     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket        string `envconfig:"S3_BUCKET" default:"curio-assets"`
	S3Region        string `envconfig:"S3_REGION" default:"us-east-1"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// TeamWebhookURL receives team-channel shares (Slack-compatible)
	TeamWebhookURL string `envconfig:"TEAM_WEBHOOK_URL"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	// FetchTimeout bounds each page-fetch attempt during ingestion
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	// JobPollInterval controls how often the worker checks for queued
	// process-all jobs
	JobPollInterval time.Duration `envconfig:"JOB_POLL_INTERVAL" default:"5s"`

	// Bootstrap: create initial owner and API key on startup
	InitOwnerName string `envconfig:"INIT_OWNER_NAME"`
	InitAPIKey    string `envconfig:"INIT_API_KEY"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CURIO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasTeamWebhook() bool {
	return c.TeamWebhookURL != ""
}
