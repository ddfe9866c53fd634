// Package config loads the runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvironmentLocal selects console logging and .env loading.
const EnvironmentLocal = "local"

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"lambda"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DebugMode   bool   `envconfig:"DEBUG_MODE" default:"true"`

	DeepLAuthKey string `envconfig:"DEEPL_AUTH_KEY" required:"true"`
	DeepLAPIURL  string `envconfig:"DEEPL_API_URL" default:""`

	SlackBotToken      string `envconfig:"SLACK_BOT_TOKEN" required:"true"`
	SlackSigningSecret string `envconfig:"SLACK_SIGNING_SECRET" default:""`
	SlackAppToken      string `envconfig:"SLACK_APP_TOKEN" default:""`
	SlackAPIURL        string `envconfig:"SLACK_API_URL" default:""`

	WorkflowCallbackID string `envconfig:"REACJILATOR_WORKFLOW_CALLBACK_ID" default:"reacjilator"`

	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s"`
	TracingEnabled bool          `envconfig:"TRACING_ENABLED" default:"false"`

	FunctionName string `envconfig:"AWS_LAMBDA_FUNCTION_NAME" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DeepLAuthKey) == "" {
		return fmt.Errorf("DEEPL_AUTH_KEY is required. Place it in a .env file for local runs")
	}
	if strings.TrimSpace(c.SlackBotToken) == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if strings.TrimSpace(c.WorkflowCallbackID) == "" {
		return fmt.Errorf("REACJILATOR_WORKFLOW_CALLBACK_ID is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be >= 0")
	}
	return nil
}

// ValidateLambda checks the settings only the Function URL entry needs.
func (c *Config) ValidateLambda() error {
	if strings.TrimSpace(c.SlackSigningSecret) == "" {
		return fmt.Errorf("SLACK_SIGNING_SECRET is required")
	}
	return nil
}

// ValidateSocketMode checks the settings of the Socket Mode runner.
func (c *Config) ValidateSocketMode() error {
	if !strings.HasPrefix(strings.TrimSpace(c.SlackAppToken), "xapp-") {
		return fmt.Errorf("SLACK_APP_TOKEN must be an app-level token (xapp-...)")
	}
	return nil
}

// EffectiveLogLevel is debug in debug mode and LOG_LEVEL otherwise.
func (c *Config) EffectiveLogLevel() string {
	if c.DebugMode {
		return "debug"
	}
	return c.LogLevel
}
