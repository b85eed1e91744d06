// Package config loads the service configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables holding secrets. They override file values.
const (
	EnvOAuthClientID     = "OAUTH_GOOGLE_CLIENT_ID"
	EnvOAuthClientSecret = "OAUTH_GOOGLE_CLIENT_SECRET"
	EnvGeneratorAPIKey   = "GENERATOR_API_KEY"
)

type OAuth struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenFile    string `yaml:"token_file"`
	URL          string `yaml:"url"`
}

type Staging struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type Confirm struct {
	MaxCreateAttempts int `yaml:"max_create_attempts"`
}

type Generator struct {
	Endpoint           string        `yaml:"endpoint"`
	Model              string        `yaml:"model"`
	APIKey             string        `yaml:"api_key"`
	Temperature        float64       `yaml:"temperature"`
	Timeout            time.Duration `yaml:"timeout"`
	CustomInstructions string        `yaml:"custom_instructions"`
}

type History struct {
	MaxResults int64 `yaml:"max_results"`
}

type Knowledge struct {
	DBPath string `yaml:"db_path"`
	Seed   bool   `yaml:"seed"`
}

type Tracing struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type Config struct {
	HTTPAddr  string    `yaml:"http_addr"`
	LogFile   string    `yaml:"log_file"`
	OAuth     OAuth     `yaml:"oauth"`
	Staging   Staging   `yaml:"staging"`
	Confirm   Confirm   `yaml:"confirm"`
	Generator Generator `yaml:"generator"`
	History   History   `yaml:"history"`
	Knowledge Knowledge `yaml:"knowledge"`
	Tracing   Tracing   `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTPAddr: "localhost:0",
		OAuth: OAuth{
			TokenFile: "./data/gmail-reply-mcp-token.json",
		},
		Staging: Staging{
			TTL:           10 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Confirm: Confirm{MaxCreateAttempts: 2},
		Generator: Generator{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		History: History{MaxResults: 10},
		Knowledge: Knowledge{
			DBPath: "data/knowledge.db",
			Seed:   true,
		},
		Tracing: Tracing{ServiceName: "gmail-reply-mcp"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path yields the defaults with overrides.
func Load(path string) (*Config, error) {
	conf := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("os.ReadFile failed: %w", err)
		}
		if err := yaml.Unmarshal(buf, conf); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal failed: %w", err)
		}
	}

	conf.applyEnv()

	return conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOAuthClientID); v != "" {
		c.OAuth.ClientID = v
	}
	if v := os.Getenv(EnvOAuthClientSecret); v != "" {
		c.OAuth.ClientSecret = v
	}
	if v := os.Getenv(EnvGeneratorAPIKey); v != "" {
		c.Generator.APIKey = v
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("oauth: %s and %s must be set", EnvOAuthClientID, EnvOAuthClientSecret))
	}
	if c.Staging.TTL <= 0 {
		errs = append(errs, errors.New("staging.ttl must be positive"))
	}
	if c.Staging.SweepInterval <= 0 || c.Staging.SweepInterval >= c.Staging.TTL {
		errs = append(errs, fmt.Errorf("staging.sweep_interval must be positive and shorter than staging.ttl (%s)", c.Staging.TTL))
	}
	if c.Confirm.MaxCreateAttempts < 1 {
		errs = append(errs, errors.New("confirm.max_create_attempts must be at least 1"))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator.timeout must be positive"))
	}
	if c.Generator.Temperature < 0 || c.Generator.Temperature > 2 {
		errs = append(errs, errors.New("generator.temperature must be between 0 and 2"))
	}
	if c.Generator.Endpoint == "" {
		errs = append(errs, errors.New("generator.endpoint must be set"))
	}
	if c.History.MaxResults < 1 {
		errs = append(errs, errors.New("history.max_results must be at least 1"))
	}

	return errors.Join(errs...)
}
