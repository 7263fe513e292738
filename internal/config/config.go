package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the local development backend.
const DefaultBaseURL = "http://localhost:5000/api"

// Config models hireline.yml plus its environment overrides.
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Actor   ActorConfig   `mapstructure:"actor" yaml:"actor"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Sandbox SandboxConfig `mapstructure:"sandbox" yaml:"sandbox"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// APIConfig points the client at a backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Token   string        `mapstructure:"token" yaml:"token,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ActorConfig controls attribution of lifecycle writes when no session is present.
type ActorConfig struct {
	Default string `mapstructure:"default" yaml:"default,omitempty"`
}

// SessionConfig verifies bearer tokens locally when a secret is known.
type SessionConfig struct {
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`
}

// SandboxConfig configures the local stand-in backend.
type SandboxConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	BasePath  string `mapstructure:"base_path" yaml:"base_path"`
	Workspace string `mapstructure:"workspace" yaml:"workspace"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load builds the config from defaults, an optional YAML file and the
// environment (a .env file in the working directory is honoured). An empty
// path skips the file; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config %s not found; create one with hl config init", path)
			}
			return nil, err
		}
		values, err := decodeYAML(data)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("merge config: %w", err)
		}
	}
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the config used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("config.api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("config.api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config.api.base_url must be http(s), got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return errors.New("config.api.timeout must not be negative")
	}
	if c.Sandbox.BasePath != "" && !strings.HasPrefix(c.Sandbox.BasePath, "/") {
		return fmt.Errorf("config.sandbox.base_path must start with /, got %q", c.Sandbox.BasePath)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}

// YAML renders the config as hireline.yml content.
func (c *Config) YAML() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	out, err := Default().YAML()
	if err != nil {
		panic(err)
	}
	return out
}

func decodeYAML(data []byte) (map[string]any, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	return values, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("actor.default", "")
	v.SetDefault("session.secret", "")
	v.SetDefault("sandbox.addr", "127.0.0.1:5000")
	v.SetDefault("sandbox.base_path", "/api")
	v.SetDefault("sandbox.workspace", ".")
	v.SetDefault("sandbox.jwt_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.base_url":       "HIRELINE_API_URL",
		"api.token":          "HIRELINE_TOKEN",
		"api.timeout":        "HIRELINE_API_TIMEOUT",
		"actor.default":      "HIRELINE_DEFAULT_ACTOR",
		"session.secret":     "HIRELINE_SESSION_SECRET",
		"sandbox.addr":       "HIRELINE_SANDBOX_ADDR",
		"sandbox.base_path":  "HIRELINE_SANDBOX_BASE_PATH",
		"sandbox.workspace":  "HIRELINE_SANDBOX_WORKSPACE",
		"sandbox.jwt_secret": "HIRELINE_JWT_SECRET",
		"log.level":          "HIRELINE_LOG_LEVEL",
		"log.format":         "HIRELINE_LOG_FORMAT",
	}
	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}
