package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/epoch/internal/platform/validation"
	"github.com/spf13/viper"
)

// Config is the full process configuration. Everything is sourced from the
// environment (optionally seeded from a .env file) or a config.yaml.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Gemini     GeminiSettings   `mapstructure:"gemini"`
	LMStudio   EndpointSettings `mapstructure:"lm_studio"`
	LMProxy    EndpointSettings `mapstructure:"lm_proxy"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
	Env  string `mapstructure:"env" validate:"oneof=development production test"`
}

type DatabaseConfig struct {
	// DSN of the sqlite generation journal. Empty disables the journal.
	DSN string `mapstructure:"dsn"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=1"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=gemini lm_studio lm_proxy openrouter"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type GeminiSettings struct {
	Model  string `mapstructure:"model" validate:"required"`
	APIKey string `mapstructure:"api_key"`
}

type EndpointSettings struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type OpenRouterConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	SiteURL  string `mapstructure:"site_url"`
	AppTitle string `mapstructure:"app_title"`
}

var defaults = map[string]any{
	"server.port":                     "8080",
	"server.env":                      "development",
	"database.dsn":                    "file:epoch.db?cache=shared&_busy_timeout=5000",
	"rate_limit.requests_per_second":  10.0,
	"rate_limit.burst":                20,
	"tracing.enabled":                 false,
	"tracing.service_name":            "epoch",
	"llm.provider":                    string(ProviderGemini),
	"llm.timeout":                     "90s",
	"gemini.model":                    "gemini-2.0-flash-exp",
	"lm_studio.base_url":              "http://localhost:1234/v1",
	"lm_studio.model":                 "lmstudio-community/Phi-3-4k-mini",
	"lm_proxy.base_url":               "http://localhost:8000/v1",
	"lm_proxy.model":                  "lmproxy/default",
	"openrouter.base_url":             "https://openrouter.ai/api/v1",
	"openrouter.model":                "openrouter/auto",
	"openrouter.app_title":            "Epoch Simulation",
}

// settings without a default still need to be known to viper so that
// AutomaticEnv picks them up during Unmarshal.
var optional = []string{
	"gemini.api_key",
	"openrouter.api_key",
	"openrouter.site_url",
}

// Load reads configuration from a config file and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range optional {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &Error{Reason: "error reading config file", Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Reason: "unable to decode settings", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the shape of every setting.
func (c *Config) Validate() error {
	v := validation.New("mapstructure")
	if err := v.Struct(c); err != nil {
		fields := v.ParseError(err)

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		first := keys[0]
		return &Error{
			Setting: EnvName(first),
			Reason:  fields[first],
			Err:     err,
		}
	}
	return nil
}

// EnvName maps a dotted settings key to its environment variable name.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Error is returned whenever a setting is missing or malformed. It is never
// retried automatically.
type Error struct {
	Setting string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Setting != "":
		return fmt.Sprintf("config %s: %s", e.Setting, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	default:
		return "config: " + e.Reason
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
