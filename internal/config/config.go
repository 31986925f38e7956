package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ecoshelf-extractor/internal/types"

	"github.com/spf13/viper"
)

// Config holds all configuration for the relay and the scraper
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Scraper ScraperConfig `mapstructure:"scraper"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds relay server configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OpenAIConfig holds language-model API configuration
type OpenAIConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// ScraperConfig holds page loading and collection settings
type ScraperConfig struct {
	RelayURL           string        `mapstructure:"relay_url"`
	RequestDelay       time.Duration `mapstructure:"request_delay"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
	UseHeadlessBrowser bool          `mapstructure:"use_headless_browser"`
	UserAgent          string        `mapstructure:"user_agent"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	WaitTimeout        time.Duration `mapstructure:"wait_timeout"`
	TrimTimeout        time.Duration `mapstructure:"trim_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`

	// Explicit is true when the level came from config.yaml or the environment
	Explicit bool `mapstructure:"-"`
}

// Load reads an optional config.yaml and ECOSHELF_* environment variables.
// The API key is read from OPENAI_API_KEY. A missing key is not an error
// here: the relay reports it per request.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ecoshelf/")

	v.SetEnvPrefix("ECOSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Log.Explicit = v.InConfig("log.level") || envSet("ECOSHELF_LOG_LEVEL", "LOG_LEVEL")

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := types.DefaultConfig()

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4.1-nano")
	v.SetDefault("openai.requests_per_minute", 0)

	v.SetDefault("scraper.relay_url", defaults.RelayURL)
	v.SetDefault("scraper.request_delay", defaults.RequestDelay)
	v.SetDefault("scraper.max_retries", defaults.MaxRetries)
	v.SetDefault("scraper.timeout", defaults.Timeout)
	v.SetDefault("scraper.use_headless_browser", defaults.UseHeadlessBrowser)
	v.SetDefault("scraper.user_agent", defaults.UserAgent)
	v.SetDefault("scraper.poll_interval", defaults.PollInterval)
	v.SetDefault("scraper.wait_timeout", defaults.WaitTimeout)
	v.SetDefault("scraper.trim_timeout", defaults.TrimTimeout)

	v.SetDefault("log.level", "info")
}

// bindEnv maps the unprefixed variables the relay has always used
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"openai.api_key": {"ECOSHELF_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"server.port":    {"ECOSHELF_SERVER_PORT", "API_PORT"},
		"log.level":      {"ECOSHELF_LOG_LEVEL", "LOG_LEVEL"},
	}
	for key, envs := range bindings {
		input := append([]string{key}, envs...)
		if err := v.BindEnv(input...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func envSet(names ...string) bool {
	for _, name := range names {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if config.Scraper.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got: %s", config.Scraper.PollInterval)
	}
	if config.Scraper.WaitTimeout < 0 {
		return fmt.Errorf("wait timeout must not be negative, got: %s", config.Scraper.WaitTimeout)
	}
	if config.Scraper.TrimTimeout <= 0 {
		return fmt.Errorf("trim timeout must be positive, got: %s", config.Scraper.TrimTimeout)
	}
	if config.Scraper.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got: %d", config.Scraper.MaxRetries)
	}
	return nil
}

// ScraperTypes converts the scraper section into the runtime config used
// by adapters and collectors
func (c *Config) ScraperTypes() *types.Config {
	return &types.Config{
		RequestDelay:       c.Scraper.RequestDelay,
		MaxRetries:         c.Scraper.MaxRetries,
		Timeout:            c.Scraper.Timeout,
		UseHeadlessBrowser: c.Scraper.UseHeadlessBrowser,
		UserAgent:          c.Scraper.UserAgent,
		PollInterval:       c.Scraper.PollInterval,
		WaitTimeout:        c.Scraper.WaitTimeout,
		TrimTimeout:        c.Scraper.TrimTimeout,
		RelayURL:           c.Scraper.RelayURL,
	}
}
