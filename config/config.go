package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dungnh3/requestable/http_client"
	"github.com/dungnh3/requestable/log"
)

// EnvPrefix prefixes every environment override, e.g. REQUESTABLE_CLIENT_TIMEOUT_MS.
const EnvPrefix = "REQUESTABLE"

// ClientConfig configures the request facade.
type ClientConfig struct {
	BaseURL   string            `json:"base_url" mapstructure:"base_url" yaml:"base_url"`
	TimeoutMs int               `json:"timeout_ms" mapstructure:"timeout_ms" yaml:"timeout_ms"`
	Header    map[string]string `json:"header" mapstructure:"header" yaml:"header"`
	Transport string            `json:"transport" mapstructure:"transport" yaml:"transport"`
}

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	Log    log.Config   `json:"log" mapstructure:"log" yaml:"log"`
	Client ClientConfig `json:"client" mapstructure:"client" yaml:"client"`
}

// Load reads configuration from an optional .env file, an optional config file
// (any format viper understands) and REQUESTABLE_* environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	defaults := log.DefaultConfig()
	v.SetDefault("log.level", defaults.Level)
	v.SetDefault("log.mode", defaults.Mode)
	v.SetDefault("log.encoding", defaults.Encoding)
	v.SetDefault("client.base_url", "")
	v.SetDefault("client.timeout_ms", 5000)
	v.SetDefault("client.transport", http_client.TransportStd)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Client.TimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid client.timeout_ms (must be positive milliseconds)")
	}
	return &cfg, nil
}

// Timeout is TimeoutMs as a duration.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Option turns the config into the facade option, building the configured transport.
func (c ClientConfig) Option() (*http_client.Option, error) {
	doer, err := http_client.NewDoer(c.Transport, c.Timeout())
	if err != nil {
		return nil, err
	}
	return &http_client.Option{
		BaseURL:   c.BaseURL,
		Header:    c.Header,
		TimeoutMs: c.TimeoutMs,
		Doer:      doer,
	}, nil
}
