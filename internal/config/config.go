package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	API        APIConfig        `yaml:"api"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Quota      QuotaConfig      `yaml:"quota"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Moderation ModerationConfig `yaml:"moderation"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig represents Redis configuration. Redis is optional; when
// Addr is empty the per-tenant rate limiter is disabled.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NATSConfig represents NATS configuration. NATS is optional; when URL
// is empty moderation events are not published.
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// QuotaConfig represents quota accounting configuration
type QuotaConfig struct {
	// DefaultMonthly applies to tenants without an active subscription
	DefaultMonthly int64 `yaml:"default_monthly"`
}

// RateLimitConfig represents per-tenant rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// ModerationConfig represents the classification backend configuration
type ModerationConfig struct {
	BaseURL        string                 `yaml:"base_url"`
	APIToken       string                 `yaml:"api_token"`
	RequestTimeout time.Duration          `yaml:"request_timeout"`
	DefaultModel   string                 `yaml:"default_model"`
	Models         map[string]ModelConfig `yaml:"models"`
	LabelRules     []LabelRule            `yaml:"label_rules"`
}

// ModelConfig maps a public model key to a concrete backend model
type ModelConfig struct {
	Provider  string  `yaml:"provider"`
	Model     string  `yaml:"model"`
	Threshold float64 `yaml:"threshold"`
}

// LabelRule classifies a raw backend label into a category when the
// lower-cased label contains Match. Rules are evaluated in order.
type LabelRule struct {
	Match    string `yaml:"match"`
	Category string `yaml:"category"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply environment overrides
	cfg.applyEnvOverrides()

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c.Redis.Addr = redisAddr
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}

	if token := os.Getenv("MODERATION_API_TOKEN"); token != "" {
		c.Moderation.APIToken = token
	}
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 15 * time.Minute
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}

	if c.Quota.DefaultMonthly == 0 {
		c.Quota.DefaultMonthly = 1000
	}

	if c.Moderation.RequestTimeout == 0 {
		c.Moderation.RequestTimeout = 15 * time.Second
	}
	if c.Moderation.DefaultModel == "" {
		c.Moderation.DefaultModel = "english-basic"
	}
	if c.Moderation.Models == nil {
		c.Moderation.Models = map[string]ModelConfig{
			"english-basic": {
				Provider:  "huggingface",
				Model:     "unitary/toxic-bert",
				Threshold: 0.8,
			},
			"multilingual": {
				Provider:  "huggingface",
				Model:     "unitary/multilingual-toxic-xlm-roberta",
				Threshold: 0.8,
			},
		}
	}
	if c.Moderation.LabelRules == nil {
		c.Moderation.LabelRules = DefaultLabelRules()
	}
}

// DefaultLabelRules returns the built-in label classification table.
// Rules map raw backend labels onto the normalized category set by
// substring match against the lower-cased label.
func DefaultLabelRules() []LabelRule {
	return []LabelRule{
		{Match: "identity", Category: "identity_attack"},
		{Match: "id_hate", Category: "identity_attack"},
		{Match: "insult", Category: "insult"},
		{Match: "threat", Category: "threat"},
		{Match: "obscene", Category: "obscene"},
		{Match: "curse", Category: "obscene"},
		{Match: "sexual", Category: "sexual"},
		{Match: "tox", Category: "toxicity"},
	}
}
