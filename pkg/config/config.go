package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Events    EventsConfig    `mapstructure:"events"`
	Warp      WarpConfig      `mapstructure:"warp"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds the host bridge HTTP settings
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Environment  string        `mapstructure:"environment"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig selects where warp documents live
type StorageConfig struct {
	Driver   string `mapstructure:"driver"` // file or redis
	Root     string `mapstructure:"root"`
	DirName  string `mapstructure:"dir_name"`
	FileName string `mapstructure:"file_name"`
}

// RedisConfig holds Redis connection settings, shared by the redis store and the event stream
type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// EventsConfig configures the domain event bus
type EventsConfig struct {
	Driver        string        `mapstructure:"driver"` // memory or redis
	ConsumerGroup string        `mapstructure:"consumer_group"`
	CloseTimeout  time.Duration `mapstructure:"close_timeout"`
}

// WarpConfig holds the warp command rules
type WarpConfig struct {
	Namespace     string `mapstructure:"namespace"`
	PrivilegedTag string `mapstructure:"privileged_tag"`
}

// AuthConfig holds the bridge token settings
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	Issuer        string        `mapstructure:"issuer"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
}

// RateLimitConfig limits bridge requests per client address
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
	Encoding    string `mapstructure:"encoding"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/warpgate")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.root", "./worlds")
	v.SetDefault("storage.dir_name", "warp_mod")
	v.SetDefault("storage.file_name", "warps.json")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key_prefix", "warps")

	v.SetDefault("events.driver", "memory")
	v.SetDefault("events.consumer_group", "warpgate")
	v.SetDefault("events.close_timeout", "5s")

	v.SetDefault("warp.namespace", "cultivatormod")
	v.SetDefault("warp.privileged_tag", "staff")

	v.SetDefault("auth.jwt_secret", "dev-jwt-secret-change-in-production")
	v.SetDefault("auth.issuer", "warpgate")
	v.SetDefault("auth.jwt_expiration", "24h")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")
	v.SetDefault("log.encoding", "console")
}

// validateConfig validates the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if !contains([]string{"file", "redis"}, cfg.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s", cfg.Storage.Driver)
	}

	if cfg.Storage.Driver == "file" {
		if cfg.Storage.Root == "" {
			return fmt.Errorf("storage root cannot be empty")
		}
		if cfg.Storage.DirName == "" || cfg.Storage.FileName == "" {
			return fmt.Errorf("storage dir_name and file_name cannot be empty")
		}
	}

	if !contains([]string{"memory", "redis"}, cfg.Events.Driver) {
		return fmt.Errorf("invalid events driver: %s", cfg.Events.Driver)
	}

	if (cfg.Storage.Driver == "redis" || cfg.Events.Driver == "redis") && cfg.Redis.URL == "" {
		return fmt.Errorf("redis url is required when a redis driver is selected")
	}

	if cfg.Warp.Namespace == "" || strings.Contains(cfg.Warp.Namespace, ":") {
		return fmt.Errorf("invalid warp namespace: %q", cfg.Warp.Namespace)
	}

	if cfg.Warp.PrivilegedTag == "" {
		return fmt.Errorf("warp privileged tag cannot be empty")
	}

	if len(cfg.Auth.JWTSecret) < 8 {
		return fmt.Errorf("JWT secret must be at least 8 characters long")
	}

	if cfg.Auth.JWTExpiration < time.Minute {
		return fmt.Errorf("JWT expiration must be at least 1 minute")
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit needs a positive rate and burst")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Log.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, cfg.Log.Encoding) {
		return fmt.Errorf("invalid log encoding: %s", cfg.Log.Encoding)
	}

	return nil
}

// GetServerAddr returns the server address in host:port format
func (s *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction returns true if the environment is production
func (s *ServerConfig) IsProduction() bool {
	return strings.ToLower(s.Environment) == "production"
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
