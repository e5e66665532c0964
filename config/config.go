package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Relay    RelayConfig    `yaml:"relay"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Registry RegistryConfig `yaml:"registry"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type RelayConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type StorageConfig struct {
	Backend string      `yaml:"backend"` // "memory" or "redis"
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RegistryConfig struct {
	Gateways []GatewayEntry `yaml:"gateways"`
}

type GatewayEntry struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

type DispatchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MinInterval time.Duration `yaml:"min_interval"`
}

type AuthConfig struct {
	Tokens []TokenEntry `yaml:"tokens"`
}

type TokenEntry struct {
	Token string `yaml:"token"`
	UID   string `yaml:"uid"`
	Name  string `yaml:"name"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxAge     int    `yaml:"max_age"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Storage: StorageConfig{Backend: "memory"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override backing-store settings from environment variables if available
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Storage.Redis.Address = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Storage.Redis.Password = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Logging.CloudWatch.Region = strings.TrimSpace(v)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Relay.Name == "" {
		return fmt.Errorf("relay.name is required")
	}

	if cfg.Relay.Version == "" {
		return fmt.Errorf("relay.version is required")
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "redis":
		if cfg.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address is required when the redis backend is selected")
		}
	default:
		return fmt.Errorf("storage.backend '%s' is not supported", cfg.Storage.Backend)
	}

	for i, gw := range cfg.Registry.Gateways {
		if gw.URL == "" {
			return fmt.Errorf("registry.gateways[%d].url is required", i)
		}
	}

	for i, token := range cfg.Auth.Tokens {
		if token.Token == "" || token.UID == "" {
			return fmt.Errorf("auth.tokens[%d] requires both token and uid", i)
		}
	}

	if cfg.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch.timeout must not be negative")
	}

	return nil
}
