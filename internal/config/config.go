package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Stream    StreamConfig    `yaml:"stream"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the persistence backend: "postgres" for a shared
// deployment, "local" for the single-user SQLite store.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	LocalDir string         `yaml:"local_dir"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// StreamConfig tunes the landmark source.
type StreamConfig struct {
	TargetFPS     int     `yaml:"target_fps"`
	MinConfidence float64 `yaml:"min_confidence"`
	// Mock enables the synthetic sinusoidal source for development.
	Mock bool `yaml:"mock"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix POSECOACH_ and underscore-separated
// paths:
//
//	POSECOACH_SERVER_HOST, POSECOACH_SERVER_PORT,
//	POSECOACH_STORAGE_BACKEND, POSECOACH_STORAGE_LOCAL_DIR,
//	POSECOACH_DB_HOST, POSECOACH_DB_PORT, POSECOACH_DB_NAME,
//	POSECOACH_DB_USER, POSECOACH_DB_PASSWORD, POSECOACH_DB_SSLMODE,
//	POSECOACH_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "data"
	}
	if cfg.Stream.TargetFPS == 0 {
		cfg.Stream.TargetFPS = 30
	}
	if cfg.Stream.MinConfidence == 0 {
		cfg.Stream.MinConfidence = 0.5
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSECOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("POSECOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("POSECOACH_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("POSECOACH_STORAGE_LOCAL_DIR"); v != "" {
		cfg.Storage.LocalDir = v
	}
	if v := os.Getenv("POSECOACH_DB_HOST"); v != "" {
		cfg.Storage.Database.Host = v
	}
	if v := os.Getenv("POSECOACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Database.Port = port
		}
	}
	if v := os.Getenv("POSECOACH_DB_NAME"); v != "" {
		cfg.Storage.Database.Name = v
	}
	if v := os.Getenv("POSECOACH_DB_USER"); v != "" {
		cfg.Storage.Database.User = v
	}
	if v := os.Getenv("POSECOACH_DB_PASSWORD"); v != "" {
		cfg.Storage.Database.Password = v
	}
	if v := os.Getenv("POSECOACH_DB_SSLMODE"); v != "" {
		cfg.Storage.Database.SSLMode = v
	}
	if v := os.Getenv("POSECOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Storage.Backend {
	case "local":
		// LocalDir is defaulted, nothing further to check.
	case "postgres":
		if c.Storage.Database.Host == "" {
			return fmt.Errorf("storage.database.host is required for the postgres backend")
		}
		if c.Storage.Database.Port == 0 {
			return fmt.Errorf("storage.database.port is required for the postgres backend")
		}
		if c.Storage.Database.Name == "" {
			return fmt.Errorf("storage.database.name is required for the postgres backend")
		}
		if c.Storage.Database.User == "" {
			return fmt.Errorf("storage.database.user is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q", "local", "postgres")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Stream.TargetFPS < 0 || c.Stream.TargetFPS > 120 {
		return fmt.Errorf("stream.target_fps out of range")
	}
	if c.Stream.MinConfidence < 0 || c.Stream.MinConfidence > 1 {
		return fmt.Errorf("stream.min_confidence must be in [0,1]")
	}
	return nil
}
