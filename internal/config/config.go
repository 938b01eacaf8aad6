package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Client    ClientConfig    `yaml:"client"`
}

// StoreConfig locates the workout store. With driver "rest" URL is the base
// of a PostgREST-compatible endpoint and Key its access key; with driver
// "postgres" the database section is used instead.
type StoreConfig struct {
	URL    string `yaml:"url"`
	Key    string `yaml:"key"`
	Driver string `yaml:"driver"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// StaticDir, when set, is served as a single-page frontend.
	StaticDir string `yaml:"static_dir"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type ClientConfig struct {
	// ActorID owns the sessions this client starts.
	ActorID  string `yaml:"actor_id"`
	StateDir string `yaml:"state_dir"`
	LogFile  string `yaml:"log_file"`
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

// Actor parses the configured actor id. An empty value is the all-zero id.
func (c ClientConfig) Actor() (uuid.UUID, error) {
	if c.ActorID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(c.ActorID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("client.actor_id: %w", err)
	}
	return id, nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix WORKOUTVAULT_ and underscore-separated paths:
//
//	WORKOUTVAULT_STORE_URL, WORKOUTVAULT_STORE_KEY, WORKOUTVAULT_STORE_DRIVER,
//	WORKOUTVAULT_DB_HOST, WORKOUTVAULT_DB_PORT, WORKOUTVAULT_DB_NAME,
//	WORKOUTVAULT_DB_USER, WORKOUTVAULT_DB_PASSWORD, WORKOUTVAULT_DB_SSLMODE,
//	WORKOUTVAULT_SERVER_HOST, WORKOUTVAULT_SERVER_PORT, WORKOUTVAULT_AUTH_API_KEY,
//	WORKOUTVAULT_TS_ENABLED, WORKOUTVAULT_TS_HOSTNAME, WORKOUTVAULT_TS_STATE_DIR,
//	WORKOUTVAULT_ACTOR_ID, WORKOUTVAULT_STATE_DIR, WORKOUTVAULT_LOG_FILE
//
// A missing file is not an error when the environment supplies the store.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("WORKOUTVAULT_STORE_URL", &cfg.Store.URL)
	str("WORKOUTVAULT_STORE_KEY", &cfg.Store.Key)
	str("WORKOUTVAULT_STORE_DRIVER", &cfg.Store.Driver)
	str("WORKOUTVAULT_DB_HOST", &cfg.Database.Host)
	num("WORKOUTVAULT_DB_PORT", &cfg.Database.Port)
	str("WORKOUTVAULT_DB_NAME", &cfg.Database.Name)
	str("WORKOUTVAULT_DB_USER", &cfg.Database.User)
	str("WORKOUTVAULT_DB_PASSWORD", &cfg.Database.Password)
	str("WORKOUTVAULT_DB_SSLMODE", &cfg.Database.SSLMode)
	str("WORKOUTVAULT_SERVER_HOST", &cfg.Server.Host)
	num("WORKOUTVAULT_SERVER_PORT", &cfg.Server.Port)
	str("WORKOUTVAULT_AUTH_API_KEY", &cfg.Auth.APIKey)
	if v := os.Getenv("WORKOUTVAULT_TS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	str("WORKOUTVAULT_TS_HOSTNAME", &cfg.Tailscale.Hostname)
	str("WORKOUTVAULT_TS_STATE_DIR", &cfg.Tailscale.StateDir)
	str("WORKOUTVAULT_ACTOR_ID", &cfg.Client.ActorID)
	str("WORKOUTVAULT_STATE_DIR", &cfg.Client.StateDir)
	str("WORKOUTVAULT_LOG_FILE", &cfg.Client.LogFile)
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverREST
	}
	if c.Client.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Client.StateDir = filepath.Join(home, ".workoutvault")
		} else {
			c.Client.StateDir = ".workoutvault"
		}
	}
	if c.Client.LogFile == "" {
		c.Client.LogFile = filepath.Join(c.Client.StateDir, "workoutvault.log")
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "workoutvault"
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverREST:
		if strings.TrimSpace(c.Store.URL) == "" {
			return fmt.Errorf("store.url is required")
		}
		if strings.TrimSpace(c.Store.Key) == "" {
			return fmt.Errorf("store.key is required")
		}
	case DriverPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverREST, DriverPostgres, c.Store.Driver)
	}
	if _, err := c.Client.Actor(); err != nil {
		return err
	}
	return nil
}

// ValidateServer checks the fields only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Store.Driver == DriverPostgres {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	return nil
}
