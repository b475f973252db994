package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultDriver          = "sqlite3"
	DefaultSQLitePath      = "Resources/hawaii.sqlite"
	DefaultExampleStation  = "USC00519397"
	DefaultShutdownTimeout = 30 * time.Second
)

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects and tunes the dataset store
type DatabaseConfig struct {
	// Driver is one of: sqlite3 | postgres.
	Driver string `yaml:"driver"`

	// Path is the SQLite dataset file, used when Driver is sqlite3.
	Path string `yaml:"path"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig controls log verbosity and encoding
type LoggingConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | console.
	Format string `yaml:"format"`
}

// APIConfig holds presentation settings of the HTTP API
type APIConfig struct {
	// ExampleStation is the station id used in the index page links.
	ExampleStation string `yaml:"example_station"`
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig loads .env (if present), then the YAML file named by
// CONFIG_FILE (if set), then environment overrides.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	return Load(os.Getenv("CONFIG_FILE"))
}

// Load builds a configuration from defaults, the optional YAML file at path
// and environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Driver:          DefaultDriver,
			Path:            DefaultSQLitePath,
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		API: APIConfig{
			ExampleStation: DefaultExampleStation,
		},
	}
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Path, "DB_PATH")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.API.ExampleStation, "API_EXAMPLE_STATION")

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.Server.Port, "SERVER_PORT"},
		{&cfg.Database.Port, "DB_PORT"},
		{&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS"},
		{&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS"},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.key); err != nil {
			return err
		}
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT"},
		{&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT"},
		{&cfg.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT"},
		{&cfg.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT"},
		{&cfg.Database.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME"},
		{&cfg.Database.ConnMaxIdleTime, "DB_CONN_MAX_IDLE_TIME"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite3")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("database.host and database.database are required for postgres")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("database.port %d is out of range [1, 65535]", c.Database.Port)
		}
	default:
		return fmt.Errorf("database.driver %q unknown: want sqlite3|postgres", c.Database.Driver)
	}

	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return errors.New("database connection pool sizes must not be negative")
	}
	if c.Database.MaxOpenConns > 0 && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns %d exceeds max_open_conns %d", c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q unknown: want debug|info|warn|error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q unknown: want json|console", c.Logging.Format)
	}

	if strings.TrimSpace(c.API.ExampleStation) == "" {
		return errors.New("api.example_station must not be empty")
	}

	return nil
}
