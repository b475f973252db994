package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"climate-api/pkg/logging"
)

var envKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
	"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
	"DB_DRIVER", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_SSLMODE", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"DB_CONN_MAX_IDLE_TIME", "LOG_LEVEL", "LOG_FORMAT", "API_EXAMPLE_STATION",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate defaults: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("server.port: got %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Database.Driver != DefaultDriver {
		t.Errorf("database.driver: got %q, want %q", cfg.Database.Driver, DefaultDriver)
	}
	if cfg.Database.Path != DefaultSQLitePath {
		t.Errorf("database.path: got %q, want %q", cfg.Database.Path, DefaultSQLitePath)
	}
	if cfg.API.ExampleStation != DefaultExampleStation {
		t.Errorf("api.example_station: got %q, want %q", cfg.API.ExampleStation, DefaultExampleStation)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("Address: got %q", cfg.Server.Address())
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	p := writeConfig(t, `server:
  port: 9090
  read_timeout: 5s
database:
  driver: postgres
  host: db.internal
  port: 5433
  database: hawaii
  user: reader
  max_open_conns: 20
  conn_max_lifetime: 1h
logging:
  level: debug
  format: console
api:
  example_station: USC00513117
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout: got %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("server.write_timeout default lost: got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("database: got %+v", cfg.Database)
	}
	if cfg.Database.ConnMaxLifetime != time.Hour {
		t.Errorf("database.conn_max_lifetime: got %v, want 1h", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging: got %+v", cfg.Logging)
	}
	if cfg.API.ExampleStation != "USC00513117" {
		t.Errorf("api.example_station: got %q", cfg.API.ExampleStation)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	p := writeConfig(t, `server:
  port: 9090
database:
  path: /data/file.sqlite
`)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_PATH", "/data/env.sqlite")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "90s")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/data/env.sqlite" {
		t.Errorf("database.path: got %q", cfg.Database.Path)
	}
	if cfg.Database.ConnMaxIdleTime != 90*time.Second {
		t.Errorf("database.conn_max_idle_time: got %v", cfg.Database.ConnMaxIdleTime)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level: got %q", cfg.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{name: "bad port", env: map[string]string{"SERVER_PORT": "http"}, wantErr: "SERVER_PORT"},
		{name: "bad duration", env: map[string]string{"DB_CONN_MAX_LIFETIME": "forever"}, wantErr: "DB_CONN_MAX_LIFETIME"},
		{name: "bad yaml", file: "server: [unterminated", wantErr: "parse yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"postgres without database", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"postgres complete", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.Database = "hawaii"
		}, false},
		{"idle above open", func(c *Config) { c.Database.MaxIdleConns = 50 }, true},
		{"negative pool", func(c *Config) { c.Database.MaxOpenConns = -1 }, true},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"empty example station", func(c *Config) { c.API.ExampleStation = " " }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)

	p := writeConfig(t, "logging:\n  level: info\n")
	logger := logging.NewStructuredLoggerTo(io.Discard, "climate-api-test", "test", logging.ErrorLevel, logging.JSONFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, logger, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register before writing.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case c := <-changes:
			// A truncate can surface as its own write event.
			if c.Logging.Level != "debug" {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			return
		case <-ticker.C:
			if err := os.WriteFile(p, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
				t.Fatalf("rewrite config: %v", err)
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

// replaceFile saves content the way editors do: write a sibling file, then
// rename it over path.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".swp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename temp config: %v", err)
	}
}

func TestWatch_SurvivesRenameSaves(t *testing.T) {
	clearEnv(t)

	p := writeConfig(t, "logging:\n  level: info\n")
	logger := logging.NewStructuredLoggerTo(io.Discard, "climate-api-test", "test", logging.ErrorLevel, logging.JSONFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, logger, func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// Each level must be observed in turn; the second proves the watch
	// outlived the first replacement.
	for _, level := range []string{"debug", "warn"} {
		deadline := time.After(5 * time.Second)
		ticker := time.NewTicker(100 * time.Millisecond)

	wait:
		for {
			select {
			case c := <-changes:
				if c.Logging.Level == level {
					break wait
				}
			case <-ticker.C:
				replaceFile(t, p, "logging:\n  level: "+level+"\n")
			case <-deadline:
				ticker.Stop()
				t.Fatalf("no reload to %q observed", level)
			}
		}
		ticker.Stop()
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func TestWatch_MissingFile(t *testing.T) {
	logger := logging.NewStructuredLoggerTo(io.Discard, "climate-api-test", "test", logging.ErrorLevel, logging.JSONFormat)

	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), logger, func(*Config) {})
	if err == nil {
		t.Fatal("Watch on missing file should fail")
	}
}
