package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./phoenix.db" {
			t.Errorf("expected database path ./phoenix.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if !config.Queue.RepairOnLoad {
			t.Error("expected repair_on_load to default to true")
		}

		if config.Import.BatchSize != 50 {
			t.Errorf("expected import batch size 50, got %d", config.Import.BatchSize)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 4
max_idle_conns = 2

[queue]
repair_on_load = false

[server]
host = "0.0.0.0"
port = 8080

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected address 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Queue.RepairOnLoad {
			t.Error("expected repair_on_load to be overridden to false")
		}

		if config.Import.BatchSize != 50 {
			t.Errorf("expected missing import section to keep default batch size, got %d", config.Import.BatchSize)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tt := []struct {
			name string
			body string
		}{
			{name: "empty database path", body: "[database]\npath = \"\"\n"},
			{name: "port out of range", body: "[server]\nport = 70000\n"},
			{name: "negative rate limit", body: "[server]\nrate_limit = -1.0\n"},
			{name: "unknown log level", body: "[log]\nlevel = \"loud\"\n"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tc.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(configPath)
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvDatabasePath, "/env/phoenix.db")
		t.Setenv(EnvServerPort, "9090")
		t.Setenv(EnvLogLevel, "warn")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}
		if config.Database.Path != "/env/phoenix.db" {
			t.Errorf("database path = %s, want /env/phoenix.db", config.Database.Path)
		}
		if config.Server.Port != 9090 {
			t.Errorf("server port = %d, want 9090", config.Server.Port)
		}
		if config.Log.Level != "warn" {
			t.Errorf("log level = %s, want warn", config.Log.Level)
		}
	})

	t.Run("ApplyEnv rejects bad port", func(t *testing.T) {
		t.Setenv(EnvServerPort, "many")
		if err := DefaultConfig().ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ApplyEnv() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("LoadEnvFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("PHOENIX_SERVER_HOST=10.0.0.1\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvServerHost, "")
		os.Unsetenv(EnvServerHost)

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v", err)
		}
		if got := os.Getenv(EnvServerHost); got != "10.0.0.1" {
			t.Errorf("%s = %q, want 10.0.0.1", EnvServerHost, got)
		}

		if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("missing env file should be ignored, got %v", err)
		}
	})
}
