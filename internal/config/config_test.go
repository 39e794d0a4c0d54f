package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "plantrack.db", cfg.Store.Path)
	assert.Equal(t, "data/zp02.txt", cfg.Feeds.OrdersPath)
	assert.Equal(t, "data/zp51n.txt", cfg.Feeds.RequirementsPath)
	assert.Equal(t, "shift-jis", cfg.Feeds.Encoding)
	assert.Equal(t, []string{"PC1", "PC2", "PC3", "PC4", "PC5", "PC6"}, cfg.Classification.InHouse)
	assert.Empty(t, cfg.Classification.Outsourced)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/plantrack
feeds:
  encoding: utf-8
log:
  level: debug
  format: console
server:
  port: 9090
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/plantrack", cfg.Store.DatabaseURL)
	assert.Equal(t, "utf-8", cfg.Feeds.Encoding)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "data/zp02.txt", cfg.Feeds.OrdersPath)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PLANTRACK_STORE_DRIVER", "postgres")
	t.Setenv("PLANTRACK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("PLANTRACK_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func validDefaults() *Config {
	return &Config{
		Store: StoreConfig{Driver: "sqlite", Path: "plantrack.db"},
		Feeds: FeedsConfig{
			OrdersPath:       "data/zp02.txt",
			RequirementsPath: "data/zp51n.txt",
			Encoding:         "shift-jis",
		},
		Server: ServerConfig{Port: 8080},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("import"))
	assert.NoError(t, cfg.Validate("reconcile"))
	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("export"))
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("reconcile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/plantrack"
	assert.NoError(t, cfg.Validate("reconcile"))
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"

	err := cfg.Validate("reconcile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidate_ImportFeeds(t *testing.T) {
	cfg := validDefaults()
	cfg.Feeds.OrdersPath = ""
	cfg.Feeds.Encoding = "euc-jp"

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feeds.orders_path is required")
	assert.Contains(t, err.Error(), "feeds.encoding must be shift-jis or utf-8")
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_UnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
