package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store          StoreConfig          `yaml:"store" mapstructure:"store"`
	Feeds          FeedsConfig          `yaml:"feeds" mapstructure:"feeds"`
	Classification ClassificationConfig `yaml:"classification" mapstructure:"classification"`
	Export         ExportConfig         `yaml:"export" mapstructure:"export"`
	Server         ServerConfig         `yaml:"server" mapstructure:"server"`
	Log            LogConfig            `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FeedsConfig locates the SAP exports on disk.
type FeedsConfig struct {
	OrdersPath       string `yaml:"orders_path" mapstructure:"orders_path"`
	RequirementsPath string `yaml:"requirements_path" mapstructure:"requirements_path"`
	Encoding         string `yaml:"encoding" mapstructure:"encoding"`
}

// ClassificationConfig maps MRP controller codes to production types.
type ClassificationConfig struct {
	InHouse    []string `yaml:"in_house" mapstructure:"in_house"`
	Outsourced []string `yaml:"outsourced" mapstructure:"outsourced"`
}

// ExportConfig configures the spreadsheet output.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "plantrack.db")
	v.SetDefault("feeds.orders_path", "data/zp02.txt")
	v.SetDefault("feeds.requirements_path", "data/zp51n.txt")
	v.SetDefault("feeds.encoding", "shift-jis")
	v.SetDefault("classification.in_house", []string{"PC1", "PC2", "PC3", "PC4", "PC5", "PC6"})
	v.SetDefault("classification.outsourced", []string{})
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can support the named command
// mode. Errors name every missing or out-of-range field at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "import":
		if c.Feeds.OrdersPath == "" {
			problems = append(problems, "feeds.orders_path is required")
		}
		if c.Feeds.RequirementsPath == "" {
			problems = append(problems, "feeds.requirements_path is required")
		}
		if enc := c.Feeds.Encoding; enc != "shift-jis" && enc != "utf-8" {
			problems = append(problems, "feeds.encoding must be shift-jis or utf-8")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "reconcile", "export", "runs":
		// store checks above are enough
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
