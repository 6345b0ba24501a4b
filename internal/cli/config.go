package cli

import (
	"fmt"
	"strings"

	"github.com/dogmatiq/procstore/deployment"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the CLI configuration.
//
// Each field may be set by a command-line flag, by a PROCSTORE_ environment
// variable or by the configuration file, in that order of precedence.
type Config struct {
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	Path          string `mapstructure:"path"`
	Store         string `mapstructure:"store"`
	Tenant        string `mapstructure:"tenant"`
	CacheCapacity int    `mapstructure:"cache-capacity"`
	Output        string `mapstructure:"output"`
	LogFile       string `mapstructure:"log-file"`
	LogMaxSizeMB  int    `mapstructure:"log-max-size"`
	LogMaxBackups int    `mapstructure:"log-max-backups"`
	Debug         bool   `mapstructure:"debug"`
	MetricsFile   string `mapstructure:"metrics-file"`
}

// Supported values of Config.Driver.
const (
	BoltDriver     = "bolt"
	SQLiteDriver   = "sqlite"
	PostgresDriver = "postgres"
)

// DefaultTenant is the tenant used when none is configured.
const DefaultTenant = "<default>"

// addFlags registers the persistent flags of the root command.
func addFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML, JSON or TOML configuration file")
	fs.String("driver", BoltDriver, "storage driver (bolt, sqlite or postgres)")
	fs.String("dsn", "", "data-source name for the sqlite and postgres drivers")
	fs.String("path", "procstore.boltdb", "path to the database file for the bolt driver")
	fs.String("store", "default", "name of the data store")
	fs.String("tenant", DefaultTenant, "ID of the tenant")
	fs.Int("cache-capacity", deployment.DefaultCacheCapacity, "number of processes held by each cache")
	fs.StringP("output", "o", "yaml", "output format (yaml or json)")
	fs.String("log-file", "", "write logs to this file instead of stderr, rotating it as it grows")
	fs.Int("log-max-size", 10, "size in megabytes at which the log file is rotated")
	fs.Int("log-max-backups", 3, "number of rotated log files to keep")
	fs.Bool("debug", false, "include debug messages in the log")
	fs.String("metrics-file", "", "write Prometheus metrics to this file when the command completes")
}

// loadConfig builds the configuration from the flags, the environment and the
// configuration file named by the --config flag.
func loadConfig(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROCSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("unable to read configuration file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse configuration: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Driver {
	case BoltDriver:
		if c.Path == "" {
			return fmt.Errorf("the %s driver requires a path", c.Driver)
		}
	case SQLiteDriver, PostgresDriver:
		if c.DSN == "" {
			return fmt.Errorf("the %s driver requires a DSN", c.Driver)
		}
	default:
		return fmt.Errorf("unsupported driver '%s'", c.Driver)
	}

	switch c.Output {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported output format '%s'", c.Output)
	}

	if c.CacheCapacity <= 0 {
		return fmt.Errorf("cache capacity must be positive")
	}

	return nil
}
