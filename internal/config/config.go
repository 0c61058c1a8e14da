package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/wrangle-cli/internal/acquire"
	"github.com/KaramelBytes/wrangle-cli/internal/prepare"
	"github.com/KaramelBytes/wrangle-cli/internal/split"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Database access for acquire
	DBDriver   string `mapstructure:"db_driver" yaml:"db_driver"`
	DBHost     string `mapstructure:"db_host" yaml:"db_host"`
	DBPort     int    `mapstructure:"db_port" yaml:"db_port"`
	DBUser     string `mapstructure:"db_user" yaml:"db_user"`
	DBPassword string `mapstructure:"db_password" yaml:"db_password"`
	SQLiteDir  string `mapstructure:"sqlite_dir" yaml:"sqlite_dir"`

	CacheDir  string `mapstructure:"cache_dir" yaml:"cache_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Cleaning
	PropRequiredColumn float64  `mapstructure:"prop_required_column" yaml:"prop_required_column"`
	PropRequiredRow    float64  `mapstructure:"prop_required_row" yaml:"prop_required_row"`
	OutlierMode        string   `mapstructure:"outlier_mode" yaml:"outlier_mode"`
	OutlierColumns     []string `mapstructure:"outlier_columns" yaml:"outlier_columns"`
	IQRMultiplier      float64  `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`

	// Splitting
	Seed         int64   `mapstructure:"seed" yaml:"seed"`
	TestSize     float64 `mapstructure:"test_size" yaml:"test_size"`
	ValidateSize float64 `mapstructure:"validate_size" yaml:"validate_size"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// legacyEnv maps config keys to the unprefixed variable names older .env
// files use.
var legacyEnv = map[string]string{
	"db_host":     "host",
	"db_user":     "user",
	"db_password": "password",
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.wrangle/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. envFile, when set, must exist;
// otherwise a .env in the working directory is loaded if present. Variables
// already in the environment are never overridden by a .env file.
func Load(cfgFile, envFile string) (*Global, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("WRANGLE")
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, "WRANGLE_"+strings.ToUpper(key), legacy)
	}

	dir, err := defaultDir()
	if err != nil {
		return nil, err
	}
	splitOpt := split.DefaultOptions()
	missing := prepare.DefaultMissingOptions()

	// Defaults
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_host", "")
	v.SetDefault("db_port", 0)
	v.SetDefault("db_user", "")
	v.SetDefault("db_password", "")
	v.SetDefault("sqlite_dir", "")
	v.SetDefault("cache_dir", filepath.Join(dir, "cache"))
	v.SetDefault("output_dir", filepath.Join(dir, "runs"))
	v.SetDefault("prop_required_column", missing.PropRequiredColumn)
	v.SetDefault("prop_required_row", missing.PropRequiredRow)
	v.SetDefault("outlier_mode", prepare.ModeCumulative.String())
	v.SetDefault("outlier_columns", prepare.ZillowOutlierColumns)
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("seed", splitOpt.Seed)
	v.SetDefault("test_size", splitOpt.TestSize)
	v.SetDefault("validate_size", splitOpt.ValidateSize)
	v.SetDefault("log_level", "info")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.CacheDir, err = utils.ExpandHome(c.CacheDir); err != nil {
		return nil, err
	}
	if c.OutputDir, err = utils.ExpandHome(c.OutputDir); err != nil {
		return nil, err
	}
	return &c, nil
}

// Credentials returns the database settings the loader needs.
func (c *Global) Credentials() acquire.Credentials {
	dir := c.SQLiteDir
	if dir == "" {
		dir = c.CacheDir
	}
	return acquire.Credentials{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Dir:      dir,
	}
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"db_driver", "db_host", "db_port", "db_user", "db_password", "sqlite_dir",
		"cache_dir", "output_dir",
		"prop_required_column", "prop_required_row",
		"outlier_mode", "outlier_columns", "iqr_multiplier",
		"seed", "test_size", "validate_size", "log_level",
	}
}

// Get returns the display form of a key's value.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "db_driver":
		return c.DBDriver, nil
	case "db_host":
		return c.DBHost, nil
	case "db_port":
		return cast.ToString(c.DBPort), nil
	case "db_user":
		return c.DBUser, nil
	case "db_password":
		return c.DBPassword, nil
	case "sqlite_dir":
		return c.SQLiteDir, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "output_dir":
		return c.OutputDir, nil
	case "prop_required_column":
		return cast.ToString(c.PropRequiredColumn), nil
	case "prop_required_row":
		return cast.ToString(c.PropRequiredRow), nil
	case "outlier_mode":
		return c.OutlierMode, nil
	case "outlier_columns":
		return strings.Join(c.OutlierColumns, ","), nil
	case "iqr_multiplier":
		return cast.ToString(c.IQRMultiplier), nil
	case "seed":
		return cast.ToString(c.Seed), nil
	case "test_size":
		return cast.ToString(c.TestSize), nil
	case "validate_size":
		return cast.ToString(c.ValidateSize), nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses val for key and stores it, validating enumerations and ranges.
func (c *Global) Set(key, val string) error {
	switch key {
	case "db_driver":
		d, err := acquire.NormalizeDriver(val)
		if err != nil {
			return err
		}
		c.DBDriver = d
	case "db_host":
		c.DBHost = val
	case "db_port":
		i, err := cast.ToIntE(val)
		if err != nil || i < 0 || i > 65535 {
			return fmt.Errorf("invalid port for db_port: %v", val)
		}
		c.DBPort = i
	case "db_user":
		c.DBUser = val
	case "db_password":
		c.DBPassword = val
	case "sqlite_dir":
		c.SQLiteDir = val
	case "cache_dir":
		c.CacheDir = val
	case "output_dir":
		c.OutputDir = val
	case "prop_required_column", "prop_required_row":
		f, err := cast.ToFloat64E(val)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid proportion for %s: %v", key, val)
		}
		if key == "prop_required_column" {
			c.PropRequiredColumn = f
		} else {
			c.PropRequiredRow = f
		}
	case "outlier_mode":
		m, err := prepare.ParseOutlierMode(val)
		if err != nil {
			return err
		}
		c.OutlierMode = m.String()
	case "outlier_columns":
		c.OutlierColumns = SplitList(val)
	case "iqr_multiplier":
		f, err := cast.ToFloat64E(val)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for iqr_multiplier: %v", val)
		}
		c.IQRMultiplier = f
	case "seed":
		i, err := cast.ToInt64E(val)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
		c.Seed = i
	case "test_size", "validate_size":
		f, err := cast.ToFloat64E(val)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid fraction for %s: %v", key, val)
		}
		if key == "test_size" {
			c.TestSize = f
		} else {
			c.ValidateSize = f
		}
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".wrangle"), nil
}
