package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/acquire"
	cfgpkg "github.com/KaramelBytes/wrangle-cli/internal/config"
)

var (
	// Global flags
	cfgFile string
	envFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "wrangle",
	Short: "wrangle: acquire, clean and split the zillow and mall datasets",
	Long: `wrangle pulls the zillow and mall customer datasets from SQL (caching them as CSV),
summarizes them, removes sparse columns and outliers, and writes reproducible
train/validate/test partitions with a run manifest.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.wrangle/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with database credentials (default ./.env if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile, envFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// loadedConfig returns the configuration, loading it on first use.
func loadedConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile, envFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// logger writes diagnostics to stderr at the configured level; --debug wins.
func logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level := logrus.InfoLevel
	if cfg != nil {
		if lv, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			level = lv
		}
	}
	if debug {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)
	return l
}

func newLoader(c *cfgpkg.Global) *acquire.Loader {
	return &acquire.Loader{
		Driver:      c.DBDriver,
		Credentials: c.Credentials(),
		CacheDir:    c.CacheDir,
		Log:         logger(),
	}
}
