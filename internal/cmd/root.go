// Package cmd implements the inputbridge command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vinhdn/inputbridge/internal/config"
	"github.com/vinhdn/inputbridge/internal/logging"
	"github.com/vinhdn/inputbridge/internal/store"
)

var (
	cfgFile   string
	bridgeDir string
)

var rootCmd = &cobra.Command{
	Use:   "inputbridge",
	Short: "File-backed request/response bridge for interactive tooling",
	Long: `inputbridge coordinates a caller that needs an answer with a human
(or another process) that supplies one, through JSON records in a shared
directory. The waiter publishes a request and polls for a matching
response; while it waits, a keep-alive emitter fabricates synthetic
answers so the caller's session stays open.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.ConfigDir()+"/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&bridgeDir, "dir", "", "bridge directory (default "+store.DefaultDir()+")")
}

func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix("INPUTBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: could not read config: %v\n", err)
		}
	}
}

// loadConfig resolves the effective configuration and validates it.
// The --dir flag overrides the configured bridge directory.
func loadConfig() (*config.Config, error) {
	cfg := config.Get()
	if bridgeDir != "" {
		cfg.Bridge.Dir = bridgeDir
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	return cfg, nil
}

// newStore opens the record store named by the configuration.
func newStore(cfg *config.Config) *store.Store {
	return store.New(cfg.Bridge.Dir)
}

// newLogger builds the configured logger. When file logging is disabled
// the commands run silent.
func newLogger(cfg *config.Config, st *store.Store) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	dir := cfg.Logging.Dir
	if dir == "" {
		dir = st.Dir()
	}
	if cfg.Logging.MaxSizeMB > 0 {
		return logging.NewLoggerWithRotation(dir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
	}
	return logging.NewLogger(dir, cfg.Logging.Level)
}
