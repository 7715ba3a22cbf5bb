package main

import (
	"github.com/spf13/cobra"

	"majalis/internal/config"
	appLog "majalis/internal/log"
)

// rootFlags holds the flags shared by every subcommand.
type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "majalis",
		Short:         "Turns a majalis calendar feed into a printable PDF schedule",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "./majalis.yaml", "Path to config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Optional .env file with MAJALIS_* variables")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides config if set)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newRenderCmd(flags))
	return cmd
}

// loadConfig reads .env, the YAML file and the environment, then applies the
// log level so everything after it logs at the configured verbosity.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	appLog.Info("effective config",
		"config_path", flags.configPath,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"fetch_timeout", cfg.FetchTimeout,
		"max_feed_bytes", cfg.MaxFeedBytes,
		"engine", cfg.Engine,
		"basic_auth", cfg.BasicAuthEnabled(),
	)
	return cfg, nil
}
