package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mselser95/drops-miner/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "drops-miner",
	Short: "Watch-time drops miner",
	Long: `drops-miner logs in with an OAuth token, discovers the drop campaigns
the account can earn, watches the most viewed eligible stream and claims
each reward as soon as it completes.

Configuration is read from the environment (a .env file in the working
directory is loaded first). User preferences such as the priority list
live in the settings file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().String("settings", "", "Path to the settings file (overrides SETTINGS_PATH)")
}

// loadConfig reads .env, the environment and persistent flags, and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	envErr := godotenv.Load()
	if envErr != nil && !os.IsNotExist(envErr) {
		return nil, nil, fmt.Errorf("load .env: %w", envErr)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	settingsPath, _ := cmd.Flags().GetString("settings")
	if settingsPath != "" {
		cfg.SettingsPath = settingsPath
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}
