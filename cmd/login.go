package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/drops-miner/internal/app"
	"github.com/mselser95/drops-miner/internal/settings"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Validate an OAuth token and store it in the settings file",
	Long: `Validates the OAuth token given with --token (or AUTH_TOKEN) against the
current-user query and, on success, saves it with the account id and login to
the settings file used by run.`,
	RunE: runLogin,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("token", "t", "", "OAuth token to store")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	token, _ := cmd.Flags().GetString("token")
	if token != "" {
		cfg.AuthToken = token
	}
	if cfg.AuthToken == "" {
		return fmt.Errorf("no token given: use --token or set AUTH_TOKEN")
	}

	application, err := app.New(cfg, logger, &app.Options{DisableAPI: true})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		_ = application.Shutdown()
	}()

	id, err := application.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	store := application.Settings()
	store.Update(func(s *settings.Settings) { s.OAuthToken = cfg.AuthToken })

	err = store.Save(true)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	fmt.Printf("Logged in as %s (id %d). Token saved to %s\n", id.Login, id.UserID, store.Path())

	return nil
}
