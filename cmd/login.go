package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scienceol/gogvault/internal/auth"
	"github.com/scienceol/gogvault/internal/session"
	"github.com/scienceol/gogvault/internal/ui"
)

var flagUsername string

func init() {
	loginCmd.Flags().StringVarP(&flagUsername, "username", "u", "", "GOG account email or username (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign into GOG and store the session cookies",
	Long: `Discards any stored session, signs into GOG and saves the new session
cookies to the cookie jar.

The password is read from GOGVAULT_PASSWORD when set and prompted for otherwise.
Accounts with two-step authentication are asked for the 4-character code that
GOG sends by email.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.Banner(version)
		ui.KeyValue("Cookie jar", cfg.CookieFile)
		ui.Separator()

		store, err := session.Open(cfg.CookieFile)
		if err != nil {
			return err
		}

		a := auth.New(auth.Options{
			HomeURL:   cfg.HomeURL,
			LoginURL:  cfg.LoginURL,
			Store:     store,
			Prompter:  ui.NewPrompter(),
			NewClient: newClient,
			Logger:    lg,
		})
		creds := auth.Credentials{
			Username: cfg.Username,
			Password: os.Getenv("GOGVAULT_PASSWORD"),
		}
		if err := a.Login(cmd.Context(), creds); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		ui.Success("Logged in, %d cookies saved", len(store.Cookies()))
		return nil
	},
}
