package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scienceol/gogvault/internal/config"
	"github.com/scienceol/gogvault/internal/session"
	"github.com/scienceol/gogvault/internal/ui"
)

var errNotLoggedIn = errors.New("stored session is not logged in, run gogvault login")

type userData struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Username   string `json:"username"`
	Email      string `json:"email"`
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the stored cookies still hold a logged-in session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.Load(cfg.CookieFile, cfg.ImportFile, config.DefaultDomain, lg)
		if err != nil {
			return err
		}

		client := newClient(store.Jar())
		resp, err := client.Get(cmd.Context(), strings.TrimRight(cfg.HomeURL, "/")+"/userData.json")
		if err != nil {
			return fmt.Errorf("fetch account data: %w", err)
		}
		defer resp.Body.Close()

		var data userData
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return fmt.Errorf("decode account data: %w", err)
		}
		// The response may refresh session cookies.
		if err := store.Save(); err != nil {
			return err
		}

		if !data.IsLoggedIn {
			return errNotLoggedIn
		}
		ui.Success("Logged in as %s", data.Username)
		if data.Email != "" {
			ui.KeyValue("Email", data.Email)
		}
		return nil
	},
}
