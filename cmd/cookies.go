package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scienceol/gogvault/internal/config"
	"github.com/scienceol/gogvault/internal/session"
	"github.com/scienceol/gogvault/internal/ui"
)

func init() {
	cookiesCmd.AddCommand(cookiesImportCmd)
	rootCmd.AddCommand(cookiesCmd)
}

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "List the stored session cookies (values hidden)",
	Long: `Lists the cookies in the jar. When no jar exists yet, the browser export
named by --import-file is imported first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.Load(cfg.CookieFile, cfg.ImportFile, config.DefaultDomain, lg)
		if err != nil {
			return err
		}

		cookies := store.Cookies()
		if len(cookies) == 0 {
			ui.Warn("Cookie jar %s is empty, run gogvault login", store.Path())
			return nil
		}

		rows := make([][]string, 0, len(cookies))
		for _, c := range cookies {
			expires := "session"
			if !c.Expires.IsZero() {
				expires = c.Expires.Local().Format(time.DateTime)
			}
			rows = append(rows, []string{c.Name, c.Domain, c.Path, expires})
		}
		return ui.Table(os.Stdout, []string{"NAME", "DOMAIN", "PATH", "EXPIRES"}, rows)
	},
}

var cookiesImportCmd = &cobra.Command{
	Use:   "import [cookies.txt]",
	Short: "Merge a Netscape cookies.txt browser export into the jar",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.ImportFile
		if len(args) == 1 {
			path = args[0]
		}

		store, err := session.Open(cfg.CookieFile)
		if err != nil {
			return err
		}
		n, err := store.Import(path, config.DefaultDomain)
		if err != nil {
			return fmt.Errorf("%w: %w", session.ErrCookieLoadFailed, err)
		}
		if err := store.Save(); err != nil {
			return err
		}

		ui.Success("Imported %d cookies from %s", n, path)
		return nil
	},
}
