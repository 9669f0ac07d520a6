package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/scienceol/gogvault/internal/auth"
	"github.com/scienceol/gogvault/internal/config"
	"github.com/scienceol/gogvault/internal/httpclient"
	"github.com/scienceol/gogvault/internal/logger"
	"github.com/scienceol/gogvault/internal/session"
	"github.com/scienceol/gogvault/internal/ui"
)

// Exit codes. keepawake exits with its child's status instead, which can
// overlap with these.
const (
	exitGeneric     = 1
	exitCookieLoad  = 3
	exitAuthURLMiss = 4
)

var (
	flagConfig     string
	flagCookieFile string
	flagImportFile string
	flagRetries    int
	flagLogLevel   string
	flagLogFormat  string
	flagLogFile    string

	cfg *config.Config
	lg  *log.Logger
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default: ~/.gogvault/config.yaml or config.toml)")
	pf.StringVar(&flagCookieFile, "cookie-file", "", "Persistent cookie jar (default: ~/.gogvault/cookies.json)")
	pf.StringVar(&flagImportFile, "import-file", "", "Netscape cookies.txt imported when no jar exists (default: ~/.gogvault/cookies.txt)")
	pf.IntVar(&flagRetries, "retries", -1, "Retries per request after a transient failure (default 3)")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
}

var rootCmd = &cobra.Command{
	Use:   "gogvault",
	Short: "gogvault keeps a logged-in GOG session on disk for scripted downloads",
	Long: `gogvault signs into the GOG storefront through its web login pages and
stores the session cookies in a local jar, so later runs can reuse the session
without logging in again. A browser cookies.txt export can seed the jar instead.

Long downloads can be wrapped in "gogvault keepawake" to stop the machine from
going to sleep while they run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		lg, err = logger.New(logger.Config{
			Level:   flagLogLevel,
			LogFile: flagLogFile,
			Format:  flagLogFormat,
		})
		if err != nil {
			return err
		}
		cfg, err = config.Load(config.Flags{
			ConfigFile: flagConfig,
			CookieFile: flagCookieFile,
			ImportFile: flagImportFile,
			Username:   flagUsername,
			Retries:    flagRetries,
		})
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.Error("%v", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, session.ErrCookieLoadFailed):
		return exitCookieLoad
	case errors.Is(err, auth.ErrAuthURLNotFound):
		return exitAuthURLMiss
	case errors.As(err, &exitErr) && exitErr.ExitCode() > 0:
		return exitErr.ExitCode()
	default:
		return exitGeneric
	}
}

// newClient builds a retrying session around jar from the resolved config.
func newClient(jar http.CookieJar) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		UserAgent:  cfg.UserAgent,
		Jar:        jar,
		Timeout:    cfg.Timeout(),
		Retries:    cfg.Retries(),
		RetryDelay: cfg.RetryDelay(),
		Logger:     lg,
	})
}
