package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/scienceol/gogvault/internal/power"
	"github.com/scienceol/gogvault/internal/ui"
)

var flagKind string

func init() {
	keepawakeCmd.Flags().SetInterspersed(false)
	keepawakeCmd.Flags().StringVar(&flagKind, "kind", "", "What to keep awake: idle (system only) or display (default from config: idle)")
	rootCmd.AddCommand(keepawakeCmd)
}

var keepawakeCmd = &cobra.Command{
	Use:   "keepawake [-- command [args...]]",
	Short: "Hold a wakelock while a command runs, or until interrupted",
	Long: `Stops the machine from idle-sleeping while the given command runs. Without
a command the wakelock is held until Ctrl+C.

When no wakelock backend works on this system a warning is printed and the
command runs anyway.

gogvault exits with the command's own exit status, so a status of 3 or 4 here
comes from the command, not from gogvault's cookie or login checks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := flagKind
		if name == "" {
			name = cfg.Wakelock
		}
		kind, err := parseKind(name)
		if err != nil {
			return err
		}

		m := power.New(kind, lg)
		ui.KeyValue("Wakelock", m.Backend())
		if err := m.Take(); err != nil {
			ui.Warn("Could not keep the system awake: %v", err)
		}
		defer func() {
			if err := m.Release(); err != nil {
				ui.Warn("Could not release the wakelock: %v", err)
			}
		}()

		ctx := cmd.Context()
		if len(args) == 0 {
			ui.Info("Holding wakelock, press Ctrl+C to release")
			<-ctx.Done()
			return nil
		}

		child := exec.CommandContext(ctx, args[0], args[1:]...)
		child.Stdin = os.Stdin
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		return child.Run()
	},
}

func parseKind(name string) (power.Assertion, error) {
	switch name {
	case "idle":
		return power.NoIdleSleep, nil
	case "display":
		return power.NoDisplaySleep, nil
	default:
		return "", fmt.Errorf("unknown wakelock kind %q (want idle or display)", name)
	}
}
