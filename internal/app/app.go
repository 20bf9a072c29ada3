package app

import (
	"errors"

	"github.com/spf13/cobra"

	"must-burn/internal/burn"
	"must-burn/internal/config"
	"must-burn/internal/device"
	"must-burn/internal/logging"
)

// Exit codes. A retryable failure (mounted or busy device, cancellation) is
// told apart so scripts can prompt and run again.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitRetryable = 2
)

type app struct {
	verbosity  int
	configPath string
	cfg        *config.Config
	info       device.InfoProvider
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "must-burn",
		Short:         "Write disk images to removable devices and verify them",
		Long:          "must-burn copies a disk image byte for byte onto a block device, then reads it back to confirm the copy.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(a.verbosity)
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.info = device.NewInfoProvider()
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/must-burn/config.toml)")

	root.AddCommand(
		a.newWriteCommand(),
		a.newVerifyCommand(),
		a.newListCommand(),
		a.newFetchCommand(),
	)
	return root
}

// ExitCode maps the error returned by the command tree to a process status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var e *burn.Error
	if errors.As(err, &e) && e.Retryable() {
		return ExitRetryable
	}
	return ExitFailure
}
