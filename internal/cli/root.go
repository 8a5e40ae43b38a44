// Package cli implements the wastebin command-line interface. Running the
// root command with no subcommand starts the interactive menu.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wastebin/internal/console"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "wastebin" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wastebin",
		Short: "Smart waste management: track bins and their fill levels",
		Long: "wastebin records waste bins (id, location, material type, fill level)\n" +
			"and flags the ones that need collection. With no subcommand it starts\n" +
			"the interactive menu.",
		Args: cobra.NoArgs,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/wastebin)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .wastebin-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wastebin:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to a process exit code: configuration mistakes and
// lookups of unknown bins are user errors, everything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case isUserError(err):
		return exitUserError
	default:
		return exitSysError
	}
}

func isUserError(err error) bool {
	for _, target := range []error{
		types.ErrNotFound,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrThresholdInvalid,
		types.ErrFillPolicyUnknown,
		types.ErrCorruptRecord,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func runInteractive(cmd *cobra.Command, args []string) error {
	return withSession(func(s *session) error {
		return runMenu(s, cmd.InOrStdin(), cmd.OutOrStdout())
	})
}

func runMenu(s *session, in io.Reader, out io.Writer) error {
	if s.skipped > 0 {
		fmt.Fprintf(out, "Warning: %d malformed record(s) in %s were skipped (see log).\n", s.skipped, s.dataPath)
	}
	return console.New(s.store, in, out, s.logger).Run()
}
