// Command userlist serves and exports paginated listings of Random User API records.
package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/randomuser-pager/pkg/config"
	"github.com/Sternrassler/randomuser-pager/pkg/logging"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliState carries the loaded configuration from the root command to subcommands.
type cliState struct {
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:   "userlist",
		Short: "Paginated listing of Random User API records",
		Long: `userlist fetches users from the Random User API in batches, caches each
batch and serves fixed-size pages sliced from the cached copy.

Configuration is read from an optional YAML file and USERLIST_* environment
variables (e.g. USERLIST_CACHE_TTL=10m). RANDOM_USER_API_URL and
RANDOM_USER_API_RESULTS are honored as well.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(state.configFile)
			if err != nil {
				return err
			}
			state.cfg = cfg
			logging.Setup(logging.FromLevel(cfg.Logging.Level, cfg.Logging.Pretty))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&state.configFile, "config", "", "config file (YAML, optional)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newServeCmd(state),
		newListCmd(state),
		newExportCmd(state),
		newWarmCmd(state),
	)

	return root
}
