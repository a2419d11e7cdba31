package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/buildinfo"
)

// DefaultConfigFile is the config file looked up when --config is not given.
const DefaultConfigFile = "ledger.yaml"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Double-entry bookkeeping",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", DefaultConfigFile, "path to ledger.yaml")
	rootCmd.PersistentFlags().StringVar(&g.actor, "actor", "", "user recorded on created and posted entries (default $USER)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newTypeCommand(g))
	rootCmd.AddCommand(newAccountCommand(g))
	rootCmd.AddCommand(newEntryCommand(g))
	rootCmd.AddCommand(newReportCommand(g))
	rootCmd.AddCommand(newExportCommand(g))

	return rootCmd
}
