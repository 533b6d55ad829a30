package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fileingest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileingest",
		Short: "Forensic file ingest pipeline",
		Long: `fileingest enumerates the files of one or more directories and runs each
file through an ordered pipeline of analysis modules (hash lookup, EXIF
metadata, search engine queries, email addresses, key material).

Artifacts posted by the modules are stored in a case database under the XDG
data directory, together with a report of every ingest job.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewModulesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
