package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/fileingest/internal/config"
)

//go:embed templates/fileingest.yaml
var configTemplate embed.FS

// configFileName is the default settings file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new fileingest settings file",
		Long: `Initialize creates a new .fileingest settings file in the current directory.

The generated file includes:
- Commented module settings (hash sets, search engine rules, email filters)
- The content size limit and the list of disabled modules
- The default file ingest pipeline order

Examples:
  # Create .fileingest in current directory
  fileingest init

  # Create settings file at a specific path
  fileingest init -o case-settings.yaml

  # Force overwrite existing file
  fileingest init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the settings file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing settings file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("settings file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/fileingest.yaml")
	if err != nil {
		return fmt.Errorf("failed to read settings template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created settings file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Known-bad hash sets")
	fmt.Fprintln(out, "  - Search engine rules")
	fmt.Fprintln(out, "  - The file ingest pipeline order")

	return nil
}
