package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/config"
	"github.com/nao1215/fileingest/internal/model"
	"github.com/nao1215/fileingest/internal/modules"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// NewModulesCmd creates the modules command.
func NewModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List the modules of the file ingest pipeline",
		Long: `Modules starts every module of the catalog once, without ingesting any file,
and prints them in effective pipeline order together with their class
identifiers. The class identifiers are the entries of fileIngestPipeline.

Disabled modules and modules that fail to start are listed after the
pipeline.

Examples:
  fileingest modules
  fileingest modules --pipeline-config order.yaml --disable "Hash Lookup"`,
		Args: cobra.NoArgs,
		RunE: runModulesCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Settings file path (default: .fileingest in current or home directory)")
	cmd.Flags().String("pipeline-config", "",
		"YAML file with the file ingest pipeline order")
	cmd.Flags().StringSlice("disable", nil,
		"Module display names that must not run (repeatable)")

	return cmd
}

func runModulesCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}
	if cfg.PipelineConfigPath, err = cmd.Flags().GetString("pipeline-config"); err != nil {
		return err
	}
	if cfg.DisabledModules, err = cmd.Flags().GetStringSlice("disable"); err != nil {
		return err
	}
	if cfg.Settings, err = loadSettings(cfg.ConfigFilePath); err != nil {
		return err
	}
	if err := applyPipelineOrder(cfg); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg.Verbose)
	return listModules(cmd.Context(), cfg, logger, cmd.OutOrStdout())
}

// listModules starts the catalog against an in-memory blackboard and prints
// the resulting pipeline.
func listModules(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	job := pipeline.NewIngestJob(ctx, model.NewDataSource("."))
	defer job.Release()

	templates := modules.Catalog(cfg, modules.Deps{
		Blackboard: blackboard.NewMemory(),
		Logger:     logger,
	})
	p := pipeline.New(job, templates, pipeline.WithLogger(logger))
	startErrs := p.StartUp()
	defer p.ShutDown(true)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tNAME\tCLASS\n")
	names := p.ModuleNames()
	classes := p.ModuleClassNames()
	for i := range names {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, names[i], classes[i])
	}
	for _, tmpl := range templates {
		if !tmpl.CanProduceFileModule() {
			fmt.Fprintf(w, "-\t%s\t(disabled)\n", tmpl.DisplayName())
		}
	}
	for _, e := range startErrs {
		fmt.Fprintf(w, "-\t%s\t(failed to start: %v)\n", e.Module, e.Err)
	}
	return w.Flush()
}
