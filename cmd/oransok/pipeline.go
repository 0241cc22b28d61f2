package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/pipeline"
)

var pipelineMode string

var pipelineCmd = &cobra.Command{
	Use:   "pipeline [RUN_DIR]",
	Short: "Append a run to the master CSV and import it into the graph",
	Long: `Pipeline merges every CSV of a run directory into the master CSV and
then imports the datasets into Neo4j.

Modes:
  append   add the run's new rows to the master, then import
  rebuild  drop the whole graph first, then append and import
  dry-run  only count the CSVs and rows that would be appended

RUN_DIR defaults to core.run_dir (ORAN_RUN_DIR).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineMode, "mode", string(pipeline.ModeAppend), "append, rebuild or dry-run")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	mode, err := pipeline.ParseMode(pipelineMode)
	if err != nil {
		return err
	}
	runDir, err := resolveRunDir(args)
	if err != nil {
		return err
	}

	ctx, cancel := app.commandContext(cmd)
	defer cancel()

	var client graph.GraphClient
	if mode != pipeline.ModeDryRun {
		client, err = app.connectGraph(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close(ctx) }()
	}

	m, err := app.mapping()
	if err != nil {
		return err
	}

	cfg := app.cfg
	p := pipeline.New(client, pipeline.Config{
		DataDir:           cfg.Core.DataDir,
		MasterCSV:         cfg.Core.MasterCSV,
		StrictTypes:       cfg.Graph.StrictTypes,
		PostImportQueries: cfg.Graph.PostImportQueries,
	},
		pipeline.WithMapping(m),
		pipeline.WithLogger(app.logger("pipeline")),
		pipeline.WithMetrics(app.metrics),
	)

	res, err := p.Run(ctx, runDir, mode)
	if err != nil {
		return err
	}
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return formatter(cmd).PrintJSON(res)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	return err
}
