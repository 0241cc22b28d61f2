package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graphimport"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/pipeline"
)

var (
	graphImportDryRun bool
	graphImportReset  bool
	graphDropYes      bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage the Neo4j knowledge graph",
}

var graphImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the data directory and master CSV into the graph",
	Args:  cobra.NoArgs,
	RunE:  runGraphImport,
}

var graphDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete every node and relationship",
	Args:  cobra.NoArgs,
	RunE:  runGraphDrop,
}

var graphSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the node and relationship schema the import would produce",
	Args:  cobra.NoArgs,
	RunE:  runGraphSchema,
}

var graphQueryCmd = &cobra.Command{
	Use:   "query CYPHER",
	Short: "Run a read-only Cypher query",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphQuery,
}

var graphHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the graph database connection",
	Args:  cobra.NoArgs,
	RunE:  runGraphHealth,
}

func init() {
	graphImportCmd.Flags().BoolVar(&graphImportDryRun, "dry-run", false, "Build the import plan without writing")
	graphImportCmd.Flags().BoolVar(&graphImportReset, "reset", false, "Delete every node before importing")
	graphDropCmd.Flags().BoolVar(&graphDropYes, "yes", false, "Confirm deleting the whole graph")

	graphCmd.AddCommand(graphImportCmd)
	graphCmd.AddCommand(graphDropCmd)
	graphCmd.AddCommand(graphSchemaCmd)
	graphCmd.AddCommand(graphQueryCmd)
	graphCmd.AddCommand(graphHealthCmd)
}

// newImporter builds an importer over the configured data directory.
// client may be nil for plans and dry runs.
func newImporter(client graph.GraphClient) (*graphimport.Importer, error) {
	m, err := app.mapping()
	if err != nil {
		return nil, err
	}
	dataDir, err := filepath.Abs(app.cfg.Core.DataDir)
	if err != nil {
		return nil, internal.WrapError(internal.ExitConfigError, "invalid data directory", err)
	}
	return graphimport.NewImporter(client, graphimport.Config{
		DataDir:           dataDir,
		MasterCSV:         pipeline.DetectMaster(dataDir, app.cfg.Core.MasterCSV),
		StrictTypes:       app.cfg.Graph.StrictTypes,
		PostImportQueries: app.cfg.Graph.PostImportQueries,
	},
		graphimport.WithMapping(m),
		graphimport.WithLogger(app.logger("graphimport")),
		graphimport.WithMetrics(app.metrics),
	), nil
}

func runGraphImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := app.commandContext(cmd)
	defer cancel()

	var client graph.GraphClient
	if !graphImportDryRun {
		var err error
		client, err = app.connectGraph(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close(ctx) }()
	}

	importer, err := newImporter(client)
	if err != nil {
		return err
	}
	stats, err := importer.Run(ctx, graphimport.Options{DryRun: graphImportDryRun, Reset: graphImportReset})
	if err != nil {
		return err
	}
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return formatter(cmd).PrintJSON(stats)
	}
	return formatter(cmd).PrintSuccess(stats.String())
}

func runGraphDrop(cmd *cobra.Command, args []string) error {
	if !graphDropYes {
		return internal.NewCLIError(internal.ExitError, "refusing to delete the graph without --yes")
	}
	ctx, cancel := app.commandContext(cmd)
	defer cancel()

	client, err := app.connectGraph(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	deleted, err := client.DeleteAll(ctx)
	if err != nil {
		return err
	}
	return formatter(cmd).PrintSuccess(fmt.Sprintf("Deleted %d nodes", deleted))
}

func runGraphSchema(cmd *cobra.Command, args []string) error {
	importer, err := newImporter(nil)
	if err != nil {
		return err
	}
	plan, err := importer.Plan(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), plan.Schema())
	return err
}

func runGraphQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := app.commandContext(cmd)
	defer cancel()

	client, err := app.connectGraph(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	result, err := client.Query(ctx, args[0], nil)
	if err != nil {
		return err
	}

	out := formatter(cmd)
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return out.PrintJSON(result.Records)
	}
	if len(result.Records) == 0 {
		info(cmd.OutOrStdout(), "(no rows)\n")
		return nil
	}
	rows := make([][]string, 0, len(result.Records))
	for _, rec := range result.Records {
		row := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			if v, ok := rec[col]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return out.PrintTable(result.Columns, rows)
}

func runGraphHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := app.commandContext(cmd)
	defer cancel()

	client, err := app.connectGraph(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	status := client.Health(ctx)
	out := formatter(cmd)
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		if err := out.PrintJSON(status); err != nil {
			return err
		}
	} else {
		line := fmt.Sprintf("graph %s (%s): %s", status.State, app.cfg.Graph.URI, status.Message)
		if status.IsHealthy() {
			if err := out.PrintSuccess(line); err != nil {
				return err
			}
		} else if err := out.PrintError(line); err != nil {
			return err
		}
	}
	if !status.IsHealthy() {
		return internal.NewCLIError(internal.ExitGraphError, "graph is "+status.State.String())
	}
	return nil
}
