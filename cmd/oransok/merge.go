package main

import (
	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/merge"
)

var (
	mergeOutName string
	mergeByType  bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge [RUN_DIR]",
	Short: "Merge the per-document CSVs of a run",
	Long: `Merge combines the academic CSVs of a run directory into
merged/<name>, adding provenance columns and dropping exact duplicates.

With --by-type, the run's documents are instead aggregated into
academics.all.csv and specs.all.csv on the canonical header.

RUN_DIR defaults to core.run_dir (ORAN_RUN_DIR).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeOutName, "out", merge.DefaultAcademicName, "File name written under <run>/merged/")
	mergeCmd.Flags().BoolVar(&mergeByType, "by-type", false, "Write one aggregate per document type instead")
}

func runMerge(cmd *cobra.Command, args []string) error {
	runDir, err := resolveRunDir(args)
	if err != nil {
		return err
	}
	out := formatter(cmd)

	if mergeByType {
		outputs, err := merge.MergeRun(runDir)
		if err != nil {
			return err
		}
		if globalFlags.GetOutputFormat() == internal.FormatJSON {
			return out.PrintJSON(outputs)
		}
		if outputs.Academics == "" && outputs.Specs == "" {
			return out.PrintWarning("no per-document CSVs found in " + runDir)
		}
		for _, p := range []string{outputs.Academics, outputs.Specs} {
			if p != "" {
				if err := out.PrintSuccess("Wrote " + p); err != nil {
					return err
				}
			}
		}
		return nil
	}

	path, err := merge.MergeAcademic(runDir, mergeOutName)
	if err != nil {
		return err
	}
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return out.PrintJSON(map[string]string{"merged": path})
	}
	return out.PrintSuccess("Merged CSV written: " + path)
}

// resolveRunDir takes the run directory from args or core.run_dir.
func resolveRunDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if app.cfg != nil && app.cfg.Core.RunDir != "" {
		return app.cfg.Core.RunDir, nil
	}
	return "", internal.NewCLIError(internal.ExitError, "run directory required (argument or ORAN_RUN_DIR)")
}
