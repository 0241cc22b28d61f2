package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the extraction ledger",
	Long: `The ledger records the SHA-256 of every successfully extracted PDF so
repeated extract runs skip documents that were already processed.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded extractions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLedgerList,
}

var ledgerForgetCmd = &cobra.Command{
	Use:   "forget HASH",
	Short: "Remove a document from the ledger so it is extracted again",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerForget,
}

func init() {
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerForgetCmd)
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, closeLedger, err := app.openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()
	if store == nil {
		return internal.NewCLIError(internal.ExitConfigError, "ledger is disabled (ledger.enabled: false)")
	}

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	out := formatter(cmd)
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return out.PrintJSON(entries)
	}
	if len(entries) == 0 {
		info(cmd.OutOrStdout(), "Ledger is empty\n")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortHash(e.Hash),
			e.Path,
			fmt.Sprint(e.Rows),
			e.Model,
			e.RunID,
			e.ExtractedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return out.PrintTable([]string{"hash", "path", "rows", "model", "run", "extracted"}, rows)
}

func runLedgerForget(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, closeLedger, err := app.openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()
	if store == nil {
		return internal.NewCLIError(internal.ExitConfigError, "ledger is disabled (ledger.enabled: false)")
	}

	removed, err := store.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	if !removed {
		return internal.NewCLIError(internal.ExitError, "no ledger entry for "+args[0])
	}
	return formatter(cmd).PrintSuccess("Forgot " + args[0])
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
