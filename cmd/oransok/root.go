package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "oransok",
	Short: "oransok - O-RAN security knowledge pipeline",
	Long: `oransok extracts O-RAN security entities (attacks, defenses,
preventative measures, risks and threats) from PDFs with an LLM, merges them
into a master CSV and loads the result into a Neo4j graph.

Typical flow:
  oransok extract papers/*.pdf
  oransok pipeline outputs/run-... --mode append`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if terr := app.teardown(context.WithoutCancel(ctx)); terr != nil && err == nil {
		err = terr
	}
	return err
}

// skipConfig lists commands that run without loading configuration.
var skipConfig = map[string]bool{
	"version":    true,
	"completion": true,
	"help":       true,
	"init":       true,
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.GetOutputFormat() == internal.FormatJSON {
			return formatter(cmd).PrintJSON(version.Info())
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return err
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for oransok.

To load completions:

Bash:

  $ source <(oransok completion bash)

Zsh:

  $ oransok completion zsh > "${fpath[1]}/_oransok"

Fish:

  $ oransok completion fish | source

PowerShell:

  PS> oransok completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}
