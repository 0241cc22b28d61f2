package main

import (
	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	Quiet        bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
}

var globalFlags = &GlobalFlags{}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "", "Path to config file (default: $ORANSOK_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&globalFlags.HomeDir, "home", "", "oransok home directory (default: ~/.oransok)")
}

// ParseGlobalFlags validates the global flags.
func ParseGlobalFlags(cmd *cobra.Command) (*GlobalFlags, error) {
	format := globalFlags.OutputFormat
	if format != string(internal.FormatText) && format != string(internal.FormatJSON) {
		return nil, internal.NewCLIError(internal.ExitError, "--output must be text or json, got "+format)
	}

	if globalFlags.Verbose && globalFlags.Quiet {
		return nil, internal.NewCLIError(internal.ExitError, "--verbose and --quiet cannot be used together")
	}

	return globalFlags, nil
}

// GetOutputFormat returns the parsed OutputFormat enum
func (f *GlobalFlags) GetOutputFormat() internal.OutputFormat {
	if f.OutputFormat == string(internal.FormatJSON) {
		return internal.FormatJSON
	}
	return internal.FormatText
}

// IsVerbose returns true if verbose mode is enabled
func (f *GlobalFlags) IsVerbose() bool {
	return f.Verbose && !f.Quiet
}

// IsQuiet returns true if quiet mode is enabled
func (f *GlobalFlags) IsQuiet() bool {
	return f.Quiet
}

// LogLevel returns the log level implied by the flags, or configured when
// neither --verbose nor --quiet is set.
func (f *GlobalFlags) LogLevel(configured string) string {
	switch {
	case f.IsQuiet():
		return "error"
	case f.IsVerbose():
		return "debug"
	default:
		return configured
	}
}
