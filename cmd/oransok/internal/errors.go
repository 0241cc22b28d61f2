package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitDatabaseError indicates a ledger database error
	ExitDatabaseError = 12
	// ExitLLMError indicates the LLM provider failed
	ExitLLMError = 13
	// ExitGraphError indicates the graph store or import failed
	ExitGraphError = 14
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError prints err to the command's error output and returns the
// exit code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verboseSet(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	code := types.CodeOf(err)
	cmd.PrintErrln("Error:", err)
	if code != "" && verboseSet(cmd) {
		cmd.PrintErrln("Code:", code)
	}
	return ExitCodeFor(code)
}

// ExitCodeFor maps an error code to an exit code by its namespace.
func ExitCodeFor(code types.ErrorCode) int {
	c := string(code)
	switch {
	case c == "":
		return ExitError
	case strings.HasPrefix(c, "CONFIG_"):
		return ExitConfigError
	case strings.HasPrefix(c, "DB_"), strings.HasPrefix(c, "LEDGER_"):
		return ExitDatabaseError
	case strings.HasPrefix(c, "LLM_"), c == "EXTRACT_LLM_EXHAUSTED":
		return ExitLLMError
	case strings.HasPrefix(c, "GRAPH_"), strings.HasPrefix(c, "IMPORT_"):
		return ExitGraphError
	default:
		return ExitError
	}
}

func verboseSet(cmd *cobra.Command) bool {
	f := cmd.Flag("verbose")
	return f != nil && f.Changed
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag
// This is used for panic recovery to determine if stack traces should be shown
func IsVerbose() bool {
	if os.Getenv("ORANSOK_VERBOSE") != "" {
		return true
	}

	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
