package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().BoolP("verbose", "v", false, "")
	buf := &bytes.Buffer{}
	cmd.SetErr(buf)
	return cmd, buf
}

func TestCLIError(t *testing.T) {
	err := WrapError(ExitConfigError, "operation failed", errors.New("underlying error"))
	assert.Equal(t, "operation failed: underlying error", err.Error())
	assert.EqualError(t, err.Unwrap(), "underlying error")

	plain := NewCLIError(ExitError, "something went wrong")
	assert.Equal(t, "something went wrong", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"nil", nil, ExitSuccess, ""},
		{"cancelled", fmt.Errorf("run: %w", context.Canceled), ExitCancelled, "Operation cancelled"},
		{"timeout", context.DeadlineExceeded, ExitTimeout, "Operation timed out"},
		{"cli error", NewCLIError(ExitGraphError, "graph down"), ExitGraphError, "Error: graph down"},
		{"config", types.NewError(types.CONFIG_VALIDATION_FAILED, "bad"), ExitConfigError, "Error:"},
		{"ledger", types.NewError(types.DB_OPEN_FAILED, "locked"), ExitDatabaseError, "locked"},
		{"llm", types.NewError("LLM_PROVIDER_RATE_LIMITED", "slow down"), ExitLLMError, "slow down"},
		{"graph", types.NewError("GRAPH_CONNECTION_FAILED", "refused"), ExitGraphError, "refused"},
		{"import", types.NewError("IMPORT_UNRESOLVED", "missing"), ExitGraphError, "missing"},
		{"generic", errors.New("boom"), ExitError, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, buf := newTestCmd()
			assert.Equal(t, tt.wantCode, HandleError(cmd, tt.err))
			assert.Contains(t, buf.String(), tt.wantOut)
		})
	}
}

func TestHandleErrorVerboseShowsCause(t *testing.T) {
	cmd, buf := newTestCmd()
	_ = cmd.Flags().Set("verbose", "true")

	HandleError(cmd, WrapError(ExitError, "failed", errors.New("root cause")))
	assert.Contains(t, buf.String(), "Cause: root cause")

	buf.Reset()
	HandleError(cmd, types.NewError("PIPELINE_INVALID_MODE", "bad mode"))
	assert.Contains(t, buf.String(), "Code: PIPELINE_INVALID_MODE")
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitError, ExitCodeFor(""))
	assert.Equal(t, ExitLLMError, ExitCodeFor("EXTRACT_LLM_EXHAUSTED"))
	assert.Equal(t, ExitError, ExitCodeFor("EXTRACT_WRITE_FAILED"))
	assert.Equal(t, ExitDatabaseError, ExitCodeFor("DB_MIGRATION_FAILED"))
}
