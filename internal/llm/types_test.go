package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

func TestCompletionRequest_Validate(t *testing.T) {
	valid := NewCompletionRequest("gpt-5",
		[]Message{NewSystemMessage("be precise"), NewUserMessage("extract")},
		WithMaxTokens(8000),
		WithReasoningEffort("medium"),
	)

	tests := []struct {
		name    string
		mutate  func(r *CompletionRequest)
		wantErr bool
	}{
		{"valid", func(r *CompletionRequest) {}, false},
		{"missing model", func(r *CompletionRequest) { r.Model = "" }, true},
		{"no messages", func(r *CompletionRequest) { r.Messages = nil }, true},
		{"empty user message", func(r *CompletionRequest) { r.Messages = []Message{NewUserMessage("")} }, true},
		{"negative tokens", func(r *CompletionRequest) { r.MaxTokens = -1 }, true},
		{"temperature too high", func(r *CompletionRequest) { r.Temperature = 3 }, true},
		{"bad effort", func(r *CompletionRequest) { r.Metadata = map[string]any{MetadataReasoningEffort: "max"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Messages = append([]Message(nil), valid.Messages...)
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrInvalidRequest, types.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	req := NewCompletionRequest("gpt-5", nil,
		WithTemperature(0.2),
		WithReasoningEffort(""),
		WithVerbosity("low"),
		WithMetadata(MetadataDocument, "paper.pdf"),
	)

	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, "", req.MetadataString(MetadataReasoningEffort))
	assert.Equal(t, "low", req.MetadataString(MetadataVerbosity))
	assert.Equal(t, "paper.pdf", req.MetadataString(MetadataDocument))
}

func TestRole_UnmarshalJSON(t *testing.T) {
	var r Role
	require.NoError(t, json.Unmarshal([]byte(`"assistant"`), &r))
	assert.Equal(t, RoleAssistant, r)
	assert.Error(t, json.Unmarshal([]byte(`"tool"`), &r))
}

func TestProviderConfig_Validate(t *testing.T) {
	assert.NoError(t, ProviderConfig{Type: ProviderOpenAI, DefaultModel: "gpt-5", ReasoningEffort: "high"}.Validate())
	assert.Error(t, ProviderConfig{Type: "anthropic", DefaultModel: "x"}.Validate())
	assert.Error(t, ProviderConfig{Type: ProviderMock}.Validate())
	assert.Error(t, ProviderConfig{Type: ProviderMock, DefaultModel: "m", ReasoningEffort: "huge"}.Validate())
}
