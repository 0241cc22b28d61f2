package llm

import (
	"encoding/json"
	"fmt"
)

// Role represents the role of a message in a conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is a valid value
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects unknown roles.
func (r *Role) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	role := Role(str)
	if !role.IsValid() {
		return fmt.Errorf("invalid role: %s", str)
	}

	*r = role
	return nil
}

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Validate checks if the message is valid
func (m Message) Validate() error {
	if !m.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", m.Role)
	}
	if m.Role != RoleAssistant && m.Content == "" {
		return fmt.Errorf("%s message must have content", m.Role)
	}
	return nil
}

// Metadata keys understood by providers.
const (
	MetadataReasoningEffort = "reasoning_effort"
	MetadataVerbosity       = "verbosity"
	MetadataDocument        = "document"
)

// CompletionRequest represents a request to generate a completion
type CompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []Message      `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Validate checks if the completion request is valid
func (r CompletionRequest) Validate() error {
	if r.Model == "" {
		return NewInvalidRequestError("model is required")
	}
	if len(r.Messages) == 0 {
		return NewInvalidRequestError("at least one message is required")
	}
	for i, msg := range r.Messages {
		if err := msg.Validate(); err != nil {
			return NewInvalidRequestError(fmt.Sprintf("message %d: %v", i, err))
		}
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return NewInvalidRequestError(fmt.Sprintf("temperature must be between 0 and 2, got %f", r.Temperature))
	}
	if r.MaxTokens < 0 {
		return NewInvalidRequestError(fmt.Sprintf("max_tokens must be non-negative, got %d", r.MaxTokens))
	}
	if effort, ok := r.Metadata[MetadataReasoningEffort].(string); ok && effort != "" && !IsValidEffort(effort) {
		return NewInvalidRequestError("reasoning_effort must be one of low, medium, high")
	}
	return nil
}

// MetadataString returns the string metadata value for key, or "".
func (r CompletionRequest) MetadataString(key string) string {
	s, _ := r.Metadata[key].(string)
	return s
}

// IsValidEffort reports whether s is an accepted reasoning effort.
func IsValidEffort(s string) bool {
	switch s {
	case "low", "medium", "high":
		return true
	}
	return false
}

// CompletionResponse represents the response from an LLM completion request
type CompletionResponse struct {
	ID           string               `json:"id"`
	Model        string               `json:"model"`
	Message      Message              `json:"message"`
	FinishReason FinishReason         `json:"finish_reason"`
	Usage        CompletionTokenUsage `json:"usage"`
}

// FinishReason indicates why LLM generation stopped
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
)

// CompletionTokenUsage contains token usage statistics for an LLM completion.
type CompletionTokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
