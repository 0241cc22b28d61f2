package providers

import (
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
)

// toSchemaMessages converts llm messages to langchaingo MessageContent
func toSchemaMessages(messages []llm.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		switch msg.Role {
		case llm.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case llm.RoleAssistant:
			role = llms.ChatMessageTypeAI
		}

		result = append(result, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	return result
}

// fromLangchainResponse converts a langchaingo response to an llm response
func fromLangchainResponse(resp *llms.ContentResponse, model string) *llm.CompletionResponse {
	out := &llm.CompletionResponse{
		ID:           uuid.New().String(),
		Model:        model,
		Message:      llm.Message{Role: llm.RoleAssistant},
		FinishReason: llm.FinishReasonStop,
	}
	if resp == nil || len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Message.Content = choice.Content

	switch choice.StopReason {
	case "length", "max_tokens":
		out.FinishReason = llm.FinishReasonLength
	case "content_filter":
		out.FinishReason = llm.FinishReasonContentFilter
	}

	out.Usage = llm.CompletionTokenUsage{
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
	}

	return out
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// buildCallOptions converts an llm request to langchaingo call options.
// Reasoning effort and verbosity travel as call metadata; the OpenAI
// transport lifts them to top-level request fields.
func buildCallOptions(req llm.CompletionRequest) []llms.CallOption {
	callOpts := make([]llms.CallOption, 0, 4)

	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}

	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}

	meta := map[string]any{}
	for _, key := range []string{llm.MetadataReasoningEffort, llm.MetadataVerbosity} {
		if v := req.MetadataString(key); v != "" {
			meta[key] = v
		}
	}
	if len(meta) > 0 {
		callOpts = append(callOpts, llms.WithMetadata(meta))
	}

	return callOpts
}
