package llm

// CompletionOption is a functional option for configuring completion requests.
type CompletionOption func(*CompletionRequest)

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CompletionOption {
	return func(req *CompletionRequest) {
		req.Temperature = temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CompletionOption {
	return func(req *CompletionRequest) {
		req.MaxTokens = maxTokens
	}
}

// WithReasoningEffort forwards a reasoning effort hint (low, medium, high).
// Empty values are ignored.
func WithReasoningEffort(effort string) CompletionOption {
	return WithMetadata(MetadataReasoningEffort, effort)
}

// WithVerbosity forwards an output verbosity hint.
func WithVerbosity(verbosity string) CompletionOption {
	return WithMetadata(MetadataVerbosity, verbosity)
}

// WithMetadata adds a metadata entry; empty string values are skipped.
func WithMetadata(key string, value any) CompletionOption {
	return func(req *CompletionRequest) {
		if s, ok := value.(string); ok && s == "" {
			return
		}
		if req.Metadata == nil {
			req.Metadata = make(map[string]any)
		}
		req.Metadata[key] = value
	}
}

// NewCompletionRequest builds a request for model from messages and options.
func NewCompletionRequest(model string, messages []Message, opts ...CompletionOption) CompletionRequest {
	req := CompletionRequest{
		Model:    model,
		Messages: messages,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
