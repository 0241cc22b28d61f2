package providers

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// contentGenerator is the slice of langchaingo's llms.Model the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// OpenAIProvider implements LLMProvider for OpenAI models.
type OpenAIProvider struct {
	client contentGenerator
	config llm.ProviderConfig
}

// NewOpenAIProvider creates a new OpenAI provider. The API key comes from
// cfg.APIKey or OPENAI_API_KEY.
func NewOpenAIProvider(cfg llm.ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, llm.NewMissingAPIKeyError("openai")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithHTTPClient(newChatParamsClient(nil)),
	}

	if cfg.DefaultModel != "" {
		opts = append(opts, openai.WithModel(cfg.DefaultModel))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	return &OpenAIProvider{
		client: client,
		config: cfg,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Complete sends a completion request. A response without text content is
// an ErrInvalidResponse error.
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if req.Model == "" {
		req.Model = p.config.DefaultModel
	}
	if req.MetadataString(llm.MetadataReasoningEffort) == "" && p.config.ReasoningEffort != "" {
		meta := make(map[string]any, len(req.Metadata)+1)
		for k, v := range req.Metadata {
			meta[k] = v
		}
		meta[llm.MetadataReasoningEffort] = p.config.ReasoningEffort
		req.Metadata = meta
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := p.client.GenerateContent(ctx, toSchemaMessages(req.Messages), buildCallOptions(req)...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	out := fromLangchainResponse(resp, req.Model)
	out.Message.Content = strings.TrimSpace(out.Message.Content)
	if out.Message.Content == "" {
		return nil, llm.NewEmptyResponseError(req.Model)
	}
	return out, nil
}

// Health sends a one-token request.
func (p *OpenAIProvider) Health(ctx context.Context) types.HealthStatus {
	start := time.Now()
	_, err := p.client.GenerateContent(ctx,
		toSchemaMessages([]llm.Message{llm.NewUserMessage("ping")}),
		llms.WithModel(p.config.DefaultModel),
		llms.WithMaxTokens(16),
	)
	status := types.Healthy("openai reachable")
	if err != nil {
		status = types.Unhealthy(llm.TranslateError("openai", err).Error())
	}
	status.Latency = time.Since(start)
	return status.For("llm")
}
