package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// MockCall represents a recorded call to the mock provider
type MockCall struct {
	Request llm.CompletionRequest
}

// MockProvider implements LLMProvider for testing. Responses are returned
// round-robin; queued errors are returned first, one per call.
type MockProvider struct {
	mu            sync.Mutex
	responses     []string
	responseIndex int
	errs          []error
	calls         []MockCall
	respond       func(req llm.CompletionRequest) (string, error)
}

// NewMockProvider creates a new mock provider
func NewMockProvider(responses []string) *MockProvider {
	return &MockProvider{
		responses: responses,
		calls:     make([]MockCall, 0),
	}
}

// NewMockProviderFunc creates a mock whose output is computed per request.
func NewMockProviderFunc(fn func(req llm.CompletionRequest) (string, error)) *MockProvider {
	return &MockProvider{respond: fn}
}

// QueueError makes the next call fail with err.
func (p *MockProvider) QueueError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

func (p *MockProvider) Name() string {
	return "mock"
}

// Complete returns the next configured response.
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.TranslateError("mock", err)
	}

	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})

	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		p.mu.Unlock()
		return nil, err
	}

	var response string
	switch {
	case p.respond != nil:
		p.mu.Unlock()
		var err error
		response, err = p.respond(req)
		if err != nil {
			return nil, err
		}
	case len(p.responses) == 0:
		p.mu.Unlock()
		return nil, llm.NewProviderUnavailableError("mock", fmt.Errorf("no responses configured"))
	default:
		response = p.responses[p.responseIndex%len(p.responses)]
		p.responseIndex++
		p.mu.Unlock()
	}

	if response == "" {
		return nil, llm.NewEmptyResponseError(req.Model)
	}

	return &llm.CompletionResponse{
		ID:    uuid.New().String(),
		Model: req.Model,
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: response,
		},
		FinishReason: llm.FinishReasonStop,
		Usage: llm.CompletionTokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(response) / 4,
			TotalTokens:      10 + len(response)/4,
		},
	}, nil
}

func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider").For("llm")
}

// Calls returns a copy of the recorded calls.
func (p *MockProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MockCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns the number of Complete calls made.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
