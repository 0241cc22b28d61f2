package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// LLM error codes
const (
	ErrProviderNotFound     types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderUnavailable  types.ErrorCode = "LLM_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited  types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"

	ErrModelContextExceeded types.ErrorCode = "LLM_MODEL_CONTEXT_EXCEEDED"

	ErrInvalidRequest  types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrInvalidResponse types.ErrorCode = "LLM_INVALID_RESPONSE"
	ErrTimeoutExceeded types.ErrorCode = "LLM_TIMEOUT_EXCEEDED"
	ErrContextCanceled types.ErrorCode = "LLM_CONTEXT_CANCELED"
	ErrNetworkFailed   types.ErrorCode = "LLM_NETWORK_FAILED"
)

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var llmErr *types.Error
	if !errors.As(err, &llmErr) {
		return false
	}

	if llmErr.Retryable {
		return true
	}

	switch llmErr.Code {
	case ErrNetworkFailed, ErrProviderRateLimited, ErrProviderUnavailable, ErrTimeoutExceeded:
		return true
	default:
		return false
	}
}

// NewProviderNotFoundError creates an error for when a provider is not found
func NewProviderNotFoundError(providerName string) *types.Error {
	return types.NewError(ErrProviderNotFound, "provider not found: "+providerName)
}

// NewProviderUnavailableError creates a retryable error for when a provider is temporarily unavailable
func NewProviderUnavailableError(providerName string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrProviderUnavailable,
		Message:   "provider temporarily unavailable: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewRateLimitError creates a retryable error for rate limiting
func NewRateLimitError(providerName string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrProviderRateLimited,
		Message:   "rate limit exceeded for provider: " + providerName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewProviderUnauthorizedError creates an unauthorized provider error
func NewProviderUnauthorizedError(providerName string, cause error) *types.Error {
	return &types.Error{
		Code:    ErrProviderUnauthorized,
		Message: fmt.Sprintf("provider '%s' authentication failed", providerName),
		Cause:   cause,
	}
}

// NewMissingAPIKeyError reports a provider configured without credentials.
func NewMissingAPIKeyError(providerName string) *types.Error {
	return types.NewError(ErrProviderUnauthorized,
		fmt.Sprintf("missing %s API key (set llm.api_key or OPENAI_API_KEY)", providerName))
}

// NewInvalidRequestError creates an error for invalid requests
func NewInvalidRequestError(message string) *types.Error {
	return types.NewError(ErrInvalidRequest, message)
}

// NewEmptyResponseError reports a completion with no text content.
func NewEmptyResponseError(model string) *types.Error {
	return types.NewError(ErrInvalidResponse,
		fmt.Sprintf("LLM returned empty content; check model/limits (model=%s)", model))
}

// NewNetworkError creates a retryable error for network failures
func NewNetworkError(message string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrNetworkFailed,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// NewTimeoutError creates a retryable error for timeout failures
func NewTimeoutError(message string, cause error) *types.Error {
	return &types.Error{
		Code:      ErrTimeoutExceeded,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// TranslateError maps a raw provider error onto an LLM_* coded error based
// on the context state and the error message.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	var coded *types.Error
	if errors.As(err, &coded) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return types.WrapError(ErrContextCanceled, "request canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(ErrTimeoutExceeded, "request deadline exceeded", err)
	}

	lowerMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lowerMsg, "unauthorized") || strings.Contains(lowerMsg, "authentication") ||
		strings.Contains(lowerMsg, "api key") || strings.Contains(lowerMsg, "status code: 401"):
		return NewProviderUnauthorizedError(provider, err)
	case strings.Contains(lowerMsg, "rate limit") || strings.Contains(lowerMsg, "too many requests") ||
		strings.Contains(lowerMsg, "status code: 429"):
		return NewRateLimitError(provider, err)
	case strings.Contains(lowerMsg, "context length") || strings.Contains(lowerMsg, "maximum context"):
		return types.WrapError(ErrModelContextExceeded, "prompt exceeds the model context window", err)
	case strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline"):
		return NewTimeoutError(err.Error(), err)
	case strings.Contains(lowerMsg, "network") || strings.Contains(lowerMsg, "connection"):
		return NewNetworkError(err.Error(), err)
	case strings.Contains(lowerMsg, "model") && strings.Contains(lowerMsg, "not found"):
		return types.WrapError(ErrInvalidRequest, "unknown model", err)
	default:
		return NewProviderUnavailableError(provider, err)
	}
}
