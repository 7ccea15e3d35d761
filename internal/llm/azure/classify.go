package azure

import (
	"context"
	"errors"

	"github.com/GEJFY/llmgateway/internal/core"
	openai "github.com/sashabaranov/go-openai"
)

// classifyError maps go-openai's APIError into the closed core.ErrorKind
// taxonomy for the azure driver (spec.md §4.1 "uniform failure contract").
// The ollama and vllm drivers carry their own copies of the same status table.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &core.DriverError{Provider: "azure", Kind: core.KindCancelled, Message: err.Error(), Cause: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &core.DriverError{Provider: "azure", Kind: classifyStatus(apiErr.HTTPStatusCode), Message: apiErr.Message, Cause: err}
	}

	return &core.DriverError{Provider: "azure", Kind: core.KindInternal, Message: err.Error(), Cause: err}
}

func classifyStatus(status int) core.ErrorKind {
	switch {
	case status == 401 || status == 403:
		return core.KindAuth
	case status == 404:
		return core.KindModelNotFound
	case status == 429:
		return core.KindRateLimited
	case status >= 500:
		return core.KindUnavailable
	case status == 400:
		return core.KindProtocol
	default:
		return core.KindInternal
	}
}
