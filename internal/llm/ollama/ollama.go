// Package ollama drives a local Ollama server. Ollama exposes an
// OpenAI-compatible chat endpoint under /v1 (spec.md §4.1, which supersedes
// this package's previous native /api/chat implementation); pointing
// sashabaranov/go-openai at that endpoint with a custom BaseURL gets the
// same request/response shape as the Azure driver for free, unauthenticated.
package ollama

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/GEJFY/llmgateway/internal/core"
	openai "github.com/sashabaranov/go-openai"
)

// Driver implements llm.Provider for an OpenAI-compatible Ollama endpoint.
type Driver struct {
	client *openai.Client
}

// New constructs the Ollama driver against endpoint, e.g.
// http://localhost:11434. Ollama requires no API key; New only fails
// when endpoint is empty.
func New(endpoint string) (*Driver, error) {
	if endpoint == "" {
		return nil, core.ErrNotConfigured
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = strings.TrimRight(endpoint, "/") + "/v1"
	return &Driver{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name returns the registry key for this driver.
func (d *Driver) Name() string { return "ollama" }

// Complete performs a single non-streaming completion.
func (d *Driver) Complete(ctx context.Context, req core.CompletionRequest) (*core.CompletionResponse, error) {
	resp, err := d.client.CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		return nil, classifyError(d.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindProtocol, Message: "empty choices in response"}
	}
	choice := resp.Choices[0]

	usage := core.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.PromptTokens = core.EstimateTokens(joinContent(req.Messages))
		usage.CompletionTokens = core.EstimateTokens(choice.Message.Content)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		usage.Estimated = true
	}

	return &core.CompletionResponse{
		Content:      choice.Message.Content,
		Provider:     d.Name(),
		Model:        resp.Model,
		Usage:        usage,
		FinishReason: mapFinishReason(choice.FinishReason),
	}, nil
}

// Stream performs a streaming completion.
func (d *Driver) Stream(ctx context.Context, req core.CompletionRequest) (<-chan core.StreamChunk, error) {
	streamReq := buildRequest(req)
	streamReq.Stream = true

	stream, err := d.client.CreateChatCompletionStream(ctx, streamReq)
	if err != nil {
		return nil, classifyError(d.Name(), err)
	}

	ch := make(chan core.StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()

		promptText := joinContent(req.Messages)
		var completionText string
		finish := core.FinishStop

		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				usage := core.Usage{
					PromptTokens:     core.EstimateTokens(promptText),
					CompletionTokens: core.EstimateTokens(completionText),
					Estimated:        true,
				}
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
				select {
				case ch <- core.StreamChunk{Provider: d.Name(), Model: req.Model, Usage: &usage, FinishReason: finish}:
				case <-ctx.Done():
				}
				return
			}
			if err != nil {
				select {
				case ch <- core.StreamChunk{Provider: d.Name(), Model: req.Model, FinishReason: core.FinishError}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			completionText += delta

			chunk := core.StreamChunk{Delta: delta, Provider: d.Name(), Model: resp.Model}
			if resp.Choices[0].FinishReason != "" {
				finish = mapFinishReason(resp.Choices[0].FinishReason)
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Embed is unsupported: Ollama's embeddings endpoint uses a different
// request shape than chat completions and is out of scope here.
func (d *Driver) Embed(ctx context.Context, texts []string, model string) ([][]float64, error) {
	return nil, core.ErrUnsupported
}

// HealthCheck issues a minimal completion request against the configured
// endpoint.
func (d *Driver) HealthCheck(ctx context.Context) bool {
	_, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     "llama3",
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	return err == nil
}

// Close is a no-op; the underlying HTTP client holds no resources to release.
func (d *Driver) Close() error { return nil }

func joinContent(msgs []core.Message) string {
	var s string
	for _, m := range msgs {
		s += m.Content
	}
	return s
}

func toOpenAIMessages(msgs []core.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func buildRequest(req core.CompletionRequest) openai.ChatCompletionRequest {
	cr := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
		Stop:     req.Stop,
	}
	if req.Temperature != nil {
		cr.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		cr.TopP = float32(*req.TopP)
	}
	if req.MaxTokens > 0 {
		cr.MaxTokens = req.MaxTokens
	}
	return cr
}

func mapFinishReason(r openai.FinishReason) core.FinishReason {
	switch r {
	case openai.FinishReasonStop:
		return core.FinishStop
	case openai.FinishReasonLength:
		return core.FinishLength
	case openai.FinishReasonContentFilter:
		return core.FinishContentFilter
	case openai.FinishReasonFunctionCall, openai.FinishReasonToolCalls:
		return core.FinishToolCall
	default:
		return core.FinishStop
	}
}

// classifyError maps go-openai's APIError into the closed core.ErrorKind
// taxonomy, same classification table as the azure driver since both speak
// the OpenAI wire protocol (spec.md §4.1).
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &core.DriverError{Provider: provider, Kind: core.KindCancelled, Message: err.Error(), Cause: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &core.DriverError{Provider: provider, Kind: classifyStatus(apiErr.HTTPStatusCode), Message: apiErr.Message, Cause: err}
	}

	return &core.DriverError{Provider: provider, Kind: core.KindUnavailable, Message: err.Error(), Cause: err}
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
