// Package azure drives Azure OpenAI's chat-completions API. It speaks the
// same wire format as OpenAI's own API, so it's built on
// sashabaranov/go-openai configured in Azure mode (APIType, deployment
// endpoint as BaseURL, deployment name resolved via AzureModelMapperFunc)
// rather than a bespoke HTTP client — grounded on the teacher's
// internal/llm/openai driver, generalized from api.openai.com's fixed
// endpoint to Azure's per-deployment endpoint shape.
package azure

import (
	"context"
	"io"

	"github.com/GEJFY/llmgateway/internal/core"
	openai "github.com/sashabaranov/go-openai"
)

// Driver implements llm.Provider for Azure OpenAI.
type Driver struct {
	client *openai.Client
}

// New constructs the Azure driver. endpoint is the resource's base URL
// (e.g. https://my-resource.openai.azure.com); apiKey is the resource key.
// Returns core.ErrNotConfigured when either is empty, mirroring the
// teacher's claude.New/openai.New constructors.
func New(endpoint, apiKey, apiVersion string) (*Driver, error) {
	if endpoint == "" || apiKey == "" {
		return nil, core.ErrNotConfigured
	}
	if apiVersion == "" {
		apiVersion = "2024-06-01"
	}
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	cfg.APIVersion = apiVersion
	cfg.AzureModelMapperFunc = func(model string) string { return model }

	return &Driver{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name returns the registry key for this driver.
func (d *Driver) Name() string { return "azure" }

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

// Complete performs a single non-streaming completion.
func (d *Driver) Complete(ctx context.Context, req core.CompletionRequest) (*core.CompletionResponse, error) {
	resp, err := d.client.CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		return nil, classifyError(err)
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
		usage.PromptTokens = core.EstimateTokens(requestText(req))
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

// Stream performs a streaming completion, launching one goroutine that
// reads the SDK's stream and republishes it as core.StreamChunk values
// (spec.md §4.1 streaming framing).
func (d *Driver) Stream(ctx context.Context, req core.CompletionRequest) (<-chan core.StreamChunk, error) {
	streamReq := buildRequest(req)
	streamReq.Stream = true

	stream, err := d.client.CreateChatCompletionStream(ctx, streamReq)
	if err != nil {
		return nil, classifyError(err)
	}

	ch := make(chan core.StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()

		var promptText string
		for _, m := range req.Messages {
			promptText += m.Content
		}
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

// Embed is not implemented by the Azure chat driver; embeddings go through
// a separate deployment and are out of spec.md's scope for this driver.
func (d *Driver) Embed(ctx context.Context, texts []string, model string) ([][]float64, error) {
	return nil, core.ErrUnsupported
}

// HealthCheck issues a minimal completion request to confirm reachability
// and authentication.
func (d *Driver) HealthCheck(ctx context.Context) bool {
	_, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     "gpt-4o",
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	return err == nil
}

// Close is a no-op; the underlying client holds no resources to release.
func (d *Driver) Close() error { return nil }

func requestText(req core.CompletionRequest) string {
	var s string
	for _, m := range req.Messages {
		s += m.Content
	}
	return s
}
