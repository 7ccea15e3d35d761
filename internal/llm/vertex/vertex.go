// Package vertex drives GCP Vertex AI's generative-model endpoint
// (publishers/google/models/{model}:generateContent). Grounded on the
// retrieval pack's Gemini driver (ENTERPILOT-GOModel/internal/providers/gemini)
// for the plain net/http + json.Marshal/Unmarshal request/response shape,
// rewritten against Vertex's generateContent JSON envelope (contents/parts)
// instead of Gemini's OpenAI-compatible endpoint, and in the teacher's
// error-wrapping idiom instead of the pack driver's bare fmt.Errorf chain.
package vertex

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GEJFY/llmgateway/internal/core"
)

// Config holds what's needed to reach one Vertex AI project/location.
// BearerToken is a caller-refreshed OAuth2 access token; this driver does
// not perform token refresh itself (spec.md has no token-lifecycle
// component to own that).
type Config struct {
	ProjectID   string
	Location    string
	BearerToken string
}

// Driver implements llm.Provider for GCP Vertex AI.
type Driver struct {
	httpClient *http.Client
	cfg        Config
}

// New constructs the Vertex driver. Returns core.ErrNotConfigured when any
// required field is empty.
func New(cfg Config) (*Driver, error) {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.BearerToken == "" {
		return nil, core.ErrNotConfigured
	}
	return &Driver{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Name returns the registry key for this driver.
func (d *Driver) Name() string { return "gcp" }

func (d *Driver) endpoint(model, method string) string {
	return fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:%s",
		d.cfg.Location, d.cfg.ProjectID, d.cfg.Location, model, method,
	)
}

type vertexPart struct {
	Text string `json:"text"`
}

type vertexContent struct {
	Role  string       `json:"role"`
	Parts []vertexPart `json:"parts"`
}

type vertexGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type vertexRequest struct {
	Contents          []vertexContent        `json:"contents"`
	SystemInstruction *vertexContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  vertexGenerationConfig `json:"generationConfig,omitempty"`
}

type vertexCandidate struct {
	Content      vertexContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type vertexUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type vertexResponse struct {
	Candidates    []vertexCandidate   `json:"candidates"`
	UsageMetadata vertexUsageMetadata `json:"usageMetadata"`
}

func buildRequest(req core.CompletionRequest) vertexRequest {
	var system *vertexContent
	contents := make([]vertexContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == core.RoleSystem {
			system = &vertexContent{Parts: []vertexPart{{Text: m.Content}}}
			continue
		}
		role := "user"
		if m.Role == core.RoleAssistant {
			role = "model"
		}
		contents = append(contents, vertexContent{Role: role, Parts: []vertexPart{{Text: m.Content}}})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return vertexRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: vertexGenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			StopSequences:   req.Stop,
		},
	}
}

func mapFinishReason(reason string) core.FinishReason {
	switch reason {
	case "STOP":
		return core.FinishStop
	case "MAX_TOKENS":
		return core.FinishLength
	case "SAFETY", "RECITATION":
		return core.FinishContentFilter
	default:
		return core.FinishStop
	}
}

func candidateText(c vertexCandidate) string {
	var s string
	for _, p := range c.Content.Parts {
		s += p.Text
	}
	return s
}

// Complete performs a single non-streaming completion.
func (d *Driver) Complete(ctx context.Context, req core.CompletionRequest) (*core.CompletionResponse, error) {
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindProtocol, Message: err.Error(), Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint(req.Model, "generateContent"), bytes.NewReader(body))
	if err != nil {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindInternal, Message: err.Error(), Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.cfg.BearerToken)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(d.Name(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindProtocol, Message: err.Error(), Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatusError(d.Name(), resp.StatusCode, string(respBody))
	}

	var vr vertexResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindProtocol, Message: err.Error(), Cause: err}
	}
	if len(vr.Candidates) == 0 {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindProtocol, Message: "no candidates returned"}
	}

	content := candidateText(vr.Candidates[0])
	usage := core.Usage{
		PromptTokens:     vr.UsageMetadata.PromptTokenCount,
		CompletionTokens: vr.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      vr.UsageMetadata.TotalTokenCount,
	}
	if usage.TotalTokens == 0 {
		usage.PromptTokens = core.EstimateTokens(joinContent(req.Messages))
		usage.CompletionTokens = core.EstimateTokens(content)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		usage.Estimated = true
	}

	return &core.CompletionResponse{
		Content:      content,
		Provider:     d.Name(),
		Model:        req.Model,
		Usage:        usage,
		FinishReason: mapFinishReason(vr.Candidates[0].FinishReason),
	}, nil
}

// Stream performs a streaming completion against Vertex's SSE-framed
// streamGenerateContent endpoint, parsing "data: {...}" lines.
func (d *Driver) Stream(ctx context.Context, req core.CompletionRequest) (<-chan core.StreamChunk, error) {
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindProtocol, Message: err.Error(), Cause: err}
	}

	url := d.endpoint(req.Model, "streamGenerateContent") + "?alt=sse"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &core.DriverError{Provider: d.Name(), Kind: core.KindInternal, Message: err.Error(), Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.cfg.BearerToken)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(d.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, classifyStatusError(d.Name(), resp.StatusCode, string(respBody))
	}

	ch := make(chan core.StreamChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		promptText := joinContent(req.Messages)
		var completionText string
		terminal := false

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" {
				continue
			}

			var vr vertexResponse
			if err := json.Unmarshal([]byte(payload), &vr); err != nil || len(vr.Candidates) == 0 {
				continue
			}
			delta := candidateText(vr.Candidates[0])
			completionText += delta

			chunk := core.StreamChunk{Delta: delta, Provider: d.Name(), Model: req.Model}
			if vr.Candidates[0].FinishReason != "" {
				usage := core.Usage{
					PromptTokens:     core.EstimateTokens(promptText),
					CompletionTokens: core.EstimateTokens(completionText),
					Estimated:        true,
				}
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
				chunk.Usage = &usage
				chunk.FinishReason = mapFinishReason(vr.Candidates[0].FinishReason)
				terminal = true
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}

		if !terminal {
			select {
			case ch <- core.StreamChunk{Provider: d.Name(), Model: req.Model, FinishReason: core.FinishError}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

// Embed is unsupported: Vertex embeddings use a distinct
// textembedding-gecko endpoint not wired by this driver.
func (d *Driver) Embed(ctx context.Context, texts []string, model string) ([][]float64, error) {
	return nil, core.ErrUnsupported
}

// HealthCheck issues a minimal generateContent request.
func (d *Driver) HealthCheck(ctx context.Context) bool {
	_, err := d.Complete(ctx, core.CompletionRequest{
		Model:     "gemini-1.5-flash",
		Messages:  []core.Message{{Role: core.RoleUser, Content: "ping"}},
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

func classifyTransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &core.DriverError{Provider: provider, Kind: core.KindCancelled, Message: err.Error(), Cause: err}
	}
	return &core.DriverError{Provider: provider, Kind: core.KindUnavailable, Message: err.Error(), Cause: err}
}

func classifyStatusError(provider string, status int, body string) error {
	switch {
	case status == 401 || status == 403:
		return &core.DriverError{Provider: provider, Kind: core.KindAuth, Message: body}
	case status == 404:
		return &core.DriverError{Provider: provider, Kind: core.KindModelNotFound, Message: body}
	case status == 429:
		return &core.DriverError{Provider: provider, Kind: core.KindRateLimited, Message: body}
	case status >= 500:
		return &core.DriverError{Provider: provider, Kind: core.KindUnavailable, Message: body}
	default:
		return &core.DriverError{Provider: provider, Kind: core.KindProtocol, Message: body}
	}
}
