package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/GEJFY/llmgateway/internal/core"
)

// --- Anthropic Messages shape ---

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	Temperature      *float64           `json:"temperature,omitempty"`
	TopP             *float64           `json:"top_p,omitempty"`
	StopSequences    []string           `json:"stop_sequences,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicStreamDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	StopReason string `json:"stop_reason"`
}

type anthropicStreamEvent struct {
	Type  string               `json:"type"`
	Delta anthropicStreamDelta `json:"delta"`
}

func mapAnthropicStop(reason string) core.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return core.FinishStop
	case "max_tokens":
		return core.FinishLength
	default:
		return core.FinishStop
	}
}

// --- Amazon Titan shape ---

type titanTextGenerationConfig struct {
	MaxTokenCount int      `json:"maxTokenCount"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type titanRequest struct {
	InputText            string                    `json:"inputText"`
	TextGenerationConfig titanTextGenerationConfig `json:"textGenerationConfig"`
}

type titanResult struct {
	OutputText       string `json:"outputText"`
	CompletionReason string `json:"completionReason"`
	TokenCount       int    `json:"tokenCount"`
}

type titanResponse struct {
	Results             []titanResult `json:"results"`
	InputTextTokenCount int           `json:"inputTextTokenCount"`
}

// --- Meta Llama shape ---

type metaRequest struct {
	Prompt      string   `json:"prompt"`
	MaxGenLen   int      `json:"max_gen_len"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

type metaResponse struct {
	Generation           string `json:"generation"`
	StopReason           string `json:"stop_reason"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
}

// encodeRequest builds the family-specific JSON body from a uniform
// core.CompletionRequest.
func encodeRequest(fam family, req core.CompletionRequest) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	switch fam {
	case familyAnthropic:
		var system string
		messages := make([]anthropicMessage, 0, len(req.Messages))
		for _, m := range req.Messages {
			if m.Role == core.RoleSystem {
				system = m.Content
				continue
			}
			messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
		}
		return json.Marshal(anthropicRequest{
			AnthropicVersion: "bedrock-2023-05-31",
			MaxTokens:        maxTokens,
			System:           system,
			Messages:         messages,
			Temperature:      req.Temperature,
			TopP:             req.TopP,
			StopSequences:    req.Stop,
		})

	case familyTitan:
		return json.Marshal(titanRequest{
			InputText: joinContent(req.Messages),
			TextGenerationConfig: titanTextGenerationConfig{
				MaxTokenCount: maxTokens,
				Temperature:   req.Temperature,
				TopP:          req.TopP,
				StopSequences: req.Stop,
			},
		})

	case familyMeta:
		return json.Marshal(metaRequest{
			Prompt:      joinContent(req.Messages),
			MaxGenLen:   maxTokens,
			Temperature: req.Temperature,
			TopP:        req.TopP,
		})

	default:
		return nil, fmt.Errorf("unknown bedrock model family")
	}
}

// decodeResponse parses the family-specific JSON body into a uniform
// (content, usage, finish reason) triple.
func decodeResponse(fam family, body []byte) (string, core.Usage, core.FinishReason, error) {
	switch fam {
	case familyAnthropic:
		var resp anthropicResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", core.Usage{}, "", err
		}
		var content string
		if len(resp.Content) > 0 {
			content = resp.Content[0].Text
		}
		usage := core.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
		return content, usage, mapAnthropicStop(resp.StopReason), nil

	case familyTitan:
		var resp titanResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", core.Usage{}, "", err
		}
		var content, reason string
		var completionTokens int
		if len(resp.Results) > 0 {
			content = resp.Results[0].OutputText
			reason = resp.Results[0].CompletionReason
			completionTokens = resp.Results[0].TokenCount
		}
		usage := core.Usage{
			PromptTokens:     resp.InputTextTokenCount,
			CompletionTokens: completionTokens,
			TotalTokens:      resp.InputTextTokenCount + completionTokens,
		}
		finish := core.FinishStop
		if reason == "LENGTH" {
			finish = core.FinishLength
		}
		return content, usage, finish, nil

	case familyMeta:
		var resp metaResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", core.Usage{}, "", err
		}
		usage := core.Usage{
			PromptTokens:     resp.PromptTokenCount,
			CompletionTokens: resp.GenerationTokenCount,
			TotalTokens:      resp.PromptTokenCount + resp.GenerationTokenCount,
		}
		finish := core.FinishStop
		if resp.StopReason == "length" {
			finish = core.FinishLength
		}
		return resp.Generation, usage, finish, nil

	default:
		return "", core.Usage{}, "", fmt.Errorf("unknown bedrock model family")
	}
}
