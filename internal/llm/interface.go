// Package llm defines the uniform driver contract every backend
// implements (spec.md §4.1). A driver wraps exactly one provider's wire
// protocol and never makes routing, budget, or fallback decisions itself —
// that belongs to the gateway.
package llm

import (
	"context"

	"github.com/GEJFY/llmgateway/internal/core"
)

// Provider is the uniform driver contract (spec.md §4.1 "Driver contract").
// Every backend — azure, aws, gcp, ollama, vllm — implements this
// same interface so the gateway never special-cases a provider.
type Provider interface {
	// Name returns the provider's canonical registry key: one of
	// "azure", "aws", "gcp", "ollama", "vllm" (spec.md §4.5).
	Name() string

	// Complete performs a single non-streaming completion.
	Complete(ctx context.Context, req core.CompletionRequest) (*core.CompletionResponse, error)

	// Stream performs a streaming completion. The returned channel is
	// closed by the driver when the stream ends, whether by completion,
	// cancellation, or error; a terminal error is delivered as the last
	// value read before the channel closes is checked via the chunk's
	// FinishReason, with protocol-level errors returned directly by Stream
	// itself when they occur before the first chunk is produced.
	Stream(ctx context.Context, req core.CompletionRequest) (<-chan core.StreamChunk, error)

	// Embed produces embeddings for texts using model. Drivers that do not
	// support embeddings return core.ErrUnsupported.
	Embed(ctx context.Context, texts []string, model string) ([][]float64, error)

	// HealthCheck reports whether the provider is currently reachable and
	// authenticated. Callers impose their own deadline (spec.md §4.1: 5s).
	HealthCheck(ctx context.Context) bool

	// Close releases any held resources (connections, goroutines). Close
	// is idempotent.
	Close() error
}
