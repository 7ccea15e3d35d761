package registry

import (
	"context"
	"testing"
	"time"

	"github.com/GEJFY/llmgateway/internal/core"
)

type fakeProvider struct {
	name    string
	healthy bool
	// block, if set, makes HealthCheck wait for ctx to end instead of
	// returning immediately, to exercise the deadline-exceeded path.
	block bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, req core.CompletionRequest) (*core.CompletionResponse, error) {
	return &core.CompletionResponse{Content: "ok", Provider: f.name}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req core.CompletionRequest) (<-chan core.StreamChunk, error) {
	ch := make(chan core.StreamChunk)
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string, model string) ([][]float64, error) {
	return nil, core.ErrUnsupported
}

func (f *fakeProvider) HealthCheck(ctx context.Context) bool {
	if f.block {
		<-ctx.Done()
		return false
	}
	return f.healthy
}

func (f *fakeProvider) Close() error { return nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New()

	p := &fakeProvider{name: "azure"}
	if err := r.Register(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Get("azure")
	if !ok {
		t.Fatal("expected azure to be found")
	}
	if got.Name() != "azure" {
		t.Errorf("expected azure, got %s", got.Name())
	}

	if _, ok := r.Get("nonexistent"); ok {
		t.Error("expected nonexistent provider to miss")
	}
}

func TestRegistry_Register_DuplicateFails(t *testing.T) {
	r := New()
	p := &fakeProvider{name: "azure"}
	if err := r.Register(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(p); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestRegistry_Available(t *testing.T) {
	r := New()
	r.Register(&fakeProvider{name: "azure"})
	r.Register(&fakeProvider{name: "aws"})

	names := r.Available()
	if len(names) != 2 {
		t.Errorf("expected 2 available providers, got %d", len(names))
	}
}

func TestRegistry_HealthCheckAll(t *testing.T) {
	r := New()
	r.Register(&fakeProvider{name: "azure", healthy: true})
	r.Register(&fakeProvider{name: "aws", healthy: false})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	results := r.HealthCheckAll(ctx)
	if results["azure"] != HealthHealthy {
		t.Errorf("expected azure ok, got %s", results["azure"])
	}
	if results["aws"] != HealthUnhealthy {
		t.Errorf("expected aws unhealthy, got %s", results["aws"])
	}
}

func TestRegistry_HealthCheckAll_DeadlineExceededIsError(t *testing.T) {
	r := New()
	r.Register(&fakeProvider{name: "gcp", block: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results := r.HealthCheckAll(ctx)
	if results["gcp"] != HealthError {
		t.Errorf("expected gcp error on deadline exceeded, got %s", results["gcp"])
	}
}

func TestRegistry_Close(t *testing.T) {
	r := New()
	r.Register(&fakeProvider{name: "azure"})
	if err := r.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
