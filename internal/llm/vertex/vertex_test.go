package vertex

import (
	"testing"

	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/GEJFY/llmgateway/internal/llm"
)

func TestDriver_ImplementsInterface(t *testing.T) {
	var _ llm.Provider = (*Driver)(nil)
}

func TestNew_RequiresFullConfig(t *testing.T) {
	cases := []Config{
		{},
		{ProjectID: "p"},
		{ProjectID: "p", Location: "us-central1"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); err != core.ErrNotConfigured {
			t.Errorf("expected ErrNotConfigured for %+v, got %v", cfg, err)
		}
	}
}

func TestNew_OK(t *testing.T) {
	d, err := New(Config{ProjectID: "p", Location: "us-central1", BearerToken: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name() != "gcp" {
		t.Errorf("expected name gcp, got %s", d.Name())
	}
}

func TestBuildRequest_SplitsSystemAndMapsRoles(t *testing.T) {
	req := core.CompletionRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: "be terse"},
			{Role: core.RoleUser, Content: "hi"},
			{Role: core.RoleAssistant, Content: "hello"},
		},
		MaxTokens: 50,
	}
	vr := buildRequest(req)
	if vr.SystemInstruction == nil || vr.SystemInstruction.Parts[0].Text != "be terse" {
		t.Errorf("expected system instruction extracted, got %+v", vr.SystemInstruction)
	}
	if len(vr.Contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(vr.Contents))
	}
	if vr.Contents[0].Role != "user" || vr.Contents[1].Role != "model" {
		t.Errorf("expected roles [user model], got [%s %s]", vr.Contents[0].Role, vr.Contents[1].Role)
	}
}

func TestMapFinishReason(t *testing.T) {
	cases := map[string]core.FinishReason{
		"STOP":       core.FinishStop,
		"MAX_TOKENS": core.FinishLength,
		"SAFETY":     core.FinishContentFilter,
	}
	for in, want := range cases {
		if got := mapFinishReason(in); got != want {
			t.Errorf("mapFinishReason(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestClassifyStatusError(t *testing.T) {
	if err := classifyStatusError("gcp", 429, "rate"); err.(*core.DriverError).Kind != core.KindRateLimited {
		t.Error("expected rate_limited")
	}
	if err := classifyStatusError("gcp", 503, "down"); err.(*core.DriverError).Kind != core.KindUnavailable {
		t.Error("expected unavailable")
	}
}
