package catalog

import (
	"testing"

	"github.com/GEJFY/llmgateway/internal/core"
)

func testCatalog() *Catalog {
	return New([]Entry{
		{Provider: "azure", Tier: core.TierSOTA, ModelID: "gpt-4o", InputUSDPer1K: 0.005, OutputUSDPer1K: 0.015, ContextWindow: 128000},
		{Provider: "azure", Tier: core.TierCostEffective, ModelID: "gpt-4o-mini", InputUSDPer1K: 0.00015, OutputUSDPer1K: 0.0006, ContextWindow: 128000},
		{Provider: "aws", Tier: core.TierSOTA, ModelID: "anthropic.claude-3-5-sonnet", InputUSDPer1K: 0.003, OutputUSDPer1K: 0.015, ContextWindow: 200000},
	})
}

func TestCatalog_ResolveTier(t *testing.T) {
	c := testCatalog()
	e, err := c.ResolveTier("azure", core.TierSOTA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ModelID != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %s", e.ModelID)
	}
}

func TestCatalog_ResolveTier_Unknown(t *testing.T) {
	c := testCatalog()
	if _, err := c.ResolveTier("gcp", core.TierSOTA); err == nil {
		t.Error("expected error for unpublished tier")
	}
}

func TestCatalog_PriceFor(t *testing.T) {
	c := testCatalog()
	e, ok := c.PriceFor("gpt-4o-mini")
	if !ok {
		t.Fatal("expected model to be found")
	}
	if e.InputUSDPer1K != 0.00015 {
		t.Errorf("unexpected input price: %v", e.InputUSDPer1K)
	}

	if _, ok := c.PriceFor("unknown-model"); ok {
		t.Error("expected unknown model to miss")
	}
}

func TestCatalog_ValidateProvider(t *testing.T) {
	c := testCatalog()
	if err := c.ValidateProvider("azure"); err != nil {
		t.Errorf("azure should be valid: %v", err)
	}
	if err := c.ValidateProvider("aws"); err == nil {
		t.Error("aws is missing cost_effective tier, expected error")
	}
}

func TestCatalog_ProvidersPublishingBothTiers(t *testing.T) {
	c := testCatalog()
	result := c.ProvidersPublishingBothTiers()
	if !result["azure"] {
		t.Error("expected azure to publish both tiers")
	}
	if result["aws"] {
		t.Error("expected aws to not publish both tiers")
	}
}
