// Package catalog implements the model tier catalog (spec.md §4.2): a
// static, read-only table keyed by (provider, tier) that resolves to a
// concrete backend model identifier and its published per-token prices.
//
// Grounded on the retrieval pack's pricing-table shapes
// (kommunication-aegis-ai-gateway's ModelMapping/PriceEntry,
// bdobrica-ThinkPixelLLMGW's PricingComponent) collapsed into the single
// entry struct spec.md's "Model spec" tuple names.
package catalog

import (
	"fmt"

	"github.com/GEJFY/llmgateway/internal/core"
)

// Entry is one (provider, tier) -> model mapping with its published prices.
type Entry struct {
	Provider       string
	Tier           core.Tier
	ModelID        string
	InputUSDPer1K  float64
	OutputUSDPer1K float64
	ContextWindow  int
}

type tierKey struct {
	provider string
	tier     core.Tier
}

// Catalog is immutable after construction (spec.md §4.2: "read-only at
// runtime; updates require restart").
type Catalog struct {
	byTier  map[tierKey]Entry
	byModel map[string]Entry
}

// New builds a catalog from a flat entry list, indexing by both
// (provider, tier) and model ID. Entries sharing a model ID across
// providers are allowed; byModel keeps the last one seen, and that entry's
// prices are the ones PriceFor returns (and cost.Tracker charges) for the
// model ID, whichever provider served the request.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		byTier:  make(map[tierKey]Entry, len(entries)),
		byModel: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if e.Tier != "" {
			c.byTier[tierKey{e.Provider, e.Tier}] = e
		}
		c.byModel[e.ModelID] = e
	}
	return c
}

// ResolveTier returns the concrete entry for (provider, tier). The router
// calls it once per attempted provider, just before invoking that
// provider's driver (spec.md §4.2).
func (c *Catalog) ResolveTier(provider string, tier core.Tier) (Entry, error) {
	e, ok := c.byTier[tierKey{provider, tier}]
	if !ok {
		return Entry{}, core.WrapError(core.ErrModelUnknown,
			fmt.Errorf("no %s tier published for provider %q", tier, provider))
	}
	return e, nil
}

// PriceFor looks up pricing by model ID alone, bypassing tier resolution.
// A model unknown to the catalog returns ok=false; callers price it at
// zero and flag the cost record as unpriced (spec.md §4.2).
func (c *Catalog) PriceFor(modelID string) (Entry, bool) {
	e, ok := c.byModel[modelID]
	return e, ok
}

// ProvidersPublishingBothTiers reports which providers have both a "sota"
// and a "cost_effective" entry, for startup validation against spec.md
// §4.2's "every configured provider must publish one sota entry and one
// cost_effective entry".
func (c *Catalog) ProvidersPublishingBothTiers() map[string]bool {
	hasSOTA := make(map[string]bool)
	hasCostEffective := make(map[string]bool)
	for k := range c.byTier {
		switch k.tier {
		case core.TierSOTA:
			hasSOTA[k.provider] = true
		case core.TierCostEffective:
			hasCostEffective[k.provider] = true
		}
	}
	result := make(map[string]bool)
	for p := range hasSOTA {
		result[p] = hasCostEffective[p]
	}
	return result
}

// ValidateProvider checks that provider publishes both required tiers.
func (c *Catalog) ValidateProvider(provider string) error {
	_, hasSOTA := c.byTier[tierKey{provider, core.TierSOTA}]
	_, hasCostEffective := c.byTier[tierKey{provider, core.TierCostEffective}]
	if !hasSOTA || !hasCostEffective {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("provider %q must publish both sota and cost_effective tiers", provider))
	}
	return nil
}
