package catalog

import "github.com/GEJFY/llmgateway/internal/core"

// referencePrices is a built-in published-price table keyed by model ID,
// covering the models named by the gateway's default provider
// configuration (spec.md §6's `<provider>_sota_model`/`_cost_effective_model`
// keys carry only model names, not prices, so pricing has to live
// somewhere static; this mirrors how the retrieval pack's pricing tables
// (bdobrica-ThinkPixelLLMGW/pricing_component.go,
// kommunication-aegis-ai-gateway/models.go) ship a compiled-in price list
// rather than expecting an operator to hand-enter per-token prices).
var referencePrices = map[string]struct {
	InputUSDPer1K  float64
	OutputUSDPer1K float64
	ContextWindow  int
}{
	"gpt-4o":                              {0.005, 0.015, 128000},
	"gpt-4o-mini":                         {0.00015, 0.0006, 128000},
	"anthropic.claude-3-5-sonnet-20240620-v1:0": {0.003, 0.015, 200000},
	"anthropic.claude-3-haiku-20240307-v1:0":    {0.00025, 0.00125, 200000},
	"amazon.titan-text-express-v1":        {0.0002, 0.0006, 8000},
	"amazon.titan-text-lite-v1":           {0.00015, 0.0002, 4000},
	"meta.llama3-70b-instruct-v1:0":       {0.00265, 0.0035, 8000},
	"meta.llama3-8b-instruct-v1:0":        {0.0003, 0.0006, 8000},
	"gemini-1.5-pro":                      {0.00125, 0.005, 2000000},
	"gemini-1.5-flash":                    {0.000075, 0.0003, 1000000},
	"qwen2.5:32b":                         {0, 0, 32000},
	"llama3.1:70b":                        {0, 0, 128000},
}

// ModelNames is the pair of tier model IDs published for one provider
// (spec.md §6's `<provider>_sota_model`/`_cost_effective_model` keys).
type ModelNames struct {
	SOTAModel          string
	CostEffectiveModel string
}

// BuildEntries assembles catalog entries for a set of providers from their
// configured tier model names, filling in prices from the built-in
// reference table. A model absent from the reference table still gets an
// entry (zero-priced, so cost.Tracker.Record flags it Unpriced rather than
// silently dropping the provider from routing).
func BuildEntries(providers map[string]ModelNames) []Entry {
	entries := make([]Entry, 0, len(providers)*2)
	for provider, names := range providers {
		if names.SOTAModel != "" {
			entries = append(entries, entryFor(provider, core.TierSOTA, names.SOTAModel))
		}
		if names.CostEffectiveModel != "" {
			entries = append(entries, entryFor(provider, core.TierCostEffective, names.CostEffectiveModel))
		}
	}
	return entries
}

func entryFor(provider string, tier core.Tier, modelID string) Entry {
	e := Entry{Provider: provider, Tier: tier, ModelID: modelID}
	if price, ok := referencePrices[modelID]; ok {
		e.InputUSDPer1K = price.InputUSDPer1K
		e.OutputUSDPer1K = price.OutputUSDPer1K
		e.ContextWindow = price.ContextWindow
	}
	return e
}
