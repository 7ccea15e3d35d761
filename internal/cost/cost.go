// Package cost implements the cost tracker (spec.md §4.3): it turns token
// usage into USD using fixed-scale decimal arithmetic, appends an immutable
// cost record per completed request, and answers read-only rollups.
//
// The append-only-slice-behind-a-mutex shape is grounded on the teacher's
// internal/storage/signal.MemoryStore (same counter-under-lock + append
// idiom, generalized from signals to cost records).
package cost

import (
	"sync"
	"time"

	"github.com/GEJFY/llmgateway/internal/catalog"
	"github.com/shopspring/decimal"
)

// Record is one immutable entry (spec.md §3 "Cost record"). Seq breaks ties
// between records sharing a Timestamp (spec.md §5).
type Record struct {
	Seq              int64
	Timestamp        time.Time
	Provider         string
	ModelID          string
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
	RequestID        string
	Unpriced         bool // true when ModelID was unknown to the catalog
}

// Filter selects a subset of records for List/totals.
type Filter struct {
	Provider string
	Model    string
	Month    time.Time // zero value means "all time"
	Offset   int
	Limit    int // 0 means unlimited
}

// Tracker is the single cost-tracking resource for a process. Safe for
// concurrent use: reads take an RLock snapshot, writes take a full Lock
// (spec.md §5's "lock-free snapshot" framing is approximated here by a
// cheap RWMutex read path, since Go has no safe lock-free growable slice
// without unsafe code — see DESIGN.md).
type Tracker struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	records []Record
	seq     int64
}

// New creates a cost tracker backed by the given catalog for pricing.
func New(cat *catalog.Catalog) *Tracker {
	return &Tracker{catalog: cat}
}

// Record converts (model, prompt_tokens, completion_tokens) to USD via the
// catalog's published per-1k-token prices, appends an immutable record, and
// returns the cost for the caller to echo in its response (spec.md §4.3).
// now is a caller-supplied clock so tests can exercise month-rollover
// behaviour deterministically without depending on wall time.
func (t *Tracker) Record(now time.Time, provider, modelID string, promptTokens, completionTokens int, requestID string) float64 {
	entry, ok := t.catalog.PriceFor(modelID)

	var costUSD decimal.Decimal
	if ok {
		in := decimal.NewFromFloat(entry.InputUSDPer1K)
		out := decimal.NewFromFloat(entry.OutputUSDPer1K)
		thousand := decimal.NewFromInt(1000)
		costUSD = decimal.NewFromInt(int64(promptTokens)).Mul(in).Div(thousand).
			Add(decimal.NewFromInt(int64(completionTokens)).Mul(out).Div(thousand))
		costUSD = costUSD.Round(6)
	}

	t.mu.Lock()
	t.seq++
	rec := Record{
		Seq:              t.seq,
		Timestamp:        now,
		Provider:         provider,
		ModelID:          modelID,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		CostUSD:          costUSD.InexactFloat64(),
		RequestID:        requestID,
		Unpriced:         !ok,
	}
	t.records = append(t.records, rec)
	t.mu.Unlock()

	return rec.CostUSD
}

// MonthTotal sums cost_usd over all records in the calendar month of ref.
func (t *Tracker) MonthTotal(ref time.Time) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := decimal.Zero
	for _, r := range t.records {
		if sameMonth(r.Timestamp, ref) {
			total = total.Add(decimal.NewFromFloat(r.CostUSD))
		}
	}
	return total.InexactFloat64()
}

// ProviderTotals sums cost_usd per provider within the calendar month of ref.
func (t *Tracker) ProviderTotals(ref time.Time) map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, r := range t.records {
		if sameMonth(r.Timestamp, ref) {
			totals[r.Provider] = totals[r.Provider].Add(decimal.NewFromFloat(r.CostUSD))
		}
	}
	return toFloatMap(totals)
}

// ModelTotals sums cost_usd per model within the calendar month of ref.
func (t *Tracker) ModelTotals(ref time.Time) map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, r := range t.records {
		if sameMonth(r.Timestamp, ref) {
			totals[r.ModelID] = totals[r.ModelID].Add(decimal.NewFromFloat(r.CostUSD))
		}
	}
	return toFloatMap(totals)
}

// List returns records matching filter, ordered by Seq, with pagination.
func (t *Tracker) List(f Filter) ([]Record, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var matched []Record
	for _, r := range t.records {
		if f.Provider != "" && r.Provider != f.Provider {
			continue
		}
		if f.Model != "" && r.ModelID != f.Model {
			continue
		}
		if !f.Month.IsZero() && !sameMonth(r.Timestamp, f.Month) {
			continue
		}
		matched = append(matched, r)
	}

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []Record{}, total
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total
}

func sameMonth(t, ref time.Time) bool {
	ty, tm, _ := t.Date()
	ry, rm, _ := ref.Date()
	return ty == ry && tm == rm
}

func toFloatMap(in map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v.InexactFloat64()
	}
	return out
}
