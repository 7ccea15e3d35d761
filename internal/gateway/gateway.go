package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/GEJFY/llmgateway/internal/budget"
	"github.com/GEJFY/llmgateway/internal/catalog"
	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/GEJFY/llmgateway/internal/cost"
	"github.com/GEJFY/llmgateway/internal/llm/registry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MetricsRecorder is the subset of observability hooks the gateway calls on
// every attempt. Defined here (rather than importing internal/metrics
// directly) so the gateway depends on an interface, not a concrete
// Prometheus registry; internal/metrics.Registry implements it.
type MetricsRecorder interface {
	ObserveRequest(provider, status string, durationSeconds float64)
	ObserveFallback(from, to string)
	SetBudgetUsageRatio(ratio float64)
	SetCircuitState(state string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRequest(string, string, float64) {}
func (nopMetrics) ObserveFallback(string, string)          {}
func (nopMetrics) SetBudgetUsageRatio(float64)             {}
func (nopMetrics) SetCircuitState(string)                  {}

// Gateway is the router (spec.md §4.6): the single entry point a caller
// (CLI, HTTP handler, test) talks to. It owns no network connections of its
// own; it orchestrates the registry, catalog, cost tracker, and budget
// breaker.
type Gateway struct {
	cfg      Config
	registry *registry.Registry
	catalog  *catalog.Catalog
	cost     *cost.Tracker
	budget   *budget.Breaker
	metrics  MetricsRecorder
	logger   *zap.Logger

	now func() time.Time
}

// New constructs a Gateway. logger and metrics may be nil; now defaults to
// time.Now (tests inject a fixed clock to exercise month rollover
// deterministically, mirroring budget.Breaker's own now-as-parameter shape).
func New(cfg Config, reg *registry.Registry, cat *catalog.Catalog, tracker *cost.Tracker, breaker *budget.Breaker, metrics MetricsRecorder, logger *zap.Logger, now func() time.Time) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &Gateway{
		cfg:      cfg,
		registry: reg,
		catalog:  cat,
		cost:     tracker,
		budget:   breaker,
		metrics:  metrics,
		logger:   logger,
		now:      now,
	}, nil
}

// resolvedModel returns the concrete model to send to provider for this
// request, performing tier resolution against the catalog when the caller
// asked for a tier instead of a concrete model (spec.md §4.6 step 2: tier
// resolution is re-performed per provider, since a fallback that crosses
// providers must re-resolve against the new provider's catalog entries).
func (g *Gateway) resolvedModel(provider string, req core.CompletionRequest) (string, error) {
	if req.Model != "" || req.Tier == "" {
		return req.Model, nil
	}
	entry, err := g.catalog.ResolveTier(provider, req.Tier)
	if err != nil {
		return "", err
	}
	return entry.ModelID, nil
}

func (g *Gateway) chain(req core.CompletionRequest) []string {
	return g.cfg.resolveChain(req, func(name string) bool {
		_, ok := g.registry.Get(name)
		return ok
	})
}

// Complete implements spec.md §4.6's full decision procedure for a single
// non-streaming call: budget gate, chain selection, attempt loop,
// exhaustion.
func (g *Gateway) Complete(ctx context.Context, req core.CompletionRequest) (*core.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	now := g.now()

	// Step 1: budget gate. No driver is touched on denial.
	if _, err := g.budget.CheckAndAdmit(now, 0); err != nil {
		return nil, err
	}

	// Step 3: chain selection (step 2, tier resolution, happens per-attempt
	// inside the loop below since fallback can cross providers).
	chain := g.chain(req)
	if len(chain) == 0 {
		return nil, core.ErrNoProvidersConfigured
	}

	var failures []core.FailureRecord
	for i, name := range chain {
		if ctx.Err() != nil {
			return nil, core.WrapError(core.ErrCancelled, ctx.Err())
		}

		driver, ok := g.registry.Get(name)
		if !ok {
			failures = append(failures, core.FailureRecord{Provider: name, Kind: core.KindUnavailable, Message: "not registered"})
			continue
		}

		model, err := g.resolvedModel(name, req)
		if err != nil {
			failures = append(failures, core.FailureRecord{Provider: name, Kind: core.KindModelNotFound, Message: err.Error()})
			continue
		}
		driverReq := req
		driverReq.Model = model

		start := time.Now()
		resp, err := driver.Complete(ctx, driverReq)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			kind := kindOf(err)
			g.metrics.ObserveRequest(name, "error", elapsed)

			if !kind.Transient() {
				return nil, core.WrapError(terminalErrFor(kind), err)
			}

			failures = append(failures, core.FailureRecord{Provider: name, Kind: kind, Message: err.Error()})
			g.logger.Warn("provider_failed",
				zap.String("provider", name),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			if i+1 < len(chain) {
				g.metrics.ObserveFallback(name, chain[i+1])
			}
			continue
		}

		// Step 4 success path: record cost, debit budget, return.
		g.metrics.ObserveRequest(name, "ok", elapsed)
		costUSD := g.cost.Record(now, name, resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, req.RequestID)
		resp.CostUSD = costUSD
		g.budget.RecordUsage(now, costUSD)
		g.reportBudgetMetrics(now)
		return resp, nil
	}

	// Step 5: exhaustion.
	return nil, core.WrapError(core.ErrAllProvidersFailed, &core.MultiError{Failures: failures})
}

// Embed delegates to one explicitly named provider. Embeddings bypass the
// budget/fallback machinery entirely: spec.md's catalog has no embedding
// tiers, and Embed is optional per-driver (spec.md §4.1), so there is
// nothing here to fall back across.
func (g *Gateway) Embed(ctx context.Context, provider string, texts []string, model string) ([][]float64, error) {
	driver, ok := g.registry.Get(provider)
	if !ok {
		return nil, core.WrapError(core.ErrProviderUnavailable, fmt.Errorf("provider %q not registered", provider))
	}
	vectors, err := driver.Embed(ctx, texts, model)
	if err != nil {
		if de, ok := err.(*core.DriverError); ok {
			return nil, core.WrapError(core.ErrProviderError, de)
		}
		return nil, err
	}
	return vectors, nil
}

// --- Admin entry points (spec.md §6) ---

// BudgetState returns the current budget circuit snapshot.
func (g *Gateway) BudgetState() budget.Snapshot {
	return g.budget.State(g.now())
}

// ResetBudget administratively zeroes spend without advancing month_key.
func (g *Gateway) ResetBudget() {
	g.budget.Reset()
}

// CostSummary returns matching cost records and the total match count.
func (g *Gateway) CostSummary(f cost.Filter) ([]cost.Record, int) {
	return g.cost.List(f)
}

// ProvidersStatus returns the names of every registered provider.
func (g *Gateway) ProvidersStatus() []string {
	return g.registry.Available()
}

// HealthCheckAll fans a health check out to every registered provider.
func (g *Gateway) HealthCheckAll(ctx context.Context) map[string]registry.HealthState {
	return g.registry.HealthCheckAll(ctx)
}

func (g *Gateway) reportBudgetMetrics(now time.Time) {
	snap := g.budget.State(now)
	if snap.MonthlyLimitUSD > 0 {
		g.metrics.SetBudgetUsageRatio(snap.SpendUSD / snap.MonthlyLimitUSD)
	}
	g.metrics.SetCircuitState(string(snap.Circuit))
}

// kindOf extracts the ErrorKind from a driver error, defaulting to
// internal for anything a driver returns that isn't a *core.DriverError
// (a driver bug rather than a classified failure; internal is transient,
// so the attempt loop falls over to the next provider instead of
// surfacing an unclassified error directly).
func kindOf(err error) core.ErrorKind {
	if de, ok := err.(*core.DriverError); ok {
		return de.Kind
	}
	return core.KindInternal
}

// terminalErrFor maps a non-transient driver error kind to the router-level
// error spec.md §7 says it surfaces as.
func terminalErrFor(kind core.ErrorKind) *core.Error {
	if kind == core.KindCancelled {
		return core.ErrCancelled
	}
	return core.ErrProviderError
}
