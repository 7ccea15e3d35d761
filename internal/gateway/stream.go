package gateway

import (
	"context"
	"time"

	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// streamIdleTimeout is the per-chunk deadline: no chunk (including the
// first) for this long forces the attempt to unavailable (spec.md §5).
const streamIdleTimeout = 30 * time.Second

// streamTotalTimeout bounds one committed stream end-to-end (spec.md §5).
const streamTotalTimeout = 5 * time.Minute

// Stream implements spec.md §4.6's streaming variant of the decision
// procedure. Fallback across the chain is only valid before the first
// chunk of a given attempt is delivered; once an attempt yields a chunk,
// the gateway is committed to that provider for the rest of the stream.
func (g *Gateway) Stream(ctx context.Context, req core.CompletionRequest) (<-chan core.StreamChunk, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	now := g.now()
	if _, err := g.budget.CheckAndAdmit(now, 0); err != nil {
		return nil, err
	}

	chain := g.chain(req)
	if len(chain) == 0 {
		return nil, core.ErrNoProvidersConfigured
	}

	streamCtx, cancel := context.WithTimeout(ctx, streamTotalTimeout)

	var failures []core.FailureRecord
	for i, name := range chain {
		if streamCtx.Err() != nil {
			cancel()
			return nil, core.WrapError(core.ErrCancelled, streamCtx.Err())
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

		ch, err := driver.Stream(streamCtx, driverReq)
		if err != nil {
			kind := kindOf(err)
			if !kind.Transient() {
				cancel()
				return nil, core.WrapError(terminalErrFor(kind), err)
			}
			failures = append(failures, core.FailureRecord{Provider: name, Kind: kind, Message: err.Error()})
			continue
		}

		first, gotFirst := g.readFirstChunk(streamCtx, ch)
		if !gotFirst {
			if streamCtx.Err() != nil {
				// Caller cancellation or deadline, not a provider failure:
				// stop immediately rather than burning the rest of the
				// chain (spec.md §5 "cancellation is cooperative").
				cancel()
				return nil, core.WrapError(core.ErrCancelled, streamCtx.Err())
			}
			// Zero-chunk stream or idle timeout before any content: no
			// cost was ever incurred, safe to fall back.
			failures = append(failures, core.FailureRecord{Provider: name, Kind: core.KindUnavailable, Message: "stream closed before first chunk"})
			if i+1 < len(chain) {
				g.metrics.ObserveFallback(name, chain[i+1])
			}
			continue
		}
		if first.FinishReason == core.FinishError {
			failures = append(failures, core.FailureRecord{Provider: name, Kind: core.KindUnavailable, Message: "stream errored before first chunk"})
			if i+1 < len(chain) {
				g.metrics.ObserveFallback(name, chain[i+1])
			}
			continue
		}

		// Committed: this attempt produced real content, no more fallback.
		return g.relay(streamCtx, cancel, name, req.RequestID, now, ch, first), nil
	}

	cancel()
	return nil, core.WrapError(core.ErrAllProvidersFailed, &core.MultiError{Failures: failures})
}

// readFirstChunk waits for the driver's first chunk, bounded by the idle
// timeout and the caller's context.
func (g *Gateway) readFirstChunk(ctx context.Context, ch <-chan core.StreamChunk) (core.StreamChunk, bool) {
	timer := time.NewTimer(streamIdleTimeout)
	defer timer.Stop()

	select {
	case chunk, ok := <-ch:
		if !ok {
			return core.StreamChunk{}, false
		}
		return chunk, true
	case <-timer.C:
		return core.StreamChunk{}, false
	case <-ctx.Done():
		return core.StreamChunk{}, false
	}
}

// relay republishes a committed driver stream on the gateway's own channel,
// resetting the idle timer on every chunk and charging cost exactly once,
// at the terminal chunk (spec.md §4.6: "cost record produced at terminal
// chunk, not stream start").
func (g *Gateway) relay(ctx context.Context, cancel context.CancelFunc, provider, requestID string, now time.Time, in <-chan core.StreamChunk, first core.StreamChunk) <-chan core.StreamChunk {
	out := make(chan core.StreamChunk)

	go func() {
		defer cancel()
		defer close(out)

		charge := func(chunk core.StreamChunk) {
			if chunk.Usage == nil {
				return
			}
			costUSD := g.cost.Record(now, provider, chunk.Model, chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens, requestID)
			g.budget.RecordUsage(now, costUSD)
			g.reportBudgetMetrics(now)
		}

		select {
		case out <- first:
		case <-ctx.Done():
			return
		}
		charge(first)
		if first.Usage != nil {
			return
		}

		timer := time.NewTimer(streamIdleTimeout)
		defer timer.Stop()

		for {
			select {
			case chunk, ok := <-in:
				if !ok {
					// Stream closed without a terminal chunk: nothing
					// charged (spec.md §7: "a stream that errors mid-flight
					// debits zero").
					return
				}
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(streamIdleTimeout)

				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
				charge(chunk)
				if chunk.Usage != nil {
					return
				}

			case <-timer.C:
				g.logger.Warn("stream idle timeout", zap.String("provider", provider))
				select {
				case out <- core.StreamChunk{Provider: provider, Model: first.Model, FinishReason: core.FinishError}:
				case <-ctx.Done():
				}
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
