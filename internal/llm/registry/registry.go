// Package registry holds the set of constructed, configured drivers for a
// running gateway (spec.md §4.5). Grounded on the teacher's
// notifier.Registry (sync.RWMutex + map[string]Notifier + Register/GetAll),
// generalized from notifiers to LLM drivers.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GEJFY/llmgateway/internal/llm"
)

// HealthState is the result vocabulary for a single driver's health check
// (spec.md §4.5: "returns a map name → {ok, skipped, error}"), grounded on
// the retrieval pack's ineyio-inferrouter HealthState enum and extended with
// HealthUnhealthy so an active false response stays distinguishable from a
// driver that exceeded its deadline.
type HealthState string

const (
	// HealthHealthy is spec.md §4.5's "ok": the driver answered within its
	// deadline and reported itself healthy.
	HealthHealthy HealthState = "ok"
	// HealthUnhealthy is an active, in-deadline false response from the
	// driver's own HealthCheck.
	HealthUnhealthy HealthState = "unhealthy"
	// HealthError is spec.md §4.5's "error": the driver exceeded
	// healthCheckTimeout, or its check context ended for any other reason
	// (e.g. the parent context being cancelled). Never folded into
	// HealthUnhealthy, since a hung driver and a driver that actively
	// reported unhealthy are different operational signals.
	HealthError HealthState = "error"
	// HealthSkipped is spec.md §4.5's "skipped": the provider was excluded
	// from this particular check run, e.g. deregistered between the
	// Available() snapshot and the fan-out dispatching its check.
	HealthSkipped HealthState = "skipped"
)

// healthCheckTimeout is the per-driver deadline inside HealthCheckAll's
// overall deadline (spec.md §4.1 "HealthCheck (5s deadline)").
const healthCheckTimeout = 5 * time.Second

// Registry is the single source of truth for which providers are
// constructed and available to the router.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]llm.Provider
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{drivers: make(map[string]llm.Provider)}
}

// Register adds a driver, keyed by its own Name(). Registering the same
// name twice is an error (mirrors the teacher's notifier.Registry.Register).
func (r *Registry) Register(p llm.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.drivers[name] = p
	return nil
}

// Get retrieves a driver by provider name.
func (r *Registry) Get(name string) (llm.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.drivers[name]
	return p, ok
}

// Available returns the names of every registered provider, order
// unspecified.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	return names
}

// Close closes every registered driver, continuing past failures, and
// returns the first error encountered (nil if every Close succeeded).
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var firstErr error
	for name, p := range r.drivers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", name, err)
		}
	}
	return firstErr
}

// HealthCheckAll fans out a HealthCheck to every registered driver in
// parallel, each bounded by its own healthCheckTimeout derived from parent,
// and returns as soon as the slowest driver responds or parent is done
// (spec.md §4.5 "HealthCheckAll (parallel, 5s overall deadline)").
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]HealthState {
	names := r.Available()
	results := make(map[string]HealthState, len(names))
	resultCh := make(chan struct {
		name  string
		state HealthState
	}, len(names))

	var wg sync.WaitGroup
	for _, name := range names {
		p, ok := r.Get(name)
		if !ok {
			resultCh <- struct {
				name  string
				state HealthState
			}{name, HealthSkipped}
			continue
		}
		wg.Add(1)
		go func(name string, p llm.Provider) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
			defer cancel()

			done := make(chan bool, 1)
			go func() { done <- p.HealthCheck(checkCtx) }()

			var state HealthState
			select {
			case healthy := <-done:
				switch {
				case healthy:
					state = HealthHealthy
				case checkCtx.Err() != nil:
					state = HealthError
				default:
					state = HealthUnhealthy
				}
			case <-checkCtx.Done():
				state = HealthError
			}
			resultCh <- struct {
				name  string
				state HealthState
			}{name, state}
		}(name, p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		results[r.name] = r.state
	}
	return results
}
