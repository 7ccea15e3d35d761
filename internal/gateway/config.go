// Package gateway implements the router (spec.md §4.6): the public face of
// the system. It wires the registry, catalog, cost tracker, and budget
// breaker together and owns the chain-selection and attempt-loop decision
// procedure.
//
// The Gateway struct's wiring shape (holds its sub-components, a config, a
// logger, one constructor) is grounded on the teacher's app.App. The
// "resolve a chain, apply filters, act, log the outcome" procedural
// structure of Complete/Stream is grounded on the teacher's
// router.Router.Route.
package gateway

import (
	"fmt"

	"github.com/GEJFY/llmgateway/internal/core"
)

// Mode selects how Complete/Stream pick a fallback chain when the caller
// doesn't force an explicit provider (spec.md §4.6 step 3).
type Mode string

const (
	ModeCloud  Mode = "cloud"
	ModeLocal  Mode = "local"
	ModeHybrid Mode = "hybrid"
)

// HybridRule maps one data classification to the single provider that must
// handle it under ModeHybrid. Rules are evaluated in order; first match
// wins (spec.md §4.6 step 3).
type HybridRule struct {
	Classification core.Classification
	Provider       string
}

// Config holds the router's routing policy (spec.md §6 configuration keys:
// default_provider, fallback_chain, mode, hybrid_rules).
type Config struct {
	DefaultProvider string
	FallbackChain   []string
	LocalChain      []string
	Mode            Mode
	HybridRules     []HybridRule
}

// Validate checks Config against spec.md §3's invariants at load time.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeCloud, ModeLocal, ModeHybrid, "":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Mode == ModeLocal && len(c.LocalChain) == 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("mode local requires a non-empty local chain"))
	}
	if c.Mode == ModeHybrid && len(c.HybridRules) == 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("mode hybrid requires at least one hybrid rule"))
	}
	return nil
}

// resolveChain implements spec.md §4.6 step 3 (chain selection). available
// is consulted only for the cloud/default path, which is filtered down to
// providers the registry actually holds; explicit-provider and local/hybrid
// chains are returned as configured even if a member turns out to be
// unregistered (the attempt loop reports that as a per-provider failure).
func (c Config) resolveChain(req core.CompletionRequest, available func(name string) bool) []string {
	if req.Provider != "" {
		return []string{req.Provider}
	}

	switch c.Mode {
	case ModeLocal:
		return c.LocalChain

	case ModeHybrid:
		for _, rule := range c.HybridRules {
			if rule.Classification == req.Classification {
				return []string{rule.Provider}
			}
		}
		return c.filteredFallback(available)

	default: // ModeCloud, ""
		return c.filteredFallback(available)
	}
}

func (c Config) filteredFallback(available func(name string) bool) []string {
	chain := make([]string, 0, len(c.FallbackChain))
	for _, name := range c.FallbackChain {
		if available(name) {
			chain = append(chain, name)
		}
	}
	return chain
}
