// Package wiring assembles a running gateway from a loaded config.Config:
// constructing one driver per configured provider, registering it, and
// building the catalog/cost/budget/gateway stack around it. Grounded on the
// teacher's cmd/atlas/serve.go runServe, which does the equivalent
// load-config-then-construct-dependencies sequence for the HTTP server;
// generalized here from one api.Server to the gateway's driver registry.
package wiring

import (
	"fmt"
	"strings"
	"time"

	"github.com/GEJFY/llmgateway/internal/budget"
	"github.com/GEJFY/llmgateway/internal/catalog"
	"github.com/GEJFY/llmgateway/internal/config"
	"github.com/GEJFY/llmgateway/internal/cost"
	"github.com/GEJFY/llmgateway/internal/gateway"
	"github.com/GEJFY/llmgateway/internal/llm"
	"github.com/GEJFY/llmgateway/internal/llm/azure"
	"github.com/GEJFY/llmgateway/internal/llm/bedrock"
	"github.com/GEJFY/llmgateway/internal/llm/ollama"
	"github.com/GEJFY/llmgateway/internal/llm/registry"
	"github.com/GEJFY/llmgateway/internal/llm/vertex"
	"github.com/GEJFY/llmgateway/internal/llm/vllm"
	"go.uber.org/zap"
)

// Build constructs every driver named in cfg.Providers, registers it, and
// wires the resulting registry together with the catalog, cost tracker, and
// budget breaker into a *gateway.Gateway. A provider whose driver fails to
// construct (e.g. missing credentials) is logged and skipped rather than
// aborting the whole gateway, so a partially-configured deployment still
// starts with whatever providers are reachable.
func Build(cfg *config.Config, metrics gateway.MetricsRecorder, logger *zap.Logger) (*gateway.Gateway, *registry.Registry, error) {
	reg := registry.New()

	for name, p := range cfg.Providers {
		driver, err := buildDriver(name, p)
		if err != nil {
			logger.Warn("skipping provider, driver construction failed",
				zap.String("provider", name), zap.Error(err))
			continue
		}
		if err := reg.Register(driver); err != nil {
			return nil, nil, fmt.Errorf("registering provider %s: %w", name, err)
		}
	}

	cat := catalog.New(cfg.ToCatalogEntries())
	tracker := cost.New(cat)

	breaker, err := budget.New(cfg.ToBudgetConfig(), time.Now(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("constructing budget breaker: %w", err)
	}

	gw, err := gateway.New(cfg.ToGatewayConfig(), reg, cat, tracker, breaker, metrics, logger, time.Now)
	if err != nil {
		return nil, nil, fmt.Errorf("constructing gateway: %w", err)
	}

	return gw, reg, nil
}

// buildDriver constructs the one driver matching name out of a
// ProviderConfig's reachability fields. Providers not in this set
// (anything outside the five the gateway ships drivers for) are rejected
// with an error rather than silently ignored, so a config typo surfaces
// immediately.
func buildDriver(name string, p config.ProviderConfig) (llm.Provider, error) {
	switch name {
	case "azure":
		return azure.New(p.Endpoint, p.APIKey, "")
	case "aws":
		accessKeyID, secretAccessKey, err := splitBedrockCredential(p.APIKey)
		if err != nil {
			return nil, err
		}
		return bedrock.New(bedrock.Config{
			Region:          p.Region,
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		})
	case "ollama":
		return ollama.New(p.Endpoint)
	case "vllm":
		return vllm.New(p.Endpoint, p.APIKey)
	case "gcp":
		return vertex.New(vertex.Config{
			ProjectID:   p.ProjectID,
			Location:    p.Region,
			BearerToken: p.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q (must be one of azure, aws, gcp, ollama, vllm)", name)
	}
}

// splitBedrockCredential unpacks the aws provider's api_key into the access key ID and
// secret access key pair bedrockruntime.Client needs. The config schema
// carries one api_key string per provider; Bedrock is the one driver whose
// SDK requires two secrets, so its api_key value is "accessKeyID:secretAccessKey".
func splitBedrockCredential(apiKey string) (accessKeyID, secretAccessKey string, err error) {
	id, secret, ok := strings.Cut(apiKey, ":")
	if !ok || id == "" || secret == "" {
		return "", "", fmt.Errorf("bedrock api_key must be \"accessKeyID:secretAccessKey\"")
	}
	return id, secret, nil
}
