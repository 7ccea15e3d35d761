package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
router:
  default_provider: azure
  fallback_chain: ["azure", "aws"]
  mode: cloud

budget:
  monthly_limit_usd: 500
  alert_threshold: 0.8
  breaker_threshold: 0.95

providers:
  azure:
    endpoint: "https://example.openai.azure.com"
    api_key: "secret"
    sota_model: "gpt-4o"
    cost_effective_model: "gpt-4o-mini"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Router.DefaultProvider != "azure" {
		t.Errorf("expected default_provider azure, got %s", cfg.Router.DefaultProvider)
	}
	if len(cfg.Router.FallbackChain) != 2 {
		t.Errorf("expected 2-entry fallback chain, got %v", cfg.Router.FallbackChain)
	}
	if cfg.Budget.MonthlyLimitUSD != 500 {
		t.Errorf("expected monthly_limit_usd 500, got %v", cfg.Budget.MonthlyLimitUSD)
	}
	if cfg.Providers["azure"].SOTAModel != "gpt-4o" {
		t.Errorf("expected azure sota_model gpt-4o, got %s", cfg.Providers["azure"].SOTAModel)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Budget.MonthlyLimitUSD != 100 {
		t.Errorf("expected default monthly_limit_usd 100, got %v", cfg.Budget.MonthlyLimitUSD)
	}
	if cfg.Router.Mode != "cloud" {
		t.Errorf("expected default mode cloud, got %s", cfg.Router.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate cleanly: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Budget: BudgetConfig{MonthlyLimitUSD: 100, AlertThreshold: 0.8, BreakerThreshold: 0.95},
				Router: RouterConfig{Mode: "cloud"},
			},
			wantErr: false,
		},
		{
			name: "invalid budget - zero limit",
			cfg: Config{
				Budget: BudgetConfig{MonthlyLimitUSD: 0, AlertThreshold: 0.8, BreakerThreshold: 0.95},
			},
			wantErr: true,
		},
		{
			name: "invalid mode",
			cfg: Config{
				Budget: BudgetConfig{MonthlyLimitUSD: 100, AlertThreshold: 0.8, BreakerThreshold: 0.95},
				Router: RouterConfig{Mode: "nonsense"},
			},
			wantErr: true,
		},
		{
			name: "hybrid mode requires rules",
			cfg: Config{
				Budget: BudgetConfig{MonthlyLimitUSD: 100, AlertThreshold: 0.8, BreakerThreshold: 0.95},
				Router: RouterConfig{Mode: "hybrid"},
			},
			wantErr: true,
		},
		{
			name: "provider with no published tier models",
			cfg: Config{
				Budget:    BudgetConfig{MonthlyLimitUSD: 100, AlertThreshold: 0.8, BreakerThreshold: 0.95},
				Router:    RouterConfig{Mode: "cloud"},
				Providers: map[string]ProviderConfig{"azure": {Endpoint: "https://x"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ToCatalogEntries(t *testing.T) {
	cfg := Config{
		Providers: map[string]ProviderConfig{
			"azure": {SOTAModel: "gpt-4o", CostEffectiveModel: "gpt-4o-mini"},
		},
	}
	entries := cfg.ToCatalogEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
