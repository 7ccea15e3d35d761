// Package config loads and validates the gateway's configuration
// (spec.md §6). Grounded on the teacher's viper-based Load/Defaults/Validate
// trio: same mapstructure tags, same "${ENV_VAR}" expansion pass over every
// loaded key, same core.WrapError(core.ErrConfigInvalid, ...) idiom. Fields
// cover every key in spec.md §6's configuration table; component-specific
// validation is delegated to the owning package's own Config.Validate
// rather than duplicated here.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/GEJFY/llmgateway/internal/budget"
	"github.com/GEJFY/llmgateway/internal/catalog"
	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/GEJFY/llmgateway/internal/gateway"
	"github.com/spf13/viper"
)

// Config is the top-level configuration document.
type Config struct {
	Router    RouterConfig              `mapstructure:"router"`
	Budget    BudgetConfig              `mapstructure:"budget"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	LogLevel  string                    `mapstructure:"log_level"`
}

// RouterConfig holds the chain-selection policy (spec.md §6: default_provider,
// fallback_chain, mode, hybrid_rules).
type RouterConfig struct {
	DefaultProvider string             `mapstructure:"default_provider"`
	FallbackChain   []string           `mapstructure:"fallback_chain"`
	LocalChain      []string           `mapstructure:"local_chain"`
	Mode            string             `mapstructure:"mode"`
	HybridRules     []HybridRuleConfig `mapstructure:"hybrid_rules"`
}

// HybridRuleConfig is one row of the hybrid routing table.
type HybridRuleConfig struct {
	Classification string `mapstructure:"classification"`
	Provider       string `mapstructure:"provider"`
}

// BudgetConfig holds the breaker's thresholds (spec.md §6: monthly_limit_usd,
// alert_threshold, breaker_threshold).
type BudgetConfig struct {
	MonthlyLimitUSD  float64 `mapstructure:"monthly_limit_usd"`
	AlertThreshold   float64 `mapstructure:"alert_threshold"`
	BreakerThreshold float64 `mapstructure:"breaker_threshold"`
}

// ProviderConfig holds one backend's reachability and tier settings
// (spec.md §6: <provider>_endpoint/_api_key/_region/_project_id,
// <provider>_sota_model/_cost_effective_model).
type ProviderConfig struct {
	Endpoint           string `mapstructure:"endpoint"`
	APIKey             string `mapstructure:"api_key"`
	Region             string `mapstructure:"region"`
	ProjectID          string `mapstructure:"project_id"`
	SOTAModel          string `mapstructure:"sota_model"`
	CostEffectiveModel string `mapstructure:"cost_effective_model"`
}

// MetricsConfig controls the Prometheus exposition.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from a YAML file, applies environment variable
// overrides, and expands "${VAR}"-shaped string values against the process
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Defaults returns a config with sensible defaults for local/dev use.
func Defaults() *Config {
	return &Config{
		Router: RouterConfig{
			Mode: "cloud",
		},
		Budget: BudgetConfig{
			MonthlyLimitUSD:  100,
			AlertThreshold:   0.8,
			BreakerThreshold: 0.95,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for errors, delegating threshold and
// routing-policy checks to the owning components' own Validate methods so
// the rules live in exactly one place.
func (c *Config) Validate() error {
	if err := c.ToBudgetConfig().Validate(); err != nil {
		return err
	}
	if err := c.ToGatewayConfig().Validate(); err != nil {
		return err
	}
	for name, p := range c.Providers {
		if p.SOTAModel == "" && p.CostEffectiveModel == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("provider %q must publish at least one of sota_model/cost_effective_model", name))
		}
	}
	return nil
}

// ToBudgetConfig converts the loaded thresholds into budget.Config.
func (c *Config) ToBudgetConfig() budget.Config {
	return budget.Config{
		MonthlyLimitUSD:  c.Budget.MonthlyLimitUSD,
		AlertThreshold:   c.Budget.AlertThreshold,
		BreakerThreshold: c.Budget.BreakerThreshold,
	}
}

// ToGatewayConfig converts the loaded routing policy into gateway.Config.
func (c *Config) ToGatewayConfig() gateway.Config {
	rules := make([]gateway.HybridRule, 0, len(c.Router.HybridRules))
	for _, r := range c.Router.HybridRules {
		rules = append(rules, gateway.HybridRule{
			Classification: core.Classification(r.Classification),
			Provider:       r.Provider,
		})
	}
	return gateway.Config{
		DefaultProvider: c.Router.DefaultProvider,
		FallbackChain:   c.Router.FallbackChain,
		LocalChain:      c.Router.LocalChain,
		Mode:            gateway.Mode(c.Router.Mode),
		HybridRules:     rules,
	}
}

// ToCatalogEntries builds the model tier catalog's entry list from every
// configured provider's published tier model names.
func (c *Config) ToCatalogEntries() []catalog.Entry {
	names := make(map[string]catalog.ModelNames, len(c.Providers))
	for name, p := range c.Providers {
		names[name] = catalog.ModelNames{SOTAModel: p.SOTAModel, CostEffectiveModel: p.CostEffectiveModel}
	}
	return catalog.BuildEntries(names)
}
