package wiring

import (
	"testing"

	"github.com/GEJFY/llmgateway/internal/config"
	"github.com/GEJFY/llmgateway/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestBuild_RegistersConstructibleProviders(t *testing.T) {
	cfg := config.Defaults()
	cfg.Router.Mode = "cloud"
	cfg.Router.FallbackChain = []string{"ollama", "aws"}
	cfg.Providers = map[string]config.ProviderConfig{
		"ollama": {
			Endpoint:           "http://localhost:11434",
			SOTAModel:          "llama3.1:70b",
			CostEffectiveModel: "qwen2.5:32b",
		},
		// aws is missing its api_key pair, so it should be skipped
		// rather than aborting the whole build.
		"aws": {
			Region:             "us-east-1",
			SOTAModel:          "anthropic.claude-3-5-sonnet-20240620-v1:0",
			CostEffectiveModel: "anthropic.claude-3-haiku-20240307-v1:0",
		},
	}
	require.NoError(t, cfg.Validate())

	log := logger.Must(true)
	gw, reg, err := Build(cfg, nil, log)
	require.NoError(t, err)
	require.NotNil(t, gw)

	available := reg.Available()
	require.Contains(t, available, "ollama")
	require.NotContains(t, available, "aws")
}

func TestBuild_UnknownProviderNameIsSkippedNotFatal(t *testing.T) {
	cfg := config.Defaults()
	cfg.Providers = map[string]config.ProviderConfig{
		"not-a-real-provider": {SOTAModel: "whatever"},
	}
	require.NoError(t, cfg.Validate())

	log := logger.Must(true)
	gw, reg, err := Build(cfg, nil, log)
	require.NoError(t, err)
	require.NotNil(t, gw)
	require.Empty(t, reg.Available())
}

func TestBuild_BedrockCredentialSplitting(t *testing.T) {
	cfg := config.Defaults()
	cfg.Router.FallbackChain = []string{"aws"}
	cfg.Providers = map[string]config.ProviderConfig{
		"aws": {
			Region:             "us-east-1",
			APIKey:             "AKIAEXAMPLE:supersecret",
			SOTAModel:          "anthropic.claude-3-5-sonnet-20240620-v1:0",
			CostEffectiveModel: "anthropic.claude-3-haiku-20240307-v1:0",
		},
	}
	require.NoError(t, cfg.Validate())

	log := logger.Must(true)
	_, reg, err := Build(cfg, nil, log)
	require.NoError(t, err)
	require.Contains(t, reg.Available(), "aws")
}

func TestSplitBedrockCredential(t *testing.T) {
	id, secret, err := splitBedrockCredential("AKIAEXAMPLE:supersecret")
	require.NoError(t, err)
	require.Equal(t, "AKIAEXAMPLE", id)
	require.Equal(t, "supersecret", secret)

	_, _, err = splitBedrockCredential("missing-colon")
	require.Error(t, err)

	_, _, err = splitBedrockCredential("")
	require.Error(t, err)
}
