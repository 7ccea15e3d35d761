package main

import (
	"context"
	"fmt"

	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/spf13/cobra"
)

var (
	streamProvider string
	streamModel    string
	streamTier     string
)

var streamCmd = &cobra.Command{
	Use:   "stream [prompt]",
	Short: "Run a streamed completion through the gateway, printing deltas as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE:  runStream,
}

func init() {
	streamCmd.Flags().StringVar(&streamProvider, "provider", "", "force a single provider, disabling fallback")
	streamCmd.Flags().StringVar(&streamModel, "model", "", "concrete backend model id, bypasses tier resolution")
	streamCmd.Flags().StringVar(&streamTier, "tier", "", "sota or cost_effective")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	gw, _, log, err := buildGateway()
	if err != nil {
		return err
	}
	defer log.Sync()

	req := core.CompletionRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: args[0]}},
		Model:    streamModel,
		Tier:     core.Tier(streamTier),
		Provider: streamProvider,
	}

	ctx := context.Background()
	ch, err := gw.Stream(ctx, req)
	if err != nil {
		return fmt.Errorf("stream failed: %w", err)
	}

	for chunk := range ch {
		fmt.Print(chunk.Delta)
		if chunk.Usage != nil {
			fmt.Printf("\n\n[provider=%s model=%s tokens=%d/%d finish=%s]\n",
				chunk.Provider, chunk.Model, chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens, chunk.FinishReason)
		}
	}
	return nil
}
