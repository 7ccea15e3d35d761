package main

import (
	"context"
	"fmt"
	"time"

	"github.com/GEJFY/llmgateway/internal/core"
	"github.com/spf13/cobra"
)

var (
	completeProvider string
	completeModel    string
	completeTier     string
	completeSystem   string
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Run a single completion through the gateway",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func init() {
	completeCmd.Flags().StringVar(&completeProvider, "provider", "", "force a single provider, disabling fallback")
	completeCmd.Flags().StringVar(&completeModel, "model", "", "concrete backend model id, bypasses tier resolution")
	completeCmd.Flags().StringVar(&completeTier, "tier", "", "sota or cost_effective")
	completeCmd.Flags().StringVar(&completeSystem, "system", "", "optional system prompt")
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	gw, _, log, err := buildGateway()
	if err != nil {
		return err
	}
	defer log.Sync()

	messages := make([]core.Message, 0, 2)
	if completeSystem != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: completeSystem})
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: args[0]})

	req := core.CompletionRequest{
		Messages: messages,
		Model:    completeModel,
		Tier:     core.Tier(completeTier),
		Provider: completeProvider,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := gw.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}

	fmt.Println(resp.Content)
	fmt.Printf("\n[provider=%s model=%s tokens=%d/%d cost=$%.6f finish=%s]\n",
		resp.Provider, resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens,
		resp.CostUSD, resp.FinishReason)
	return nil
}
