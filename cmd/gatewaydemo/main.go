package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "gatewaydemo",
	Short: "gatewaydemo - multi-cloud AI provider gateway",
	Long: `gatewaydemo routes chat completions across Azure OpenAI, AWS Bedrock,
GCP Vertex AI, Ollama, and vLLM behind one uniform driver contract, with
automatic fallback and a monthly spend circuit breaker.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
