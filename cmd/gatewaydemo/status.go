package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show budget state, registered providers, and a live health check",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	gw, _, log, err := buildGateway()
	if err != nil {
		return err
	}
	defer log.Sync()

	snap := gw.BudgetState()
	fmt.Println("=== Budget ===")
	fmt.Printf("State:      %s\n", snap.Circuit)
	fmt.Printf("Month:      %s\n", snap.MonthKey)
	fmt.Printf("Spend:      $%.2f / $%.2f\n", snap.SpendUSD, snap.MonthlyLimitUSD)

	fmt.Println("\n=== Providers ===")
	for _, name := range gw.ProvidersStatus() {
		fmt.Printf("- %s\n", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("\n=== Health ===")
	for name, state := range gw.HealthCheckAll(ctx) {
		fmt.Printf("- %s: %s\n", name, state)
	}

	return nil
}
