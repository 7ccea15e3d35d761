package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetBudgetCmd = &cobra.Command{
	Use:   "reset-budget",
	Short: "Zero month-to-date spend and close the budget circuit",
	RunE:  runResetBudget,
}

func init() {
	rootCmd.AddCommand(resetBudgetCmd)
}

func runResetBudget(cmd *cobra.Command, args []string) error {
	gw, _, log, err := buildGateway()
	if err != nil {
		return err
	}
	defer log.Sync()

	gw.ResetBudget()
	snap := gw.BudgetState()
	fmt.Printf("budget reset: state=%s spend=$%.2f\n", snap.Circuit, snap.SpendUSD)
	return nil
}
