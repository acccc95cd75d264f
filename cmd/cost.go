package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgdnvk/spendwise/internal/cost"
	"github.com/bgdnvk/spendwise/internal/tools"
)

var (
	costDays    int
	costRegion  string
	costAccount string
	costFormat  string
	costOutput  string
)

func init() {
	rootCmd.AddCommand(costCmd)
	costCmd.AddCommand(costEC2Cmd)
	costCmd.AddCommand(costBreakdownCmd)

	costCmd.PersistentFlags().StringVar(&costRegion, "region", "", "AWS region for the Cost Explorer client (default: default_region)")
	costCmd.PersistentFlags().StringVar(&costAccount, "account", "", "Target AWS account id (default: current account)")
	costCmd.PersistentFlags().StringVar(&costFormat, "format", "table", "Output format: table, json")
	costCmd.PersistentFlags().StringVar(&costOutput, "output", "", "Also export tables to this file (.csv, .json, .yaml)")

	costBreakdownCmd.Flags().IntVar(&costDays, "days", 7, "Number of days to look back (1-90)")
}

// costCmd represents the cost command
var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "View AWS Cost Explorer spend",
	Long: `View spend directly from the AWS Cost Explorer API using your configured
credentials, or a delegated role in another account.

Examples:
  spendwise cost ec2                          # EC2 spend for the last day
  spendwise cost breakdown --days 3           # Region/service breakdown per day
  spendwise cost breakdown --account 123456789012
  spendwise cost breakdown --output costs.csv # Export to CSV`,
}

var costEC2Cmd = &cobra.Command{
	Use:   "ec2",
	Short: "Show EC2 spend for the last day by instance type",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		spend, err := svc.InstanceSpend(cmd.Context(), tools.SpendParams{Region: costRegion, AccountID: costAccount})
		if err != nil {
			return err
		}
		if err := printCost(spend, cost.RenderInstanceSpend(spend)); err != nil {
			return err
		}
		if costOutput != "" {
			return exportTables(spend.Tables(), costOutput)
		}
		return nil
	},
}

var costBreakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Show daily cost by region, service and instance type",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		b, err := svc.Breakdown(cmd.Context(), tools.SpendParams{Days: costDays, Region: costRegion, AccountID: costAccount})
		if err != nil {
			return err
		}
		if err := printCost(b, cost.RenderBreakdown(b)); err != nil {
			return err
		}
		if costOutput != "" {
			return exportTables(b.Tables(), costOutput)
		}
		return nil
	},
}

func printCost(data any, text string) error {
	if costFormat != "json" {
		fmt.Println(text)
		return nil
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
