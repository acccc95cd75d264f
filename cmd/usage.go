package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgdnvk/spendwise/internal/report"
	"github.com/bgdnvk/spendwise/internal/tools"
	"github.com/bgdnvk/spendwise/internal/usage"
)

var (
	usageDays     int
	usageRegion   string
	usageLogGroup string
	usageAccount  string
	usageHourly   bool
	usageOutput   string
	usageFormat   string
)

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageDailyCmd)
	usageCmd.AddCommand(usageHourlyCmd)
	usageCmd.AddCommand(usageExportCmd)

	usageCmd.PersistentFlags().IntVar(&usageDays, "days", tools.DefaultLogDays, "Number of days to look back (1-90)")
	usageCmd.PersistentFlags().StringVar(&usageRegion, "region", "", "AWS region to read logs from (default: default_region)")
	usageCmd.PersistentFlags().StringVar(&usageLogGroup, "log-group", "", "Bedrock invocation log group (default: bedrock_log_group_name)")
	usageCmd.PersistentFlags().StringVar(&usageAccount, "account", "", "Target AWS account id (default: current account)")

	usageExportCmd.Flags().BoolVar(&usageHourly, "hourly", false, "Export the hourly report instead of the daily one")
	usageExportCmd.Flags().StringVar(&usageOutput, "output", "", "Output file path; the extension picks the format")
	usageExportCmd.Flags().StringVar(&usageFormat, "format", report.FormatCSV, "Format when --output is not set: csv, json, yaml")
}

// usageCmd represents the usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Bedrock model invocation usage reports",
	Long: `Aggregate Bedrock model invocation logs from CloudWatch Logs by day, hour,
region, model and principal.

Examples:
  spendwise usage daily --days 7
  spendwise usage hourly --days 1 --region eu-west-1
  spendwise usage daily --account 123456789012
  spendwise usage export --output usage.csv
  spendwise usage export --hourly --format json`,
}

var usageDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show daily usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		fmt.Println(svc.DailyUsage(cmd.Context(), usageParams()))
		return nil
	},
}

var usageHourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Show hourly usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		fmt.Println(svc.HourlyUsage(cmd.Context(), usageParams()))
		return nil
	},
}

var usageExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export usage report tables to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		batch, p, err := svc.FetchUsage(cmd.Context(), usageParams())
		if err != nil {
			return err
		}

		build := usage.BuildDaily
		if usageHourly {
			build = usage.BuildHourly
		}
		r := build(batch.Records, p.Days, p.Region)
		if r.Empty() {
			fmt.Println(usage.NoDataMessage)
			return nil
		}
		output := usageOutput
		if output == "" {
			prefix := "bedrock-usage-daily"
			if usageHourly {
				prefix = "bedrock-usage-hourly"
			}
			output = report.NewExporter().GenerateFilename(prefix, usageFormat)
		}
		return exportTables(r.Tables(), output)
	},
}

func usageParams() tools.LogParams {
	return tools.LogParams{
		Days:      usageDays,
		Region:    usageRegion,
		LogGroup:  usageLogGroup,
		AccountID: usageAccount,
	}
}

func exportTables(tables []*report.Table, output string) error {
	exporter := report.NewExporter()
	if err := exporter.ExportToFile(tables, report.FormatFromPath(output), output); err != nil {
		return err
	}
	fmt.Printf("Exported %d tables to %s\n", len(tables), output)
	return nil
}
