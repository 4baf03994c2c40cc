package cli

import (
	"fmt"

	"github.com/emu-next/devio/commands"
	"github.com/spf13/cobra"
)

var reportReason string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Failure report operations",
	Long:  `Dump and list failure reports: recent frames and operation history captured around device failures.`,
}

var reportDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write a failure report for a device",
	Long:  `Writes the device's recent frames and operation history into the report directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.ReportRequest{
			DeviceID: deviceId,
			Reason:   reportReason,
		}

		response := commands.DumpReportCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved failure reports",
	Long:  `Lists the failure reports saved in the report directory, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.ListReportsCommand()
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// add report subcommands
	reportCmd.AddCommand(reportDumpCmd)
	reportCmd.AddCommand(reportListCmd)

	// report command flags
	reportDumpCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to dump a report for")
	reportDumpCmd.Flags().StringVar(&reportReason, "reason", "", "reason recorded in the report")
}
