package cli

import (
	"fmt"

	"github.com/emu-next/devio/commands"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run system diagnostics",
	Long:  `Performs system diagnostics for better troubleshooting. With --device, also connects and probes every capture and input backend on that device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.DoctorCommand(GetVersion(), deviceId)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	// doctor command flags
	doctorCmd.Flags().StringVar(&deviceId, "device", "", "ID of a device to probe backends on")
}
