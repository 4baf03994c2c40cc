package cli

import (
	"fmt"

	"github.com/emu-next/devio/commands"
	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Device management commands",
	Long:  `Commands for inspecting individual devices.`,
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Get device info",
	Long:  `Get detailed information about a connected device: identity, screen size, orientation, and the resolved capture and input backends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.InfoCommand(deviceId)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)

	// add device subcommands
	deviceCmd.AddCommand(deviceInfoCmd)

	// device command flags
	deviceInfoCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to get info from")
}
