package cli

import (
	"fmt"

	"github.com/emu-next/devio/commands"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Long:  `List all connected Android devices and emulators, including configured AVDs that are not running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.DevicesCommand(showAllDevices)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	// devices command flags
	devicesCmd.Flags().BoolVar(&showAllDevices, "all", false, "show all devices including offline ones")
}
