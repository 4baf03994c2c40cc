package cli

import (
	"fmt"

	"github.com/emu-next/devio/commands"
	"github.com/spf13/cobra"
)

var toolsNoFetch bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Manage device helper binaries",
	Long:  `Download and install the helper binaries (maatouch, minitouch, ascap) that back the capture and input strategies.`,
}

var toolsInstallCmd = &cobra.Command{
	Use:   "install [helper...]",
	Short: "Install helper binaries on a device",
	Long: `Downloads the latest release of each named helper into the tools
directory and pushes it to the device. With no arguments all helpers are
installed. Use --no-fetch to push existing local copies without
downloading.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.InstallToolsRequest{
			DeviceID: deviceId,
			Names:    args,
			NoFetch:  toolsNoFetch,
		}

		response := commands.InstallToolsCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	// add tools subcommands
	toolsCmd.AddCommand(toolsInstallCmd)

	// tools command flags
	toolsInstallCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to install helpers on")
	toolsInstallCmd.Flags().BoolVar(&toolsNoFetch, "no-fetch", false, "push local copies without downloading releases")
}
