package cli

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/emu-next/devio/commands"
	"github.com/emu-next/devio/devices"
	"github.com/emu-next/devio/utils"
	"github.com/spf13/cobra"
)

const version = "dev"

// GetVersion returns the build version string.
func GetVersion() string {
	return version
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "devio",
	Short: "Screen capture and input injection for Android devices and emulators",
	Long:  `A device I/O tool for Android emulator farms: screenshots, touch injection, and app control over adb and emulator-native transports.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func initConfig() {
	utils.SetVerbose(verbose)

	profile, err := devices.LoadProfile(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	commands.SetProfile(profile)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default devio.ini if present)")
}

// Execute runs the root command
func Execute() error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}
