package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/emu-next/devio/commands"
	"github.com/spf13/cobra"
)

var ioCmd = &cobra.Command{
	Use:   "io",
	Short: "Input/output operations with devices",
	Long:  `Perform input/output operations like tapping, swiping, pressing buttons, and sending text to devices.`,
}

// parseCoords splits a "x,y,..." string into the expected number of
// integers.
func parseCoords(s string, want int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d comma-separated values, got '%s'", want, s)
	}
	values := make([]int, want)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate value '%s', must be an integer", part)
		}
		values[i] = v
	}
	return values, nil
}

var ioTapCmd = &cobra.Command{
	Use:   "tap [x,y]",
	Short: "Tap on a device screen at the given coordinates",
	Long:  `Sends a tap event to the specified device at the given x,y coordinates. Coordinates should be provided as a single string "x,y".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoords(args[0], 2)
		if err != nil {
			response := commands.NewErrorResponse(err)
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		req := commands.TapRequest{
			DeviceID: deviceId,
			X:        coords[0],
			Y:        coords[1],
		}

		response := commands.TapCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var ioLongPressCmd = &cobra.Command{
	Use:   "longpress [x,y]",
	Short: "Long press on a device screen at the given coordinates",
	Long:  `Sends a long press event to the specified device at the given x,y coordinates. Coordinates should be provided as a single string "x,y".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoords(args[0], 2)
		if err != nil {
			response := commands.NewErrorResponse(err)
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		req := commands.LongPressRequest{
			DeviceID:   deviceId,
			X:          coords[0],
			Y:          coords[1],
			DurationMS: longPressDurationMs,
		}

		response := commands.LongPressCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var ioSwipeCmd = &cobra.Command{
	Use:   "swipe [x1,y1,x2,y2]",
	Short: "Swipe on a device screen from one point to another",
	Long:  `Sends a swipe gesture to the specified device from coordinates x1,y1 to x2,y2. Coordinates should be provided as a single string "x1,y1,x2,y2".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoords(args[0], 4)
		if err != nil {
			response := commands.NewErrorResponse(err)
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		req := commands.SwipeRequest{
			DeviceID:   deviceId,
			X1:         coords[0],
			Y1:         coords[1],
			X2:         coords[2],
			Y2:         coords[3],
			DurationMS: swipeDurationMs,
		}

		response := commands.SwipeCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var ioButtonCmd = &cobra.Command{
	Use:   "button [button_name]",
	Short: "Press a hardware button on a device",
	Long:  `Sends a hardware button press event to the specified device (e.g., "HOME", "BACK", "VOLUME_UP", "VOLUME_DOWN", "POWER"). Button names are case-insensitive.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.ButtonRequest{
			DeviceID: deviceId,
			Button:   args[0],
		}

		response := commands.ButtonCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var ioTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Send text input to a device",
	Long:  `Sends text input to the currently focused element on the specified device.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.TextRequest{
			DeviceID: deviceId,
			Text:     args[0],
		}

		response := commands.TextCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

var ioGestureCmd = &cobra.Command{
	Use:   "gesture [file]",
	Short: "Send a multi-step gesture to a device",
	Long: `Sends a gesture described as a JSON array of actions, read from a file
or from stdin when the argument is '-'. Each action is an object like
{"type": "down", "x": 100, "y": 200}, {"type": "move", ...},
{"type": "wait", "ms": 50} or {"type": "up"}.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			response := commands.NewErrorResponse(fmt.Errorf("failed to read gesture: %v", err))
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		var actions []commands.GestureAction
		if err := json.Unmarshal(data, &actions); err != nil {
			response := commands.NewErrorResponse(fmt.Errorf("invalid gesture JSON: %v", err))
			printJson(response)
			return fmt.Errorf("%s", response.Error)
		}

		req := commands.GestureRequest{
			DeviceID: deviceId,
			Name:     gestureName,
			Actions:  actions,
		}

		response := commands.GestureCommand(req)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ioCmd)

	// add io subcommands
	ioCmd.AddCommand(ioTapCmd)
	ioCmd.AddCommand(ioLongPressCmd)
	ioCmd.AddCommand(ioSwipeCmd)
	ioCmd.AddCommand(ioButtonCmd)
	ioCmd.AddCommand(ioTextCmd)
	ioCmd.AddCommand(ioGestureCmd)

	// io command flags
	ioTapCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to tap on")
	ioLongPressCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to long press on")
	ioLongPressCmd.Flags().IntVar(&longPressDurationMs, "duration", 0, "press duration in milliseconds (default 1000)")
	ioSwipeCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to swipe on")
	ioSwipeCmd.Flags().IntVar(&swipeDurationMs, "duration", 0, "swipe duration in milliseconds (default from config)")
	ioButtonCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to press button on")
	ioTextCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to send keys to")
	ioGestureCmd.Flags().StringVar(&deviceId, "device", "", "ID of the device to send the gesture to")
	ioGestureCmd.Flags().StringVar(&gestureName, "name", "", "gesture name for loop detection and reports")
}
