package cli

var (
	verbose    bool
	configPath string

	// all commands
	deviceId string

	// for screenshot command
	screenshotOutputPath  string
	screenshotFormat      string
	screenshotJpegQuality int
	screenshotScale       float64

	// for screencapture command
	screencaptureFormat  string
	screencaptureQuality int
	screencaptureScale   float64

	// for io commands
	swipeDurationMs     int
	longPressDurationMs int
	gestureName         string

	// for devices command
	showAllDevices bool
)
