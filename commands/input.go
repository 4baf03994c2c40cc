package commands

import (
	"fmt"
	"time"

	"github.com/emu-next/devio/devices/touch"
	"github.com/emu-next/devio/types"
)

// TapRequest represents the parameters for a tap command
type TapRequest struct {
	DeviceID string `json:"deviceId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// LongPressRequest represents the parameters for a long press command
type LongPressRequest struct {
	DeviceID   string `json:"deviceId"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	DurationMS int    `json:"duration,omitempty"`
}

// SwipeRequest represents the parameters for a swipe command
type SwipeRequest struct {
	DeviceID   string `json:"deviceId"`
	X1         int    `json:"x1"`
	Y1         int    `json:"y1"`
	X2         int    `json:"x2"`
	Y2         int    `json:"y2"`
	DurationMS int    `json:"duration,omitempty"`
}

// TextRequest represents the parameters for a text input command
type TextRequest struct {
	DeviceID string `json:"deviceId"`
	Text     string `json:"text"`
}

// ButtonRequest represents the parameters for a button press command
type ButtonRequest struct {
	DeviceID string `json:"deviceId"`
	Button   string `json:"button"`
}

// GestureAction is one step of a raw gesture stream.
type GestureAction struct {
	Type string `json:"type"` // "down", "move", "up", "wait"
	X    int    `json:"x,omitempty"`
	Y    int    `json:"y,omitempty"`
	MS   int    `json:"ms,omitempty"`
}

// GestureRequest represents the parameters for a gesture command
type GestureRequest struct {
	DeviceID string          `json:"deviceId"`
	Name     string          `json:"name,omitempty"`
	Actions  []GestureAction `json:"actions"`
}

// TapCommand performs a tap operation on the specified device
func TapCommand(req TapRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	err = session.Tap(types.Point{X: req.X, Y: req.Y}, "")
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to tap on device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Tapped on device %s at (%d,%d)", session.Serial(), req.X, req.Y),
	})
}

// LongPressCommand performs a long press operation on the specified device
func LongPressCommand(req LongPressRequest) *CommandResponse {
	if req.X < 0 || req.Y < 0 {
		return NewErrorResponse(fmt.Errorf("x and y coordinates must be non-negative, got x=%d, y=%d", req.X, req.Y))
	}

	hold := time.Duration(req.DurationMS) * time.Millisecond
	if hold <= 0 {
		hold = time.Second
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	err = session.LongPress(types.Point{X: req.X, Y: req.Y}, hold, "")
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to long press on device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Long pressed on device %s at (%d,%d)", session.Serial(), req.X, req.Y),
	})
}

// SwipeCommand performs a swipe operation on the specified device
func SwipeCommand(req SwipeRequest) *CommandResponse {
	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	duration := time.Duration(req.DurationMS) * time.Millisecond
	err = session.Swipe(
		types.Point{X: req.X1, Y: req.Y1},
		types.Point{X: req.X2, Y: req.Y2},
		duration, "")
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to swipe on device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Swiped on device %s from (%d,%d) to (%d,%d)", session.Serial(), req.X1, req.Y1, req.X2, req.Y2),
	})
}

// TextCommand sends text input to the specified device
func TextCommand(req TextRequest) *CommandResponse {
	if req.Text == "" {
		return NewErrorResponse(fmt.Errorf("text is required"))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	err = session.TypeText(req.Text)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to send text to device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Sent text to device %s", session.Serial()),
	})
}

// ButtonCommand presses a hardware button on the specified device
func ButtonCommand(req ButtonRequest) *CommandResponse {
	if req.Button == "" {
		return NewErrorResponse(fmt.Errorf("button name is required"))
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	err = session.PressButton(req.Button)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to press button on device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Pressed button '%s' on device %s", req.Button, session.Serial()),
	})
}

// buildGesture turns a raw action stream into a gesture. Each down
// and move is committed so the stream replays with the caller's
// pacing.
func buildGesture(name string, actions []GestureAction) (*touch.Gesture, error) {
	b := touch.NewBuilder().Name(name)
	for i, action := range actions {
		switch action.Type {
		case "down":
			b.Down(0, types.Point{X: action.X, Y: action.Y}, touch.DefaultPressure).Commit()
		case "move":
			b.Move(0, types.Point{X: action.X, Y: action.Y}, touch.DefaultPressure).Commit()
		case "up":
			b.Up(0).Commit()
		case "wait":
			b.Wait(action.MS)
		default:
			return nil, fmt.Errorf("unknown action type %q at index %d", action.Type, i)
		}
	}
	if b.Empty() {
		return nil, fmt.Errorf("actions produced an empty gesture")
	}
	return b.Gesture(), nil
}

// GestureCommand performs a raw gesture stream on the specified device
func GestureCommand(req GestureRequest) *CommandResponse {
	if len(req.Actions) == 0 {
		return NewErrorResponse(fmt.Errorf("actions array is required and cannot be empty"))
	}

	gesture, err := buildGesture(req.Name, req.Actions)
	if err != nil {
		return NewErrorResponse(err)
	}

	session, err := AcquireSession(req.DeviceID)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error finding device: %v", err))
	}

	err = session.Inject(gesture)
	if err != nil {
		return NewErrorResponse(fmt.Errorf("failed to perform gesture on device %s: %v", session.Serial(), err))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Performed gesture on device %s with %d actions", session.Serial(), len(req.Actions)),
	})
}
