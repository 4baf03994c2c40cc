package server

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/emu-next/devio/commands"
	"github.com/emu-next/devio/utils"
)

const (
	errTitleParseError = "Parse error"
	errTitleInvalidReq = "Invalid Request"

	errMsgParseError     = "expecting jsonrpc payload"
	errMsgInvalidJSONRPC = "'jsonrpc' must be '2.0'"
	errMsgIDRequired     = "'id' field is required"
	errMsgMethodRequired = "'method' is required"
	errMsgTextOnly       = "only text messages accepted for requests"
)

// rpcError carries a JSON-RPC validation failure.
type rpcError struct {
	code    int
	message string
	data    string
}

type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	capturing bool
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

// NewWebSocketHandler returns the handler for the /ws endpoint.
func NewWebSocketHandler(enableCORS bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, enableCORS)
	})
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, enableCORS bool) {
	conn, err := newUpgrader(enableCORS).Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{conn: conn}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("WebSocket connection closed: %v", err)
			break
		}

		if messageType != websocket.TextMessage {
			wsConn.sendError(nil, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgTextOnly)
			continue
		}

		handleWSMessage(wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

func validateJSONRPCRequest(req JSONRPCRequest) *rpcError {
	if req.JSONRPC != "2.0" {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC}
	}

	if req.ID == nil {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired}
	}

	if req.Method == "" {
		return &rpcError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired}
	}

	return nil
}

func handleWSMessage(wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		wsConn.sendError(nil, ErrCodeParseError, errTitleParseError, errMsgParseError)
		return
	}

	if rpcErr := validateJSONRPCRequest(req); rpcErr != nil {
		wsConn.sendError(req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	utils.Info("WebSocket Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	// screencapture streams binary frames, everything else is
	// request/response through the registry
	if req.Method == "screencapture" {
		handleWSScreenCapture(wsConn, req)
		return
	}

	handleWSMethodCall(wsConn, req)
}

func handleWSMethodCall(wsConn *wsConnection, req JSONRPCRequest) {
	registry := GetMethodRegistry()
	handler, exists := registry[req.Method]
	if !exists {
		wsConn.sendError(req.ID, ErrCodeMethodNotFound, "Method not found", req.Method+" not found")
		return
	}

	result, err := handler(req.Params)
	if err != nil {
		log.Printf("Error executing method %s: %v", req.Method, err)
		wsConn.sendError(req.ID, ErrCodeServerError, "Server error", err.Error())
		return
	}

	wsConn.sendResponse(req.ID, result)
}

// handleWSScreenCapture acknowledges the request, then streams JPEG
// frames as binary messages until the capture fails or the connection
// goes away. Other methods remain usable on the same connection while
// the stream runs.
func handleWSScreenCapture(wsConn *wsConnection, req JSONRPCRequest) {
	var captureReq commands.ScreenCaptureRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &captureReq); err != nil {
			wsConn.sendError(req.ID, ErrCodeInvalidParams, "Invalid params", err.Error())
			return
		}
	}

	if captureReq.Format == "" {
		captureReq.Format = "mjpeg"
	}
	if captureReq.Format != "mjpeg" {
		wsConn.sendError(req.ID, ErrCodeInvalidParams, "Invalid params", "format must be 'mjpeg' for screen capture")
		return
	}

	if !wsConn.startCapture() {
		wsConn.sendError(req.ID, ErrCodeServerError, "Server error", "screen capture already streaming on this connection")
		return
	}

	// acknowledge before the first frame so the client can tell an
	// accepted stream apart from a rejected request
	if err := wsConn.sendResponse(req.ID, okResponse); err != nil {
		wsConn.stopCapture()
		return
	}

	quality := captureReq.Quality
	if quality == 0 {
		quality = commands.DefaultMJPEGQuality
	}
	scale := captureReq.Scale
	if scale == 0.0 {
		scale = commands.DefaultMJPEGScale
	}

	go func() {
		defer wsConn.stopCapture()

		for {
			frame, _, err := commands.CaptureFrame(captureReq.DeviceID, "jpeg", quality, scale)
			if err != nil {
				wsConn.sendError(req.ID, ErrCodeServerError, "Server error", err.Error())
				return
			}

			if err := wsConn.sendBinary(frame); err != nil {
				utils.Verbose("WebSocket capture stream closed: %v", err)
				return
			}
		}
	}()
}

func (wsc *wsConnection) startCapture() bool {
	wsc.mu.Lock()
	defer wsc.mu.Unlock()
	if wsc.capturing {
		return false
	}
	wsc.capturing = true
	return true
}

func (wsc *wsConnection) stopCapture() {
	wsc.mu.Lock()
	wsc.capturing = false
	wsc.mu.Unlock()
}

func (wsc *wsConnection) sendResponse(id interface{}, result interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendError(id interface{}, code int, message string, data interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(v)
}

func (wsc *wsConnection) sendBinary(data []byte) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteMessage(websocket.BinaryMessage, data)
}
