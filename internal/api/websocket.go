package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/media-verifier/backend/internal/scan"
)

// WebSocket message types for the scan event stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeSnapshot  = "snapshot"
	MsgTypePong      = "pong"
)

// WSMessage is the envelope for every frame on the scan stream
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams scan lifecycle events to connected pages. The
// stream is push-only apart from keepalive pings; all mutations go through
// the REST surface.
type WebSocketHandler struct {
	scans    ScanController
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new scan event stream handler
func NewWebSocketHandler(scans ScanController) *WebSocketHandler {
	return &WebSocketHandler{
		scans: scans,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleWebSocket upgrades the connection and streams scan events until the
// client disconnects. A client that connects mid-scan first receives the
// current snapshot and the accumulated console lines, then live events.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	fmt.Println("[WebSocket] Client connected for scan stream")

	// Subscribe before the greeting so a scan started right after the client
	// sees it cannot slip an event past us.
	events, cancel := wsh.scans.Subscribe()
	defer cancel()

	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeConnected,
		Timestamp: time.Now().UnixMilli(),
	})

	replayedID, lastSeq := wsh.replayCurrent(ws)

	// Reader goroutine: answers pings and signals when the client goes away.
	done := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("[WebSocket] Connection error: %v\n", err)
				}
				return
			}
			if msg.Type == MsgTypePing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-done:
			fmt.Println("[WebSocket] Client disconnected")
			return nil
		case <-pings:
			wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		case ev, ok := <-events:
			if !ok {
				// Dropped by the manager for not draining fast enough.
				fmt.Println("[WebSocket] Event stream closed, disconnecting client")
				return nil
			}
			// Lines already delivered in the backlog replay are skipped.
			if ev.Type == scan.EventLog && ev.Line != nil && ev.ScanID == replayedID && ev.Line.Seq <= lastSeq {
				continue
			}
			wsh.sendMessage(ws, WSMessage{
				Type:      string(ev.Type),
				Payload:   mustJSON(ev),
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

// replayCurrent sends the active scan snapshot and its console backlog so a
// late-joining page can render the full state. It returns the replayed scan
// ID and the highest line sequence sent, for duplicate suppression.
func (wsh *WebSocketHandler) replayCurrent(ws *websocket.Conn) (string, int) {
	snap := wsh.scans.Current()
	if snap == nil {
		return "", -1
	}

	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeSnapshot,
		Payload:   mustJSON(snap),
		Timestamp: time.Now().UnixMilli(),
	})

	lastSeq := -1
	console, ok := wsh.scans.Console(snap.ID)
	if !ok {
		return snap.ID, lastSeq
	}
	for _, line := range console.Lines() {
		line := line
		lastSeq = line.Seq
		wsh.sendMessage(ws, WSMessage{
			Type:      string(scan.EventLog),
			Payload:   mustJSON(scan.Event{Type: scan.EventLog, ScanID: snap.ID, Line: &line}),
			Timestamp: time.Now().UnixMilli(),
		})
	}
	return snap.ID, lastSeq
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
