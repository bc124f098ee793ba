package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/media-verifier/backend/internal/models"
	"github.com/media-verifier/backend/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readMessages collects frames from the socket until a navigate frame, a
// failed state frame, or the deadline.
func readMessages(t *testing.T, ws *websocket.Conn) []WSMessage {
	t.Helper()

	var msgs []WSMessage
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			t.Fatalf("reading frame: %v", err)
		}
		msgs = append(msgs, msg)

		switch msg.Type {
		case string(scan.EventNavigate):
			return msgs
		case string(scan.EventState):
			var ev scan.Event
			require.NoError(t, json.Unmarshal(msg.Payload, &ev))
			if ev.State == models.ScanStateFailed {
				return msgs
			}
		}
	}
}

func TestWebSocketScanStream(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{result: sampleResult()})

	env.e.GET("/api/ws/scans", env.handlers.Stream.HandleWebSocket)
	srv := httptest.NewServer(env.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/scans"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	// First frame is the connected greeting.
	var hello WSMessage
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, MsgTypeConnected, hello.Type)

	info, err := env.store.SaveBytes("photo.png", []byte("image bytes"))
	require.NoError(t, err)
	require.NoError(t, env.scans.Select(info))

	snap, err := env.scans.StartScan()
	require.NoError(t, err)

	msgs := readMessages(t, ws)

	// The stream ends with the navigate frame carrying the report path.
	last := msgs[len(msgs)-1]
	require.Equal(t, string(scan.EventNavigate), last.Type)
	var nav scan.Event
	require.NoError(t, json.Unmarshal(last.Payload, &nav))
	assert.Equal(t, snap.ID, nav.ScanID)
	assert.Equal(t, "/report?scan="+snap.ID, nav.ReportPath)

	// States arrive in order: step1, step2, step3, done.
	var states []models.ScanState
	var logLines []string
	for _, msg := range msgs {
		switch msg.Type {
		case string(scan.EventState):
			var ev scan.Event
			require.NoError(t, json.Unmarshal(msg.Payload, &ev))
			states = append(states, ev.State)
		case string(scan.EventLog):
			var ev scan.Event
			require.NoError(t, json.Unmarshal(msg.Payload, &ev))
			require.NotNil(t, ev.Line)
			logLines = append(logLines, ev.Line.Text)
		}
	}
	assert.Equal(t, []models.ScanState{
		models.ScanStateStep1,
		models.ScanStateStep2,
		models.ScanStateStep3,
		models.ScanStateDone,
	}, states)

	joined := strings.Join(logLines, "\n")
	assert.Contains(t, joined, "Starting 3-layer forensic analysis...")
	assert.Contains(t, joined, "Final verdict: LIKELY AI-GENERATED")
}

func TestWebSocketPing(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{result: sampleResult()})

	env.e.GET("/api/ws/scans", env.handlers.Stream.HandleWebSocket)
	srv := httptest.NewServer(env.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/scans"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	var hello WSMessage
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, ws.ReadJSON(&hello))
	require.Equal(t, MsgTypeConnected, hello.Type)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing, Timestamp: time.Now().UnixMilli()}))

	var pong WSMessage
	require.NoError(t, ws.ReadJSON(&pong))
	assert.Equal(t, MsgTypePong, pong.Type)
}
