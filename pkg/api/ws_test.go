package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/stratnet/pkg/api/middleware"
)

func dialWS(t *testing.T, ts *testServer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(ts.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsReceived struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
}

// waitSettled blocks until the simulation stops emitting frames, so events
// are not crowded out of the client queue.
func (ts *testServer) waitSettled(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !decode[StatsResponse](t, ts.do(t, http.MethodGet, "/stats", nil)).Running
	}, 10*time.Second, 10*time.Millisecond)
}

// readUntil skips messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) wsReceived {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg wsReceived
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	ts := setupTestServer(t)
	conn := dialWS(t, ts)

	var first wsReceived
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "session", first.Type)
	assert.NotEmpty(t, first.SessionID)

	frame := readUntil(t, conn, "frame")
	var payload struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Len(t, payload.Nodes, 4)

	stats := decode[StatsResponse](t, ts.do(t, http.MethodGet, "/stats", nil))
	assert.Equal(t, int64(1), stats.WebSocketClients)
}

func TestWebSocketCommands(t *testing.T) {
	ts := setupTestServer(t)
	ts.waitSettled(t)
	conn := dialWS(t, ts)
	readUntil(t, conn, "session")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: "activate", ID: "gov"}))
	selected := readUntil(t, conn, "node.selected")
	var node struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(selected.Payload, &node))
	assert.Equal(t, "gov", node.ID)

	require.NoError(t, conn.WriteJSON(WSCommand{Action: "activate", ID: "ghost"}))
	msg := readUntil(t, conn, "error")
	assert.Contains(t, msg.Error, "ghost")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: "teleport"}))
	msg = readUntil(t, conn, "error")
	assert.Contains(t, msg.Error, "unknown action")

	require.NoError(t, conn.WriteJSON(WSCommand{Action: "traversal", Active: true}))
	readUntil(t, conn, "path.updated")
	require.NoError(t, conn.WriteJSON(WSCommand{Action: "activate", ID: "edu"}))
	updated := readUntil(t, conn, "path.updated")
	var path []json.RawMessage
	require.NoError(t, json.Unmarshal(updated.Payload, &path))
	assert.Len(t, path, 1)
}

func TestCheckOrigin(t *testing.T) {
	s := &Server{corsConfig: &middleware.CORSConfig{AllowedOrigins: []string{"https://app.example.org"}}}

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same host", "http://stratnet.local:8080", true},
		{"allowed", "https://app.example.org", true},
		{"foreign", "https://evil.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://stratnet.local:8080/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, s.checkOrigin(r))
		})
	}

	wildcard := &Server{corsConfig: &middleware.CORSConfig{AllowedOrigins: []string{"*"}}}
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example")
	assert.True(t, wildcard.checkOrigin(r))
}
