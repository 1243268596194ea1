package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/pubsub"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 64 << 10
)

// wsTopics are streamed to every WebSocket client.
var wsTopics = []pubsub.Topic{
	pubsub.TopicFrame,
	pubsub.TopicNodeSelected,
	pubsub.TopicPathUpdated,
	pubsub.TopicCatalogImported,
	pubsub.TopicControlsChanged,
}

// WSMessage is a server-to-client message. Events carry their topic as the
// type; replies to commands use "ack" or "error".
type WSMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Time      time.Time `json:"time"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// WSCommand is a client-to-server message.
type WSCommand struct {
	Action string  `json:"action"` // activate, drag, traversal
	ID     string  `json:"id,omitempty"`
	Phase  string  `json:"phase,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Active bool    `json:"active,omitempty"`
}

// checkOrigin allows same-origin clients, non-browser clients and origins
// the CORS configuration allows.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, o := range s.corsConfig.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// handleWebSocket streams the current frame, then every bus event, and
// accepts interaction commands.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := s.logger.With(logging.String("session_id", sessionID))
	s.wsClients.Add(1)
	s.metrics.AddWebSocketClients(1)
	defer func() {
		s.wsClients.Add(-1)
		s.metrics.AddWebSocketClients(-1)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := s.bus.Subscribe(ctx, wsTopics...)
	if err != nil {
		logger.Warn("websocket subscribe failed", logging.Error(err))
		return
	}
	defer sub.Unsubscribe()

	replies := make(chan WSMessage, 16)
	go s.wsReadLoop(ctx, cancel, conn, replies)

	logger.Info("websocket client connected")
	defer logger.Info("websocket client disconnected")

	if err := s.wsWrite(conn, WSMessage{Type: "session", SessionID: sessionID, Time: s.now()}); err != nil {
		return
	}
	if frame, err := s.ctl.Frame(ctx); err == nil {
		if err := s.wsWrite(conn, WSMessage{Type: string(pubsub.TopicFrame), Time: s.now(), Payload: frame}); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		var msg WSMessage
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Channel():
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			msg = WSMessage{Type: string(ev.Topic), Time: ev.Time, Payload: ev.Payload}
		case msg = <-replies:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			continue
		}
		if err := s.wsWrite(conn, msg); err != nil {
			logger.Debug("websocket write failed", logging.Error(err))
			return
		}
	}
}

func (s *Server) wsWrite(conn *websocket.Conn, msg WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

// wsReadLoop applies client commands and queues their replies. It cancels
// the session when the client goes away.
func (s *Server) wsReadLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- WSMessage) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var cmd WSCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := WSMessage{Type: "ack", Time: s.now(), Payload: cmd.Action}
		if err := s.applyCommand(ctx, cmd); err != nil {
			reply = WSMessage{Type: "error", Time: s.now(), Error: err.Error()}
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) applyCommand(ctx context.Context, cmd WSCommand) error {
	switch cmd.Action {
	case "activate":
		return s.ctl.Activate(ctx, cmd.ID)
	case "drag":
		phase, err := engine.ParseDragPhase(cmd.Phase)
		if err != nil {
			return err
		}
		return s.ctl.Drag(ctx, cmd.ID, phase, cmd.X, cmd.Y)
	case "traversal":
		return s.ctl.SetTraversalMode(ctx, cmd.Active)
	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}
}
