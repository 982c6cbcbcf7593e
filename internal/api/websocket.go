package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the workspace event stream
const (
	// Client -> Server messages
	MsgTypePing     = "ping"
	MsgTypeSnapshot = "snapshot"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

// wsWriteTimeout bounds a single frame write to a slow client.
const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope of every frame on the event stream
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error frame
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// EventHandlerImpl streams workspace events over WebSocket
type EventHandlerImpl struct {
	sessions SessionManager
	upgrader websocket.Upgrader
	maxRead  int64
}

// NewEventHandler creates a new event stream handler. maxMessageKB bounds
// client frames; zero uses 64KB.
func NewEventHandler(sessions SessionManager, maxMessageKB int) EventHandler {
	if maxMessageKB <= 0 {
		maxMessageKB = 64
	}
	return &EventHandlerImpl{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxRead: int64(maxMessageKB) * 1024,
	}
}

// HandleEvents upgrades the connection and forwards workspace events until
// either side closes.
func (h *EventHandlerImpl) HandleEvents(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(h.maxRead)

	events, unsubscribe := ws.Subscribe()
	defer unsubscribe()

	stream := &eventStream{conn: conn, workspaceID: ws.ID()}
	fmt.Printf("[WebSocket %s] Client connected for events\n", shortID(ws.ID()))

	stream.send(WSMessage{Type: MsgTypeConnected, ID: ws.ID(), Payload: mustJSON(ws.Snapshot())})

	// Reader: answers pings and snapshot requests, ends the stream on close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					fmt.Printf("[WebSocket %s] Connection error: %v\n", shortID(ws.ID()), err)
				}
				return
			}
			switch msg.Type {
			case MsgTypePing:
				stream.send(WSMessage{Type: MsgTypePong})
			case MsgTypeSnapshot:
				stream.send(WSMessage{Type: MsgTypeSnapshot, ID: ws.ID(), Payload: mustJSON(ws.Snapshot())})
			default:
				stream.sendError("Unknown message type: "+msg.Type, "INVALID_TYPE")
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Workspace closed.
				stream.closeWith(websocket.CloseGoingAway, "workspace closed")
				return nil
			}
			if err := stream.send(WSMessage{
				Type:      ev.Type,
				ID:        ev.WorkspaceID,
				Payload:   mustJSON(ev.Payload),
				Timestamp: ev.Timestamp,
			}); err != nil {
				return nil
			}
		case <-done:
			fmt.Printf("[WebSocket %s] Client disconnected\n", shortID(ws.ID()))
			return nil
		}
	}
}

// eventStream serialises writes; gorilla connections allow one writer at a time.
type eventStream struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	workspaceID string
}

func (s *eventStream) send(msg WSMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket %s] Write failed: %v\n", shortID(s.workspaceID), err)
		return err
	}
	return nil
}

func (s *eventStream) sendError(message, code string) {
	s.send(WSMessage{Type: MsgTypeError, Payload: mustJSON(WSErrorResponse{Message: message, Code: code})})
}

func (s *eventStream) closeWith(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func mustJSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

// shortID safely truncates an ID for logging
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
