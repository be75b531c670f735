package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alnah/go-livepreview"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message types pushed over the websocket and returned by /api/preview.
const (
	MessageOutput  = "output"
	MessageError   = "error"
	MessagePending = "pending"
)

// message is the JSON form of a committed outcome.
type message struct {
	Type     string   `json:"type"`
	Token    uint64   `json:"token"`
	Markup   string   `json:"markup,omitempty"`
	Pages    int      `json:"pages,omitempty"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Skipped  []string `json:"skipped,omitempty"`
}

func newMessage(o livepreview.Outcome) message {
	m := message{
		Token:    uint64(o.Token),
		Warnings: o.Warnings,
		Skipped:  o.Skipped,
	}
	switch {
	case o.Output != nil:
		m.Type = MessageOutput
		m.Markup = o.Output.Markup
		m.Pages = o.Output.Pages
	case o.Message != "":
		m.Type = MessageError
		m.Message = o.Message
	default:
		m.Type = MessagePending
	}
	return m
}

// handleWebSocket sends the current outcome, then every later commit, until
// the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	updates, cancel := s.sess.Sink.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go s.readPump(conn, done)
	s.writePump(conn, updates, done)
}

// readPump discards client messages and keeps the read deadline alive
// through pongs. It closes done when the connection fails.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, updates <-chan livepreview.Outcome, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	if current := s.sess.Sink.Current(); current.Token != 0 {
		if err := s.send(conn, current); err != nil {
			return
		}
	}

	for {
		select {
		case o, ok := <-updates:
			if !ok {
				return
			}
			if err := s.send(conn, o); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, o livepreview.Outcome) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(newMessage(o))
}
