package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/writdesk/pkg/loop"
)

// readHello reads the first frame of a connection. Anything but a hello
// fails the handshake.
func readHello(conn *websocket.Conn, cfg *SessionConfig) (ClientMessage, error) {
	conn.SetReadLimit(cfg.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(cfg.HandshakeTimeout)); err != nil {
		return ClientMessage{}, err
	}
	typ, data, err := conn.ReadMessage()
	if err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}
	if typ != websocket.TextMessage {
		return ClientMessage{}, fmt.Errorf("%w: binary frame", ErrInvalidHandshake)
	}
	msg, err := DecodeClientMessage(data)
	if err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidHandshake, err)
	}
	if msg.Type != MsgHello {
		return ClientMessage{}, fmt.Errorf("%w: first frame is %q", ErrInvalidHandshake, msg.Type)
	}
	return msg, nil
}

// ReadLoop reads client frames until the connection fails, then closes the
// session. It blocks and is run by the connection's handler goroutine.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			return
		}
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			s.metrics.frameDropped("binary")
			continue
		}

		msg, err := DecodeClientMessage(data)
		if err != nil {
			s.metrics.frameDropped("invalid")
			s.logger.Debug("invalid frame", "error", err)
			continue
		}
		s.metrics.frameReceived(msg.Type)

		if err := s.Dispatch(msg); err != nil {
			if errors.Is(err, loop.ErrQueueFull) {
				s.metrics.frameDropped("event_queue_full")
				s.logger.Warn("event dropped", "type", msg.Type, "error", err)
				continue
			}
			return
		}
	}
}

// WriteLoop writes queued frames and sends heartbeat pings until the
// session closes.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
				s.Close()
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("heartbeat failed", "error", err)
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}
