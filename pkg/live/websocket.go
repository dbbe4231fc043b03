package live

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medihome/storefront/pkg/protocol"
)

// ReadLoop reads client frames and queues them for the event loop. It
// blocks until the connection fails or the session closes.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			s.sendError(protocol.ErrInvalidFrame, "Text frames only", false)
			continue
		}

		frame, err := protocol.Decode(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.sendError(protocol.ErrInvalidFrame, decodeErrorMessage(err), false)
			continue
		}

		s.framesIn.Add(1)
		s.metrics.FrameReceived(frame.Type)

		if err := s.queueFrame(frame); err != nil {
			s.sendError(protocol.ErrRateLimited, "Too many frames", false)
		}
	}
}

func (s *Session) queueFrame(f *protocol.Frame) error {
	select {
	case s.events <- f:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		s.logger.Warn("event queue full, dropping frame", "type", f.Type)
		return ErrEventQueueFull
	}
}

func decodeErrorMessage(err error) string {
	switch {
	case errors.Is(err, protocol.ErrFrameTooLarge):
		return "Frame too large"
	case errors.Is(err, protocol.ErrInvalidFrameType):
		return "Unknown frame type"
	case errors.Is(err, protocol.ErrMissingPayload):
		return "Missing payload"
	default:
		return "Invalid frame"
	}
}

// WriteLoop writes queued frames and heartbeat pings until the session
// closes.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.send:
			if err := s.writeFrame(f); err != nil {
				s.logger.Error("write error", "type", f.Type, "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping error", "error", err)
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

func (s *Session) writeFrame(f *protocol.Frame) error {
	data, err := protocol.Encode(f)
	if err != nil {
		// A frame we built ourselves failed validation; drop it.
		s.logger.Error("frame encode error", "type", f.Type, "error", err)
		return nil
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}

	s.framesOut.Add(1)
	s.metrics.FrameSent(f.Type)
	return nil
}
