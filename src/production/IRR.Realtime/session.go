package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// SessionKind distinguishes the two connection lifecycles.
type SessionKind string

const (
	KindDevice   SessionKind = "device"
	KindFrontend SessionKind = "frontend"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Session is one live connection, distinct from the logical device or
// frontend client it represents. Routed messages are decoupled from the
// publisher through the bounded send queue drained by WritePump.
type Session struct {
	ID       string
	Kind     SessionKind
	DeviceID string

	conn      *websocket.Conn
	send      chan irrmodels.Message
	closed    atomic.Bool
	closeOnce sync.Once
	logger    *logger.Logger
}

// NewSession creates a session with a bounded outbound queue. conn may be nil
// in tests that read the queue directly.
func NewSession(id string, kind SessionKind, deviceID string, conn *websocket.Conn, queueSize int, log *logger.Logger) *Session {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Session{
		ID:       id,
		Kind:     kind,
		DeviceID: deviceID,
		conn:     conn,
		send:     make(chan irrmodels.Message, queueSize),
		logger:   log.WithSession(id),
	}
}

// Enqueue offers a message to the session without blocking. It reports false
// when the session is closed or its queue is full; the router counts that as
// a failed delivery.
func (s *Session) Enqueue(msg irrmodels.Message) (sent bool) {
	if s.closed.Load() {
		return false
	}
	// Close can still land between the flag check and the send below and
	// close the channel out from under us; recover turns that panic into a
	// failed delivery instead of taking down the publisher.
	defer func() {
		if recover() != nil {
			sent = false
		}
	}()
	select {
	case s.send <- msg:
		return true
	default:
		// Queue full: a slow consumer must not stall the publisher.
		return false
	}
}

// Close shuts the send queue exactly once. Safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.send)
	})
}

// WritePump drains the send queue onto the connection, translating each
// routed message into its wire frame, and keeps the connection alive with
// pings. It exits when the queue is closed or a write fails.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(msg.Frame()); err != nil {
				s.logger.WithError(err).Warn("session write failed")
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes inbound frames until the connection drops. Inbound
// payloads are discarded: devices report telemetry over the ingestion
// endpoint, and frontends are read-only observers. The cleanup callback runs
// exactly once before the pump returns.
func (s *Session) ReadPump(cleanup func()) {
	defer func() {
		cleanup()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(1024)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("session read failed")
			}
			return
		}
	}
}
