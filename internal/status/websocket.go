package status

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/muurk/nsd/internal/discovery"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Snapshots queued per client before it is dropped as too slow
	sendBuffer = 16
)

// client is one WebSocket subscriber
type client struct {
	conn   *websocket.Conn
	remote string
	send   chan ServicesResponse
}

// Publish sends a snapshot to every WebSocket client. It has the signature
// of discovery.Config.OnChange.
func (s *Server) Publish(services []discovery.Service) {
	msg := newServicesResponse(true, services)

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("Dropping slow WebSocket client", zap.String("remote_addr", c.remote))
			delete(s.clients, c)
			close(c.send)
		}
	}
}

// serveWebSocket (GET /ws) upgrades the connection and streams snapshots.
func (s *Server) serveWebSocket(ec echo.Context) error {
	conn, err := s.upgrader.Upgrade(ec.Response(), ec.Request(), nil)
	if err != nil {
		// The upgrader has already replied
		s.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	c := &client{
		conn:   conn,
		remote: ec.RealIP(),
		send:   make(chan ServicesResponse, sendBuffer),
	}

	// The initial snapshot is queued under the lock so no Publish can
	// slip in ahead of it.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.send <- s.snapshot()
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("WebSocket client connected", zap.String("remote_addr", c.remote))

	go s.writePump(c)
	s.readPump(c)
	return nil
}

// readPump discards client messages and notices when the client goes away.
func (s *Server) readPump(c *client) {
	defer s.removeClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket read error",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump owns all writes to the connection.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		s.wg.Done()
		s.logger.Debug("WebSocket client disconnected", zap.String("remote_addr", c.remote))
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}
