package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wavewatch/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 16
)

// Stream pushes every cycle result to connected websocket clients. Slow
// clients lose messages instead of blocking the monitor.
type Stream struct {
	mu       sync.RWMutex
	clients  map[*streamClient]struct{}
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewStream(log zerolog.Logger) *Stream {
	return &Stream{
		clients: make(map[*streamClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "stream").Logger(),
	}
}

func (s *Stream) OnCycle(res models.CycleResult) {
	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal cycle")
		return
	}
	s.broadcast(payload)
}

func (s *Stream) broadcast(payload []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			s.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("client too slow, dropping cycle")
		}
	}
}

func (s *Stream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// serve upgrades the request and blocks until the client goes away.
// initial, when not nil, is sent before any live update.
func (s *Stream) serve(c *gin.Context, initial []byte) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &streamClient{conn: conn, send: make(chan []byte, clientSendSize)}
	if initial != nil {
		client.send <- initial
	}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go client.writePump()
	client.readPump()

	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
	close(client.send)
}

// readPump discards client messages; it only exists to notice disconnects
// and answer pings.
func (c *streamClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
