package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"socialex/internal/pkg/logx"
	"socialex/internal/pkg/metrics"
	"socialex/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 16 * 1024

	// capacity of the outbound queue of one client.
	sendQueueSize = 256
)

// Client is a WebSocket connection carrying realtime envelopes.
type Client struct {
	id   string
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// closed once the client is shutting down. send is never closed.
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient wraps an upgraded WebSocket connection.
func NewClient(wsConn *websocket.Conn) *Client {
	id := randx.ID()

	return &Client{
		id:     id,
		conn:   wsConn,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		logger: logx.Component("ws-client").With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Emit marshals an envelope and queues it without blocking.
func (c *Client) Emit(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling payload for client")
		return false
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling envelope for client")
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().
			Str("event", event).
			Int("queue_len", len(c.send)).
			Msg("Client send channel full, dropping message")
		return false
	}
}

// Close asks the write loop to send a close frame and tear down the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Serve runs the connection until either side closes it. Inbound frames are handed to
// session in arrival order; the session is ended with the connection.
func (c *Client) Serve(hub *Hub, session *Session) {
	metrics.Connections.WithLabelValues("opened").Inc()

	go c.WritePump()

	c.ReadPump(session.Handle)

	hub.EndSession(session)
	c.Close()

	metrics.Connections.WithLabelValues("closed").Inc()
}

// ReadPump reads frames until the connection fails, passing each to handle.
func (c *Client) ReadPump(handle func([]byte)) {
	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}
		if msgType != websocket.TextMessage {
			c.logger.Warn().Int("msg_type", msgType).Msg("Client sent non-text frame")
			continue
		}

		handle(frame)
	}
}

// WritePump drains the send queue into the connection and keeps the heartbeat going.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit, which also unblocks ReadPump.
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(msgType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(msgType, data); err != nil {
		c.logger.Debug().Err(err).Int("msg_type", msgType).Msg("Error writing message")
		return false
	}

	return true
}
