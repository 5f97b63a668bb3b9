package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/aortez/cellsim-server/internal/apperrors"
	"github.com/aortez/cellsim-server/internal/statemachine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
	sendBufferSize = 256
)

// Client is one connected duplex session: a reader pump decoding inbound
// text frames into commands, and a writer pump serializing response and
// broadcast frames, with a buffered send channel and ping/pong keepalive.
type Client struct {
	id      string
	conn    *websocket.Conn
	hub     *Hub
	machine *statemachine.Machine
	send    chan []byte
}

func newClient(conn *websocket.Conn, hub *Hub, machine *statemachine.Machine) *Client {
	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		hub:     hub,
		machine: machine,
		send:    make(chan []byte, sendBufferSize),
	}
}

// ReadPump decodes every inbound text message on its own goroutine. Parse
// failures reply inline on this connection and are never enqueued. A
// successfully parsed command is queued to the state machine with Respond
// wired back to this connection's write path only.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, parseErr := decodeCommand(raw, c.respond)
		if parseErr != nil {
			if c.hub.metrics != nil {
				c.hub.metrics.ParseErrorsTotal.Inc()
			}
			c.writeJSON(errorFrame{Error: parseErr.Error()})
			continue
		}
		c.machine.QueueEvent(cmd)
	}
}

// WritePump serializes queued frames to the connection and pings on an
// idle timer. It is the only goroutine allowed to write to this
// connection, matching gorilla/websocket's single-writer requirement.
func (c *Client) WritePump() {
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
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			messageType := websocket.TextMessage
			if len(msg) > 0 && msg[0] == binaryFrameMarker {
				messageType = websocket.BinaryMessage
				msg = msg[1:]
			}
			if err := c.conn.WriteMessage(messageType, msg); err != nil {
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

// binaryFrameMarker prefixes queued binary frames so WritePump can tell
// them apart from text frames sharing the same send channel, without a
// second channel (and thus a second lock-ordering concern) per connection.
const binaryFrameMarker = 0x00

// respond is the Respond callback bound to this connection: it never
// blocks the simulation thread beyond a channel send, and silently drops
// the payload if the connection's send buffer is gone (client disconnected
// between receipt and response).
func (c *Client) respond(tag string, result any, appErr *apperrors.AppError) {
	if appErr != nil {
		c.writeJSON(errorFrame{Error: appErr.Error()})
		return
	}
	c.writeJSON(okFrame{Tag: tag, Payload: result})
}

func (c *Client) writeJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Debug().Err(err).Msg("transport: failed to marshal response frame")
		return
	}
	// Hub.Run closes c.send on unregister; a send on the closed channel
	// panics, and that payload is dropped here instead.
	defer func() { _ = recover() }()
	select {
	case c.send <- b:
	default:
		// Send buffer full or connection already torn down; drop rather
		// than block the caller (may be the simulation thread).
	}
}

// writeBinary enqueues a pre-serialized binary frame for this connection.
func (c *Client) writeBinary(b []byte) {
	framed := make([]byte, 0, len(b)+1)
	framed = append(framed, binaryFrameMarker)
	framed = append(framed, b...)
	defer func() { _ = recover() }() // c.send may already be closed, as in writeJSON
	select {
	case c.send <- framed:
	default:
	}
}
