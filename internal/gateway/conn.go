package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/morezaGeek/Server-Monitor/internal/bridge"
)

// wsConn adapts a gorilla WebSocket to bridge.Conn.
//
// gorilla allows one concurrent reader and one concurrent writer; data writes
// are serialised by writeMu. Pings and the close frame go through
// WriteControl, which gorilla allows alongside everything else.
type wsConn struct {
	ws *websocket.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeTimeout time.Duration
	pingInterval time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn, opts Options) *wsConn {
	c := &wsConn{
		ws:           ws,
		writeTimeout: opts.WriteTimeout,
		closeTimeout: opts.CloseTimeout,
		pingInterval: opts.PingInterval,
		done:         make(chan struct{}),
	}

	if opts.MaxMessageBytes > 0 {
		ws.SetReadLimit(opts.MaxMessageBytes)
	}

	if c.pingInterval > 0 {
		// A browser that stops answering pings is treated as gone.
		_ = ws.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		})
		go c.pingLoop()
	}

	return c
}

func (c *wsConn) ReadMessage() (bridge.MessageType, []byte, error) {
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		return 0, nil, err
	}
	switch mt {
	case websocket.TextMessage:
		return bridge.TextMessage, data, nil
	case websocket.BinaryMessage:
		return bridge.BinaryMessage, data, nil
	default:
		return 0, nil, fmt.Errorf("unexpected websocket message type %d", mt)
	}
}

func (c *wsConn) WriteOutput(p []byte) error {
	return c.write(websocket.BinaryMessage, p)
}

func (c *wsConn) WriteControl(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode control frame: %w", err)
	}
	return c.write(websocket.TextMessage, data)
}

func (c *wsConn) write(mt int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(mt, data)
}

// Close sends a close frame, bounded by the close timeout, and drops the
// TCP connection. Any blocked ReadMessage returns an error.
func (c *wsConn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		deadline := time.Now().Add(c.closeTimeout)
		msg := websocket.FormatCloseMessage(code, reason)
		if werr := c.ws.WriteControl(websocket.CloseMessage, msg, deadline); werr != nil && werr != websocket.ErrCloseSent {
			err = werr
		}
		if cerr := c.ws.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.pingInterval)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
