package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/morezaGeek/Server-Monitor/internal/bridge"
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/pkg/sshutil"
)

const attachWriteTimeout = 10 * time.Second

// termSize is a terminal geometry in character cells.
type termSize struct {
	Cols int
	Rows int
}

// clientFrame is the JSON shape of frames the attach client sends.
type clientFrame struct {
	Type     string `json:"type"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Data     string `json:"data,omitempty"`
	Cols     int    `json:"cols,omitempty"`
	Rows     int    `json:"rows,omitempty"`
}

// attachClient speaks the terminal protocol from the browser side.
type attachClient struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// dialAttach opens the terminal WebSocket. user and password are the
// dashboard credentials; both empty skips the Authorization header.
func dialAttach(ctx context.Context, url, user, password string) (*attachClient, error) {
	header := http.Header{}
	if user != "" || password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
		header.Set("Authorization", "Basic "+token)
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Dashboard rejected the credentials",
					"Check --user and SERVERMON_DASHBOARD_PASSWORD")
			case http.StatusForbidden:
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Dashboard refused the connection origin",
					"Add this origin to server.allowed_origins")
			}
			return nil, errors.WrapWithCode(err, errors.ErrServer,
				fmt.Sprintf("Dashboard answered %s", resp.Status),
				"Check --url points at the terminal endpoint, e.g. ws://host:8080/api/ssh")
		}
		return nil, errors.WrapWithCode(err, errors.ErrServer,
			"Failed to connect to "+url,
			"Is 'servermon serve' running and reachable?")
	}
	return &attachClient{ws: ws}, nil
}

// handshake sends the auth frame and waits for the session to become ready.
func (c *attachClient) handshake(ctx context.Context, t sshutil.Target) (termSize, error) {
	stop := context.AfterFunc(ctx, func() { c.ws.Close() })
	defer stop()

	err := c.send(clientFrame{
		Type:     bridge.TypeAuth,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.Username,
		Password: t.Password,
		Cols:     t.Cols,
		Rows:     t.Rows,
	})
	if err != nil {
		return termSize{}, err
	}

	for {
		kind, msg, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return termSize{}, ctx.Err()
			}
			return termSize{}, closeError(err, nil)
		}
		if kind != websocket.TextMessage {
			continue
		}

		ready, remote, err := decodeServerFrame(msg)
		if err != nil {
			return termSize{}, err
		}
		if remote != nil {
			return termSize{}, remote
		}
		if ready != nil {
			return termSize{Cols: ready.Cols, Rows: ready.Rows}, nil
		}
	}
}

// stream pumps in to the remote shell and the shell's output to out until
// the session ends. A normal close returns nil.
func (c *attachClient) stream(ctx context.Context, in io.Reader, out io.Writer, resizes <-chan termSize) error {
	stop := context.AfterFunc(ctx, func() { _ = c.closeWith(websocket.CloseNormalClosure) })
	defer stop()

	go c.pumpInput(in)
	if resizes != nil {
		go c.pumpResizes(ctx, resizes)
	}

	var remote error
	for {
		kind, msg, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return closeError(err, remote)
		}

		switch kind {
		case websocket.BinaryMessage:
			if _, err := out.Write(msg); err != nil {
				return errors.WrapWithCode(err, errors.ErrStreamIO,
					"Failed to write terminal output", "")
			}
		case websocket.TextMessage:
			_, frameErr, err := decodeServerFrame(msg)
			if err != nil {
				return err
			}
			if frameErr != nil {
				remote = frameErr
			}
		}
	}
}

// pumpInput forwards keystrokes. Data frames carry JSON strings, so a rune
// split across two reads is held back until its remaining bytes arrive.
func (c *attachClient) pumpInput(in io.Reader) {
	buf := make([]byte, 1024)
	var pending []byte
	for {
		n, err := in.Read(buf)
		if n > 0 {
			chunk := append(pending, buf[:n]...)
			cut := completeRunes(chunk)
			pending = append([]byte(nil), chunk[cut:]...)
			if cut > 0 && c.send(clientFrame{Type: bridge.TypeData, Data: string(chunk[:cut])}) != nil {
				return
			}
		}
		if err != nil {
			if len(pending) > 0 {
				_ = c.send(clientFrame{Type: bridge.TypeData, Data: string(pending)})
			}
			return
		}
	}
}

// completeRunes returns the length of the longest prefix of p that doesn't
// end inside a multi-byte UTF-8 sequence.
func completeRunes(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) {
			return len(p)
		}
		return i
	}
	return len(p)
}

func (c *attachClient) pumpResizes(ctx context.Context, resizes <-chan termSize) {
	for {
		select {
		case <-ctx.Done():
			return
		case size, ok := <-resizes:
			if !ok {
				return
			}
			if c.send(clientFrame{Type: bridge.TypeResize, Cols: size.Cols, Rows: size.Rows}) != nil {
				return
			}
		}
	}
}

// send writes one control frame. Writes are serialized because input and
// resize pumps share the connection.
func (c *attachClient) send(f clientFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrProtocol, "Failed to encode frame", "")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(attachWriteTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.WrapWithCode(err, errors.ErrStreamIO,
			"Lost the connection to the dashboard", "")
	}
	return nil
}

func (c *attachClient) closeWith(code int) error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(code, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// Close ends the session from the client side.
func (c *attachClient) Close() error {
	return c.closeWith(websocket.CloseNormalClosure)
}

// decodeServerFrame parses a text frame from the gateway. Exactly one of
// ready and remote is non-nil for known frame types; unknown types yield
// neither.
func decodeServerFrame(msg []byte) (ready *bridge.ReadyFrame, remote error, err error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrProtocol,
			"Dashboard sent a malformed frame", "")
	}

	switch head.Type {
	case bridge.TypeReady:
		var f bridge.ReadyFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			return nil, nil, errors.WrapWithCode(err, errors.ErrProtocol,
				"Dashboard sent a malformed ready frame", "")
		}
		return &f, nil, nil
	case bridge.TypeError:
		var f bridge.ErrorFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			return nil, nil, errors.WrapWithCode(err, errors.ErrProtocol,
				"Dashboard sent a malformed error frame", "")
		}
		return nil, errors.New(strings.ToUpper(f.Code), f.Message, f.Hint), nil
	}
	return nil, nil, nil
}

// closeError maps the read error that ended a session. remote is the last
// error frame the gateway sent, if any; it explains an abnormal close better
// than the close code does.
func closeError(err, remote error) error {
	var ce *websocket.CloseError
	if stderrors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNormalClosure:
			return nil
		case websocket.CloseGoingAway:
			return errors.New(errors.ErrServer,
				"Dashboard is shutting down",
				"Reconnect once it is back up")
		}
	}
	if remote != nil {
		return remote
	}
	return errors.WrapWithCode(err, errors.ErrStreamIO,
		"Connection to the dashboard was lost", "")
}
