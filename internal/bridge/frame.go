package bridge

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/morezaGeek/Server-Monitor/internal/errors"
)

// Frame type discriminants on the wire.
const (
	TypeAuth   = "auth"
	TypeData   = "data"
	TypeResize = "resize"
	TypeReady  = "ready"
	TypeError  = "error"
)

// MaxGeometry is the largest column or row count a pty accepts.
const MaxGeometry = 65535

// Frame is an inbound message from the browser: AuthFrame, DataFrame or ResizeFrame.
type Frame interface {
	frameType() string
}

// AuthFrame asks for a remote shell. Port 0 means the frame didn't name one.
// Cols and Rows are 0 when the browser didn't report an initial geometry.
type AuthFrame struct {
	Host     string
	Port     int
	Username string
	Password string
	Cols     int
	Rows     int
}

// DataFrame carries keystrokes for the remote pty.
type DataFrame struct {
	Data []byte
}

// ResizeFrame reports a new viewport geometry.
type ResizeFrame struct {
	Cols int
	Rows int
}

func (AuthFrame) frameType() string   { return TypeAuth }
func (DataFrame) frameType() string   { return TypeData }
func (ResizeFrame) frameType() string { return TypeResize }

// wireFrame is the JSON shape shared by every inbound frame. Pointer and raw
// fields distinguish "absent" from zero values.
type wireFrame struct {
	Type     string          `json:"type"`
	Host     string          `json:"host"`
	Port     json.RawMessage `json:"port"`
	Username string          `json:"username"`
	Password string          `json:"password"`
	Data     *string         `json:"data"`
	Cols     json.RawMessage `json:"cols"`
	Rows     json.RawMessage `json:"rows"`
}

// DecodeFrame parses one inbound text message. Failures are PROTOCOL errors,
// except an auth frame with bad fields, which is AUTH_INPUT.
func DecodeFrame(msg []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(msg, &w); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrProtocol,
			"Malformed frame",
			`Frames are JSON objects with a "type" field`)
	}

	switch w.Type {
	case TypeAuth:
		return decodeAuth(w)
	case TypeData:
		if w.Data == nil {
			return nil, errors.New(errors.ErrProtocol, "Data frame has no data field", "")
		}
		return DataFrame{Data: []byte(*w.Data)}, nil
	case TypeResize:
		cols, okCols := parseDimension(w.Cols)
		rows, okRows := parseDimension(w.Rows)
		if !okCols || !okRows {
			return nil, errors.New(errors.ErrProtocol, "Resize frame needs integer cols and rows", "")
		}
		if !validGeometry(cols, rows) {
			return nil, errors.New(errors.ErrProtocol,
				fmt.Sprintf("Resize to %dx%d is out of range", cols, rows),
				fmt.Sprintf("cols and rows must be between 1 and %d", MaxGeometry))
		}
		return ResizeFrame{Cols: cols, Rows: rows}, nil
	case "":
		return nil, errors.New(errors.ErrProtocol, "Frame has no type", `Set "type" to auth, data or resize`)
	default:
		return nil, errors.New(errors.ErrProtocol,
			fmt.Sprintf("Unknown frame type %q", w.Type),
			`Set "type" to auth, data or resize`)
	}
}

func decodeAuth(w wireFrame) (Frame, error) {
	f := AuthFrame{
		Host:     strings.TrimSpace(w.Host),
		Username: strings.TrimSpace(w.Username),
		Password: w.Password,
	}

	if f.Host == "" {
		return nil, errors.New(errors.ErrAuthInput, "Host is required", "Enter the address of the server to connect to")
	}
	if f.Username == "" {
		return nil, errors.New(errors.ErrAuthInput, "Username is required", "Enter the account to log in as")
	}

	port, err := parsePort(w.Port)
	if err != nil {
		return nil, err
	}
	f.Port = port

	// Initial geometry is advisory; anything unusable falls back to the defaults.
	cols, okCols := parseDimension(w.Cols)
	rows, okRows := parseDimension(w.Rows)
	if okCols && okRows && validGeometry(cols, rows) {
		f.Cols, f.Rows = cols, rows
	}

	return f, nil
}

// parsePort accepts a JSON number, a numeric string, or nothing. Absent,
// null and empty-string ports are 0.
func parsePort(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, invalidPort(text)
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return 0, nil
		}
	}

	port, err := strconv.Atoi(text)
	if err != nil || port < 1 || port > 65535 {
		return 0, invalidPort(text)
	}
	return port, nil
}

func invalidPort(text string) error {
	return errors.New(errors.ErrAuthInput,
		fmt.Sprintf("Port %s is not valid", text),
		"Use a number between 1 and 65535, or leave it empty for 22")
}

// parseDimension decodes a column or row count. It reports false when raw is
// absent, null or not a JSON integer.
func parseDimension(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// PeekType returns the discriminant of msg, or "" when msg has none. It
// works on frames DecodeFrame rejects.
func PeekType(msg []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(msg, &head) != nil {
		return ""
	}
	return head.Type
}

func validGeometry(cols, rows int) bool {
	return cols >= 1 && cols <= MaxGeometry && rows >= 1 && rows <= MaxGeometry
}

// ReadyFrame tells the browser the shell is live and which geometry it has.
type ReadyFrame struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// ErrorFrame is the Diagnostic sent before a session ends on a failure.
// Clients classify it by Code; Message and Hint are for display.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func newReadyFrame(cols, rows int) ReadyFrame {
	return ReadyFrame{Type: TypeReady, Cols: cols, Rows: rows}
}

// newErrorFrame converts a session failure into a Diagnostic. Errors without
// a code are reported as fallback.
func newErrorFrame(err error, fallback string) ErrorFrame {
	code := errors.CodeOf(err)
	if code == "" {
		code = fallback
	}

	frame := ErrorFrame{Type: TypeError, Code: errors.WireCode(code), Message: err.Error()}

	var smErr *errors.Error
	if stderrors.As(err, &smErr) {
		frame.Message = smErr.Detail()
		frame.Hint = smErr.Suggestion
	}
	return frame
}
