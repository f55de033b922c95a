// Package discord is a minimal client for the Discord local RPC socket, used
// to set and clear the Rich Presence activity of the current user.
package discord

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Opcode identifies the kind of an IPC frame.
type Opcode uint32

// IPC opcodes.
const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

func (o Opcode) String() string {
	switch o {
	case OpHandshake:
		return "handshake"
	case OpFrame:
		return "frame"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return fmt.Sprintf("opcode(%d)", uint32(o))
	}
}

const headerSize = 8

// maxFrameSize bounds the payload length read from the peer.
const maxFrameSize = 1 << 20

// ErrFrameTooLarge is returned when the peer announces an oversized payload.
var ErrFrameTooLarge = errors.New("ipc frame too large")

// writeFrame encodes v as JSON and writes it with the 8 byte header:
// little-endian opcode followed by little-endian payload length.
func writeFrame(w io.Writer, op Opcode, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", op, err)
	}

	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", op, err)
	}
	return nil
}

// readFrame reads one frame and returns its opcode and raw JSON payload.
func readFrame(r io.Reader) (Opcode, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	op := Opcode(binary.LittleEndian.Uint32(header[0:4]))
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("failed to read %s payload: %w", op, err)
	}
	return op, payload, nil
}

// handshake is the first frame sent on a new connection.
type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

// command is an outgoing RPC command.
type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args"`
	Nonce string `json:"nonce"`
}

// activityArgs carries the activity for SET_ACTIVITY. A nil Activity is
// encoded as null, which clears the presence.
type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

// response is an incoming frame: a command reply or an event dispatch.
type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// rpcError is the data of an ERROR event or of a close frame.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e rpcError) Error() string {
	return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
}
