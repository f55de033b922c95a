package discord

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
)

type receivedCommand struct {
	Cmd   string `json:"cmd"`
	Nonce string `json:"nonce"`
	Args  struct {
		PID      int             `json:"pid"`
		Activity json.RawMessage `json:"activity"`
	} `json:"args"`
}

// fakeDiscord plays the Discord side of the IPC protocol.
type fakeDiscord struct {
	rejectHandshake bool // answer the handshake with a close frame
	pingFirst       bool // ping before READY
	rejectActivity  bool // answer SET_ACTIVITY with an ERROR event
	dropAfter       int  // close the connection after this many commands

	dials atomic.Int32

	mu         sync.Mutex
	handshakes []handshake
	commands   []receivedCommand
	pongs      int
	closes     int
}

// dial returns the client end of a new in-memory connection.
func (f *fakeDiscord) dial(ctx context.Context) (net.Conn, error) {
	f.dials.Add(1)
	client, server := net.Pipe()
	go f.serve(server)
	return client, nil
}

func (f *fakeDiscord) serve(conn net.Conn) {
	defer conn.Close()

	served := 0
	for {
		op, payload, err := readFrame(conn)
		if err != nil {
			return
		}

		switch op {
		case OpHandshake:
			var hs handshake
			_ = json.Unmarshal(payload, &hs)
			f.mu.Lock()
			f.handshakes = append(f.handshakes, hs)
			f.mu.Unlock()

			if f.rejectHandshake {
				_ = writeFrame(conn, OpClose, rpcError{Code: 4000, Message: "Invalid Client ID"})
				return
			}
			if f.pingFirst {
				_ = writeFrame(conn, OpPing, map[string]string{"ping": "1"})
				continue
			}
			_ = writeReady(conn)

		case OpPong:
			f.mu.Lock()
			f.pongs++
			f.mu.Unlock()
			_ = writeReady(conn)

		case OpFrame:
			var cmd receivedCommand
			_ = json.Unmarshal(payload, &cmd)
			f.mu.Lock()
			f.commands = append(f.commands, cmd)
			f.mu.Unlock()

			reply := map[string]any{"cmd": cmd.Cmd, "nonce": cmd.Nonce, "evt": nil, "data": map[string]any{}}
			if f.rejectActivity {
				reply["evt"] = "ERROR"
				reply["data"] = rpcError{Code: 4002, Message: "child \"activity\" fails"}
			}
			_ = writeFrame(conn, OpFrame, reply)

			served++
			if f.dropAfter > 0 && served >= f.dropAfter {
				return
			}

		case OpClose:
			f.mu.Lock()
			f.closes++
			f.mu.Unlock()
			return
		}
	}
}

func writeReady(conn net.Conn) error {
	return writeFrame(conn, OpFrame, map[string]any{
		"cmd":   "DISPATCH",
		"evt":   "READY",
		"nonce": nil,
		"data":  map[string]any{"v": 1, "user": map[string]string{"username": "tester"}},
	})
}

func (f *fakeDiscord) Commands() []receivedCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]receivedCommand(nil), f.commands...)
}

func (f *fakeDiscord) Handshakes() []handshake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]handshake(nil), f.handshakes...)
}

func (f *fakeDiscord) Pongs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pongs
}

func (f *fakeDiscord) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func newTestClient(f *fakeDiscord) *Client {
	c := NewClient("1234567890")
	c.dial = f.dial
	return c
}
