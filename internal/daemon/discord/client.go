package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotConnected is returned by calls made before Connect or after the
	// connection was lost.
	ErrNotConnected = errors.New("not connected to discord")

	// ErrNoSocket is returned when no Discord IPC socket accepts a
	// connection.
	ErrNoSocket = errors.New("no discord ipc socket found")

	// ErrNoClientID is returned by Connect when the application id is empty.
	ErrNoClientID = errors.New("discord client id is not set")
)

// defaultTimeout bounds a call whose context has no deadline.
const defaultTimeout = 5 * time.Second

type dialFunc func(ctx context.Context) (net.Conn, error)

// Client speaks the Discord IPC protocol over one connection. Calls are not
// safe for concurrent use, except Connected and Close.
type Client struct {
	clientID string
	pid      int
	dial     dialFunc

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates a client for the Discord application clientID. It does
// not connect.
func NewClient(clientID string) *Client {
	return &Client{
		clientID: clientID,
		pid:      os.Getpid(),
		dial:     dialIPC,
	}
}

// Connect opens the IPC socket, sends the handshake and waits for READY.
// An existing connection is closed first.
func (c *Client) Connect(ctx context.Context) error {
	if c.clientID == "" {
		return ErrNoClientID
	}
	c.drop()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	setDeadline(ctx, conn)

	if err := writeFrame(conn, OpHandshake, handshake{Version: 1, ClientID: c.clientID}); err != nil {
		conn.Close()
		return err
	}
	if err := waitReady(conn); err != nil {
		conn.Close()
		return fmt.Errorf("discord handshake failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Connected reports whether the client holds a live connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SetActivity replaces the presence of the current user.
func (c *Client) SetActivity(ctx context.Context, activity *Activity) error {
	return c.setActivity(ctx, activity)
}

// ClearActivity removes the presence set by this client.
func (c *Client) ClearActivity(ctx context.Context) error {
	return c.setActivity(ctx, nil)
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = writeFrame(conn, OpClose, map[string]any{})
	return conn.Close()
}

func (c *Client) setActivity(ctx context.Context, activity *Activity) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	setDeadline(ctx, conn)

	nonce := uuid.NewString()
	cmd := command{
		Cmd:   "SET_ACTIVITY",
		Args:  activityArgs{PID: c.pid, Activity: activity},
		Nonce: nonce,
	}
	if err := writeFrame(conn, OpFrame, cmd); err != nil {
		c.drop()
		return err
	}

	resp, err := awaitReply(conn, nonce)
	if err != nil {
		c.drop()
		return fmt.Errorf("SET_ACTIVITY failed: %w", err)
	}
	if resp.Evt == "ERROR" {
		return fmt.Errorf("SET_ACTIVITY failed: %w", decodeError(resp.Data))
	}
	return nil
}

// drop closes the connection without the close frame. Used once the
// stream is in an unknown state.
func (c *Client) drop() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func waitReady(conn net.Conn) error {
	for {
		resp, err := next(conn)
		if err != nil {
			return err
		}
		if resp.Cmd == "DISPATCH" && resp.Evt == "READY" {
			return nil
		}
		if resp.Evt == "ERROR" {
			return decodeError(resp.Data)
		}
	}
}

func awaitReply(conn net.Conn, nonce string) (*response, error) {
	for {
		resp, err := next(conn)
		if err != nil {
			return nil, err
		}
		if resp.Nonce == nonce {
			return resp, nil
		}
	}
}

// next returns the next command frame, answering pings on the way.
func next(conn net.Conn) (*response, error) {
	for {
		op, payload, err := readFrame(conn)
		if err != nil {
			return nil, err
		}

		switch op {
		case OpFrame:
			var resp response
			if err := json.Unmarshal(payload, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode frame: %w", err)
			}
			return &resp, nil
		case OpPing:
			var pong json.RawMessage
			if len(payload) > 0 {
				pong = payload
			}
			if err := writeFrame(conn, OpPong, pong); err != nil {
				return nil, err
			}
		case OpClose:
			return nil, fmt.Errorf("closed by peer: %w", decodeError(payload))
		default:
			log.Printf("[discord] ignoring %s frame", op)
		}
	}
}

func decodeError(data []byte) error {
	var e rpcError
	if err := json.Unmarshal(data, &e); err != nil || e.Message == "" {
		return errors.New("discord returned an error")
	}
	return e
}

func setDeadline(ctx context.Context, conn net.Conn) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	_ = conn.SetDeadline(deadline)
}
