package ipc

import (
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
)

// Sender delivers one typed message to the host.
type Sender interface {
	Send(msgType string, data any) error
}

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection represents a single host simulation talking to the sidecar.
// Each player gets its own connection, identified after the hello handshake.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	writeMu  sync.Mutex

	Session string
	Player  string
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
		Session:  uuid.NewString(),
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEnvelope(c.conn, env)
}

// Close shuts the underlying socket, which ends ReadLoop.
func (c *Connection) Close() error { return c.conn.Close() }

// ReadLoop blocks until the connection closes or errors. It owns the conn lifetime
// so callers don't need to track cleanup.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			slog.Info("connection read ended", "session", c.Session, "player", c.Player, "error", err)
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			slog.Error("handler error", "type", env.Type, "error", err)
			continue
		}

		if resp != nil {
			if err := c.write(*resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			slog.Debug("sent response", "type", resp.Type, "player", c.Player)
		}
	}
}

// Recorder is a Sender that keeps every message instead of writing it.
type Recorder struct {
	mu   sync.Mutex
	Sent []Envelope
	Err  error // returned by Send when set
}

func (r *Recorder) Send(msgType string, data any) error {
	if r.Err != nil {
		return r.Err
	}
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.Sent = append(r.Sent, env)
	r.mu.Unlock()
	return nil
}

// OfType returns the recorded envelopes with the given type.
func (r *Recorder) OfType(msgType string) []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Envelope
	for _, e := range r.Sent {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}
