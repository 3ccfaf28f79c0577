package core

import "github.com/google/uuid"

// Socket is the outbound handle of one connection.
// Implementations must be comparable (pointer types are) and must not block.
type Socket interface {
	Push(payload []byte) error
}

// Client is a connection's outbound queue as seen by the core layer.
type Client struct {
	ID   uuid.UUID
	Name string
	Send chan []byte
}

// NewClient constructs a client with an outbound queue of the given size.
func NewClient(id uuid.UUID, name string, buffer int) *Client {
	if name == "" {
		name = id.String()
	}
	if buffer <= 0 {
		buffer = 32
	}
	return &Client{
		ID:   id,
		Name: name,
		Send: make(chan []byte, buffer),
	}
}

// Push enqueues a payload without blocking. A full queue drops it.
func (c *Client) Push(payload []byte) error {
	select {
	case c.Send <- payload:
		return nil
	default:
		return ErrSlowConsumer
	}
}
