// Package transport defines the boundary between the protocol core
// and the underlying BLE link, plus an in-memory pipe implementation
// for tests. The core never touches GATT directly: it writes opaque
// frames to one of two channels and receives inbound indications
// through a single handler.
package transport

import (
	"context"
	"errors"
)

// Channel identifies which characteristic a frame belongs to.
type Channel int

const (
	// ChannelPairing carries plain frames (the GDIO characteristic).
	ChannelPairing Channel = iota
	// ChannelUser carries encrypted frames (the USDIO characteristic).
	ChannelUser
)

func (c Channel) String() string {
	switch c {
	case ChannelPairing:
		return "pairing"
	case ChannelUser:
		return "user"
	default:
		return "unknown"
	}
}

// Handler receives inbound indications. Implementations of Transport
// may invoke it from their own goroutine; receivers must serialize.
type Handler func(Channel, []byte)

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrClosed       = errors.New("transport: closed")
)

// Transport is the link the protocol core drives. Writes are
// acknowledged (write-with-response on BLE); an error means the frame
// was not delivered.
type Transport interface {
	Connect(ctx context.Context, addr [6]byte) error
	IsConnected() bool
	WritePairing(b []byte) error
	WriteUser(b []byte) error
	SetHandler(h Handler)
	Close() error
}
