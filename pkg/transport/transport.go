// Package transport owns the byte-stream connection to one server endpoint.
// It moves exact byte counts in both directions and reports failures upward;
// retry policy does not live here.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

// Kind identifies the link type used to reach the server.
type Kind int

const (
	KindUnknown Kind = iota
	KindTCP
	KindQUIC
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindQUIC:
		return "quic"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

var (
	// ErrDial marks a connection that could not be established.
	ErrDial = errors.New("transport: dial failed")
	// ErrIO marks a send or receive that did not move the full byte count.
	ErrIO = errors.New("transport: i/o failed")
)

// Timeouts apply independently to dialing and to each send/receive call.
// Zero means no deadline.
type Timeouts struct {
	Dial  time.Duration
	Read  time.Duration
	Write time.Duration
}

// Conn is a single bidirectional byte stream. Exactly one operation owns a
// Conn at a time; Close is idempotent.
type Conn interface {
	// Reader exposes the buffered receive side so message decoding can pull
	// exactly the bytes a header declares.
	io.Reader

	// SendExact writes all of b or fails with an error matching ErrIO.
	SendExact(b []byte) error
	// RecvExact blocks until exactly n bytes arrive or the read fails with
	// an error matching ErrIO.
	RecvExact(n int) ([]byte, error)

	RemoteAddr() net.Addr
	Close() error
}

// Dialer establishes outbound connections of one Kind.
type Dialer interface {
	Kind() Kind
	Dial(ctx context.Context, address string) (Conn, error)
}
