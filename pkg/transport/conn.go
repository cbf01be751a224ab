package transport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// streamConn adapts any net.Conn into an exact-transfer Conn with buffered
// reads, per-call deadlines and an idempotent Close.
type streamConn struct {
	wmu sync.Mutex
	c   net.Conn
	br  *bufio.Reader
	bw  *bufio.Writer
	t   Timeouts

	cmu    sync.Mutex
	closed bool
}

// NewConn wraps c. The zero Timeouts disables deadlines.
func NewConn(c net.Conn, t Timeouts) Conn {
	return &streamConn{c: c, br: bufio.NewReader(c), bw: bufio.NewWriter(c), t: t}
}

func (s *streamConn) RemoteAddr() net.Addr { return s.c.RemoteAddr() }

func (s *streamConn) Read(p []byte) (int, error) {
	if err := s.readDeadline(); err != nil {
		return 0, err
	}
	return s.br.Read(p)
}

func (s *streamConn) SendExact(b []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.t.Write > 0 {
		if err := s.c.SetWriteDeadline(time.Now().Add(s.t.Write)); err != nil {
			return fmt.Errorf("%w: set write deadline: %v", ErrIO, err)
		}
	}
	n, err := s.bw.Write(b)
	if err == nil {
		err = s.bw.Flush()
	}
	if err != nil {
		return fmt.Errorf("%w: sent %d of %d bytes: %v", ErrIO, n, len(b), err)
	}
	return nil
}

func (s *streamConn) RecvExact(n int) ([]byte, error) {
	if err := s.readDeadline(); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(s.br, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: received %d of %d bytes: %v", ErrIO, got, n, err)
	}
	return buf, nil
}

func (s *streamConn) readDeadline() error {
	if s.t.Read <= 0 {
		return nil
	}
	if err := s.c.SetReadDeadline(time.Now().Add(s.t.Read)); err != nil {
		return fmt.Errorf("%w: set read deadline: %v", ErrIO, err)
	}
	return nil
}

func (s *streamConn) Close() error {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.c.Close()
}
