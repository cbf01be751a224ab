// Package mem is an in-process transport over net.Pipe. It exists for tests:
// a scripted server sits on one end while the client under test dials the
// other through the normal Dialer contract.
package mem

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

// Transport holds named in-process listeners.
type Transport struct {
	mu        sync.Mutex
	listeners map[string]*Listener
}

func New() *Transport { return &Transport{listeners: make(map[string]*Listener)} }

// Listen registers a named endpoint. Each Dial to the name yields one server
// side net.Conn on Accept.
func (t *Transport) Listen(name string) (*Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.listeners[name]; ok {
		return nil, fmt.Errorf("mem: listener %q already exists", name)
	}
	l := &Listener{name: name, newCh: make(chan net.Conn, 8), closeCh: make(chan struct{})}
	t.listeners[name] = l
	return l, nil
}

// Dialer returns a transport.Dialer that connects to listeners on t.
func (t *Transport) Dialer() transport.Dialer { return &dialer{t: t} }

type dialer struct{ t *Transport }

func (d *dialer) Kind() transport.Kind { return transport.KindMem }

func (d *dialer) Dial(_ context.Context, name string) (transport.Conn, error) {
	d.t.mu.Lock()
	l := d.t.listeners[name]
	d.t.mu.Unlock()
	if l == nil {
		return nil, fmt.Errorf("%w: mem: no listener %q", transport.ErrDial, name)
	}
	srv, cli := net.Pipe()
	select {
	case l.newCh <- srv:
	case <-l.closeCh:
		_ = srv.Close()
		_ = cli.Close()
		return nil, fmt.Errorf("%w: mem: listener %q closed", transport.ErrDial, name)
	}
	return transport.NewConn(cli, transport.Timeouts{}), nil
}

// Listener yields the server side of dialed pipes.
type Listener struct {
	name    string
	newCh   chan net.Conn
	closeCh chan struct{}
}

func (l *Listener) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closeCh:
		return nil, errors.New("mem listener closed")
	case c := <-l.newCh:
		return c, nil
	}
}

func (l *Listener) Close() error {
	select {
	case <-l.closeCh:
	default:
		close(l.closeCh)
	}
	return nil
}
