// Package tcp dials the server over plain TCP.
package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

// Dialer dials TCP connections with the configured timeouts.
type Dialer struct {
	timeouts transport.Timeouts
}

func New(t transport.Timeouts) *Dialer { return &Dialer{timeouts: t} }

func (d *Dialer) Kind() transport.Kind { return transport.KindTCP }

func (d *Dialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
	nd := &net.Dialer{Timeout: d.timeouts.Dial}
	c, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: tcp %s: %v", transport.ErrDial, address, err)
	}
	return transport.NewConn(c, d.timeouts), nil
}
