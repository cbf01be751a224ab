// Package quic dials the server over a single bidirectional QUIC stream,
// for deployments that front the storage server with a QUIC listener.
package quic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	quicgo "github.com/quic-go/quic-go"

	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

const alpnProto = "backup/1"

// Dialer dials QUIC connections and opens one stream per operation.
type Dialer struct {
	timeouts transport.Timeouts
	tlsConf  *tls.Config
	quicConf *quicgo.Config
}

// New builds a Dialer. With insecure set, server certificates are not
// verified; the per-connection user identity is the only peer binding, same
// as on plain TCP.
func New(t transport.Timeouts, insecure bool) *Dialer {
	return &Dialer{
		timeouts: t,
		tlsConf: &tls.Config{
			InsecureSkipVerify: insecure,
			NextProtos:         []string{alpnProto},
			MinVersion:         tls.VersionTLS13,
		},
		quicConf: &quicgo.Config{},
	}
}

func (d *Dialer) Kind() transport.Kind { return transport.KindQUIC }

func (d *Dialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
	if d.timeouts.Dial > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeouts.Dial)
		defer cancel()
	}
	qc, err := quicgo.DialAddr(ctx, address, d.tlsConf, d.quicConf)
	if err != nil {
		return nil, fmt.Errorf("%w: quic %s: %v", transport.ErrDial, address, err)
	}
	st, err := qc.OpenStreamSync(ctx)
	if err != nil {
		_ = qc.CloseWithError(0, "open stream failed")
		return nil, fmt.Errorf("%w: quic stream %s: %v", transport.ErrDial, address, err)
	}
	return transport.NewConn(&streamNetConn{Stream: st, qc: qc}, d.timeouts), nil
}

// streamNetConn presents one QUIC stream as a net.Conn; closing it closes the
// whole QUIC connection, matching the one-operation-per-connection model.
type streamNetConn struct {
	quicgo.Stream
	qc quicgo.Connection
}

func (c *streamNetConn) LocalAddr() net.Addr  { return c.qc.LocalAddr() }
func (c *streamNetConn) RemoteAddr() net.Addr { return c.qc.RemoteAddr() }

func (c *streamNetConn) Close() error {
	_ = c.Stream.Close()
	return c.qc.CloseWithError(0, "")
}
