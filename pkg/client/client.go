// Package client drives the backup protocol: it sequences codec-framed
// request/response exchanges over one connection per operation and turns
// server responses into typed outcomes.
package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ScorpioXKiller/client-backup-app/pkg/config"
	"github.com/ScorpioXKiller/client-backup-app/pkg/localfs"
	"github.com/ScorpioXKiller/client-backup-app/pkg/metrics"
	"github.com/ScorpioXKiller/client-backup-app/pkg/protocol"
	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

// defaultChunkSize is the write granularity for streaming file content.
const defaultChunkSize = 64 << 10

// Client runs operations against one server endpoint. Safe for sequential
// use; concurrent operations need separate connections and therefore run
// fine on the same Client, each operation dialing its own.
type Client struct {
	endpoint  config.Endpoint
	userID    uint32
	dialer    transport.Dialer
	fs        localfs.FS
	logger    *zap.Logger
	collector *metrics.Collector
	chunkSize int
}

// Option tweaks Client construction.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option         { return func(c *Client) { c.logger = l } }
func WithMetrics(m *metrics.Collector) Option { return func(c *Client) { c.collector = m } }
func WithFS(fs localfs.FS) Option             { return func(c *Client) { c.fs = fs } }
func WithChunkSize(n int) Option              { return func(c *Client) { c.chunkSize = n } }

// New builds a Client for the endpoint, identified to the server by userID.
func New(ep config.Endpoint, userID uint32, d transport.Dialer, opts ...Option) *Client {
	c := &Client{
		endpoint:  ep,
		userID:    userID,
		dialer:    d,
		fs:        localfs.OS{},
		logger:    zap.NewNop(),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunkSize <= 0 {
		c.chunkSize = defaultChunkSize
	}
	return c
}

// UserID reports the identity sent in every request header.
func (c *Client) UserID() uint32 { return c.userID }

// session owns the single connection of one operation from dial to close.
type session struct {
	c     *Client
	op    Op
	conn  transport.Conn
	state opState
}

func (c *Client) connect(ctx context.Context, op Op) (*session, error) {
	s := &session{c: c, op: op, state: stateIdle}
	conn, err := c.dialer.Dial(ctx, c.endpoint.Addr())
	if err != nil {
		s.state = stateFailed
		return nil, err
	}
	s.conn = conn
	s.setState(stateConnected)
	return s, nil
}

func (s *session) setState(st opState) {
	s.c.logger.Debug("operation state",
		zap.String("op", string(s.op)),
		zap.Stringer("from", s.state),
		zap.Stringer("to", st),
	)
	s.state = st
}

// finish closes the connection on every exit path and settles the terminal
// state.
func (s *session) finish(ok bool) {
	if ok {
		s.setState(stateCompleted)
	} else {
		s.setState(stateFailed)
	}
	_ = s.conn.Close()
}

func (s *session) request(code protocol.RequestCode, name string) *protocol.Request {
	return &protocol.Request{
		UserID:  s.c.userID,
		Version: protocol.Version,
		Code:    code,
		Name:    name,
	}
}

// roundTrip performs one request/response exchange. content is the file body
// for backup requests, streamed in chunks after the size field. Any error it
// returns is fatal to the operation: the connection can no longer be trusted
// to be in a message boundary.
func (s *session) roundTrip(req *protocol.Request, content []byte) (*protocol.Response, error) {
	hdr, err := req.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := s.conn.SendExact(hdr); err != nil {
		return nil, err
	}
	if req.Code == protocol.ReqBackup {
		if err := s.conn.SendExact(protocol.EncodeSize(uint32(len(content)))); err != nil {
			return nil, err
		}
		for off := 0; off < len(content); off += s.c.chunkSize {
			end := off + s.c.chunkSize
			if end > len(content) {
				end = len(content)
			}
			if err := s.conn.SendExact(content[off:end]); err != nil {
				return nil, err
			}
		}
		s.c.collector.AddBytesSent(len(content))
	}

	s.setState(stateAwaitingResponse)
	resp, err := protocol.ReadResponse(s.conn)
	if err != nil {
		return nil, err
	}
	if resp.Version != protocol.Version {
		return nil, fmt.Errorf("%w: server speaks version %d, client version %d",
			protocol.ErrVersionMismatch, resp.Version, protocol.Version)
	}
	s.setState(stateProcessing)
	s.c.collector.AddBytesReceived(len(resp.Payload))
	return resp, nil
}
