package transport

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

// NATSOptions configure a relay over NATS: requests are published on
// Prefix+".requests", inbound envelopes arrive on Prefix+".envelopes".
type NATSOptions struct {
	URL           string
	Prefix        string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	// Buffer is the inbound channel size.
	Buffer int
}

func DefaultNATSOptions() NATSOptions {
	return NATSOptions{
		URL:           nats.DefaultURL,
		Prefix:        "zenscan",
		Name:          "zenscan",
		MaxReconnects: 5,
		ReconnectWait: time.Second,
		Buffer:        256,
	}
}

func (o NATSOptions) RequestSubject() string  { return o.Prefix + ".requests" }
func (o NATSOptions) EnvelopeSubject() string { return o.Prefix + ".envelopes" }

type natsConn struct {
	nc   *nats.Conn
	sub  *nats.Subscription
	in   chan *nats.Msg
	opts NATSOptions
	// ownsConn is false when the caller supplied nc.
	ownsConn bool

	closeOnce sync.Once
	closed    chan struct{}
}

// ConnectNATS dials the NATS server and subscribes to the envelope subject.
func ConnectNATS(ctx context.Context, opts NATSOptions) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nc, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
	)
	if err != nil {
		return nil, zserrors.Wrap(zserrors.ErrTransport, "nats connect "+opts.URL, err)
	}
	c, err := newNATSConn(nc, opts)
	if err != nil {
		nc.Close()
		return nil, err
	}
	c.ownsConn = true
	return c, nil
}

// NewNATSConn relays over an existing connection, which Close leaves open.
func NewNATSConn(nc *nats.Conn, opts NATSOptions) (Conn, error) {
	return newNATSConn(nc, opts)
}

func newNATSConn(nc *nats.Conn, opts NATSOptions) (*natsConn, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	c := &natsConn{
		nc:     nc,
		in:     make(chan *nats.Msg, opts.Buffer),
		opts:   opts,
		closed: make(chan struct{}),
	}
	sub, err := nc.ChanSubscribe(opts.EnvelopeSubject(), c.in)
	if err != nil {
		return nil, zserrors.Wrap(zserrors.ErrTransport, "nats subscribe "+opts.EnvelopeSubject(), err)
	}
	c.sub = sub
	return c, nil
}

func (c *natsConn) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	if err := c.nc.Publish(c.opts.RequestSubject(), frame); err != nil {
		return zserrors.Wrap(zserrors.ErrTransport, "nats publish", err)
	}
	return nil
}

func (c *natsConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	case msg := <-c.in:
		return msg.Data, nil
	}
}

func (c *natsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.sub.Unsubscribe()
		if c.ownsConn {
			c.nc.Close()
		}
	})
	return err
}
