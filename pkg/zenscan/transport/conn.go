// Package transport carries scan lifecycle envelopes between a client and
// the Zenith server. A Conn moves frames; a Session correlates responses to
// requests by transaction id and routes subscription events.
package transport

import (
	"context"
	stderrors "errors"
)

// Conn is a duplex frame link. Receive blocks until a frame arrives, the
// context ends or the link closes. Send may be called concurrently with
// Receive.
type Conn interface {
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// ErrClosed is returned by a Conn or Session used after Close.
var ErrClosed = stderrors.New("transport: closed")
