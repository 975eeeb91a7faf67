package transport

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

type WebsocketOptions struct {
	Header           http.Header
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func DefaultWebsocketOptions() WebsocketOptions {
	return WebsocketOptions{HandshakeTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}
}

// wsConn sends each envelope as one text frame.
type wsConn struct {
	ws   *websocket.Conn
	opts WebsocketOptions

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// DialWebsocket opens a websocket to the Zenith endpoint.
func DialWebsocket(ctx context.Context, url string, opts WebsocketOptions) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		return nil, zserrors.Wrap(zserrors.ErrTransport, "websocket dial "+url, err)
	}
	return NewWebsocketConn(ws, opts), nil
}

// NewWebsocketConn wraps an established websocket.
func NewWebsocketConn(ws *websocket.Conn, opts WebsocketOptions) Conn {
	return &wsConn{ws: ws, opts: opts}
}

func (c *wsConn) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.opts.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return c.mapErr(err)
	}
	return nil
}

// Receive ignores ctx while blocked in the read; Close unblocks it.
func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, c.mapErr(err)
		}
		switch kind {
		case websocket.TextMessage, websocket.BinaryMessage:
			return data, nil
		}
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *wsConn) mapErr(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		stderrors.Is(err, websocket.ErrCloseSent) {
		return ErrClosed
	}
	return zserrors.Wrap(zserrors.ErrTransport, "websocket", err)
}
