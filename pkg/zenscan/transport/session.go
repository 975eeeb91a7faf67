package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/message"
)

// RequestState is where an outbound request is in its lifecycle.
type RequestState int

const (
	StateBuilt RequestState = iota
	StateSent
	StateAwaitingResponse
	StateParsed
	StateFailed
)

func (s RequestState) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSent:
		return "sent"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateParsed:
		return "parsed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventHandler receives raw subscription envelopes. It runs on the read
// loop and must not block.
type EventHandler func(raw []byte)

type SessionOptions struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// Timeout bounds a request whose context has no deadline.
	Timeout time.Duration
	IDs     message.TransactionIDs
}

func DefaultSessionOptions() SessionOptions {
	return SessionOptions{Logger: slog.Default(), Timeout: 30 * time.Second}
}

// Session owns a Conn and its read loop.
type Session struct {
	conn    Conn
	conv    *message.Converter
	log     *slog.Logger
	metrics *Metrics
	timeout time.Duration

	mu      sync.Mutex
	pending map[int64]chan []byte
	subs    map[string]EventHandler
	err     error

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession starts reading from conn. Close stops the loop and closes conn.
func NewSession(conn Conn, opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conn:    conn,
		conv:    message.NewConverter(opts.IDs),
		log:     opts.Logger,
		metrics: opts.Metrics,
		timeout: opts.Timeout,
		pending: make(map[int64]chan []byte),
		subs:    make(map[string]EventHandler),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.readLoop(ctx)
	return s
}

// Converter builds envelopes stamped with this session's transaction ids.
func (s *Session) Converter() *message.Converter { return s.conv }

func (s *Session) Metrics() *Metrics { return s.metrics }

func (s *Session) Close() error {
	s.cancel()
	err := s.conn.Close()
	<-s.done
	if stderrors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Err returns the error that stopped the read loop, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) readLoop(ctx context.Context) {
	defer close(s.done)
	for {
		frame, err := s.conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				err = ErrClosed
			}
			s.fail(err)
			return
		}
		s.route(frame)
	}
}

func (s *Session) route(frame []byte) {
	env, err := message.ParseEnvelope(frame)
	if err != nil {
		s.metrics.ProtocolError("")
		s.log.Warn("dropping malformed envelope", "error", err)
		return
	}

	s.mu.Lock()
	if env.TransactionID != nil {
		if ch, ok := s.pending[*env.TransactionID]; ok {
			delete(s.pending, *env.TransactionID)
			s.mu.Unlock()
			ch <- frame
			s.metrics.receivedRoute("response")
			return
		}
	}
	var handler EventHandler
	for root, h := range s.subs {
		if message.TopicMatches(env.Topic, root) {
			handler = h
			break
		}
	}
	s.mu.Unlock()

	if handler != nil {
		s.metrics.receivedRoute("event")
		handler(frame)
		return
	}
	s.metrics.receivedRoute("unrouted")
	s.log.Debug("unrouted envelope", "topic", env.Topic, "action", env.Action, "tx", env.TxID())
}

// fail records the loop's terminal error and releases every waiter.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	if !stderrors.Is(err, ErrClosed) {
		s.log.Error("transport read loop stopped", "error", err)
	}
}

// Send transmits env without waiting for a response.
func (s *Session) Send(ctx context.Context, env message.Envelope) error {
	frame, err := env.Marshal()
	if err != nil {
		return zserrors.Wrap(zserrors.ErrTransport, "marshal envelope", err)
	}
	if err := s.Err(); err != nil {
		return err
	}
	return s.conn.Send(ctx, frame)
}

// Request sends env and waits for the envelope carrying the same
// transaction id.
func (s *Session) Request(ctx context.Context, env message.Envelope) ([]byte, error) {
	return s.request(ctx, env, nil)
}

// request reports Sent and AwaitingResponse through advance, when non-nil.
func (s *Session) request(ctx context.Context, env message.Envelope, advance func(RequestState)) ([]byte, error) {
	if env.TransactionID == nil {
		return nil, zserrors.Contract("TransactionID", "request envelope has no transaction id")
	}
	id := *env.TransactionID
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ch := make(chan []byte, 1)
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	s.pending[id] = ch
	s.mu.Unlock()

	forget := func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}

	if err := s.Send(ctx, env); err != nil {
		forget()
		return nil, err
	}
	if advance != nil {
		advance(StateSent)
		advance(StateAwaitingResponse)
	}

	select {
	case frame, ok := <-ch:
		if !ok {
			return nil, s.Err()
		}
		return frame, nil
	case <-ctx.Done():
		forget()
		return nil, zserrors.Wrap(zserrors.ErrTransport, fmt.Sprintf("%s tx %d", env.Topic, id), ctx.Err())
	}
}

// Call runs one request through Built, Sent, AwaitingResponse and then
// Parsed or Failed, recording the outcome.
func Call[T any](ctx context.Context, s *Session, env message.Envelope, parse func([]byte) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	state := StateBuilt
	finish := func(err error) {
		s.metrics.request(env.Topic, state, time.Since(start))
		if err != nil {
			if e, ok := zserrors.As(err); ok && e.Code == zserrors.ErrProtocol {
				s.metrics.ProtocolError(e.Field)
			}
			s.log.Warn("request failed", "topic", env.Topic, "tx", env.TxID(), "error", err)
		}
	}

	s.metrics.inflightAdd(1)
	defer s.metrics.inflightAdd(-1)

	raw, err := s.request(ctx, env, func(next RequestState) {
		state = next
		s.log.Debug("request state", "topic", env.Topic, "tx", env.TxID(), "state", next)
	})
	if err != nil {
		state = StateFailed
		finish(err)
		return zero, err
	}
	v, err := parse(raw)
	if err != nil {
		state = StateFailed
		finish(err)
		return zero, err
	}
	state = StateParsed
	finish(nil)
	return v, nil
}

// Subscribe registers handler for root and its sub-topics, then sends env.
func (s *Session) Subscribe(ctx context.Context, root string, env message.Envelope, handler EventHandler) error {
	s.mu.Lock()
	s.subs[root] = handler
	s.mu.Unlock()
	if err := s.Send(ctx, env); err != nil {
		s.mu.Lock()
		delete(s.subs, root)
		s.mu.Unlock()
		return err
	}
	return nil
}

// Unsubscribe drops the handler for root and sends env.
func (s *Session) Unsubscribe(ctx context.Context, root string, env message.Envelope) error {
	s.mu.Lock()
	delete(s.subs, root)
	s.mu.Unlock()
	return s.Send(ctx, env)
}
