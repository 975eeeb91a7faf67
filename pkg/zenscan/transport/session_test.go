package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/message"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memConn is one end of an in-memory link; the test plays the server on
// the other end through toClient and fromClient.
type memConn struct {
	toClient   chan []byte
	fromClient chan []byte
	closeOnce  sync.Once
	closed     chan struct{}
}

func newMemConn() *memConn {
	return &memConn{
		toClient:   make(chan []byte, 16),
		fromClient: make(chan []byte, 16),
		closed:     make(chan struct{}),
	}
}

func (c *memConn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	case c.fromClient <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *memConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-c.closed:
		return nil, ErrClosed
	case f := <-c.toClient:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *memConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func quietOptions() SessionOptions {
	opts := DefaultSessionOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Timeout = 2 * time.Second
	return opts
}

func reply(t *testing.T, req []byte, topic string, data any) []byte {
	t.Helper()
	env, err := message.ParseEnvelope(req)
	require.NoError(t, err)
	out := message.Envelope{
		Controller:    message.ControllerNotify,
		Topic:         topic,
		Action:        message.ActionPublish,
		TransactionID: env.TransactionID,
	}
	if data != nil {
		out.Data, err = json.Marshal(data)
		require.NoError(t, err)
	}
	b, err := out.Marshal()
	require.NoError(t, err)
	return b
}

func TestCallCorrelatesByTransactionID(t *testing.T) {
	conn := newMemConn()
	reg := prometheus.NewRegistry()
	opts := quietOptions()
	opts.Metrics = NewMetrics(reg)
	s := NewSession(conn, opts)
	defer s.Close()

	ctx := context.Background()
	envA, err := s.Converter().QueryScanRequest("A")
	require.NoError(t, err)
	envB, err := s.Converter().CreateScanRequest(message.CreateScanDefinition{})
	require.Error(t, err, "contract errors surface before anything is sent")

	done := make(chan string, 1)
	go func() {
		id, err := Call(ctx, s, envA, func(raw []byte) (string, error) {
			env, err := message.ParseEnvelope(raw)
			return env.Topic, err
		})
		if err != nil {
			id = "error: " + err.Error()
		}
		done <- id
	}()

	req := <-conn.fromClient
	// An unrelated transaction arrives first and must not satisfy the call.
	other := message.Envelope{Controller: message.ControllerNotify, Topic: "Other", Action: message.ActionPublish}
	otherID := envA.TxID() + 100
	other.TransactionID = &otherID
	b, _ := other.Marshal()
	conn.toClient <- b
	conn.toClient <- reply(t, req, message.TopicQueryScan, nil)

	assert.Equal(t, message.TopicQueryScan, <-done)
	assert.Equal(t, message.Envelope{}, envB)

	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.requests.WithLabelValues(message.TopicQueryScan, "parsed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(opts.Metrics.inflight))
}

func TestCallParseFailureIsCounted(t *testing.T) {
	conn := newMemConn()
	opts := quietOptions()
	opts.Metrics = NewMetrics(prometheus.NewRegistry())
	s := NewSession(conn, opts)
	defer s.Close()

	env, err := s.Converter().DeleteScanRequest("A")
	require.NoError(t, err)

	go func() {
		req := <-conn.fromClient
		conn.toClient <- reply(t, req, message.TopicQueryScan, nil)
	}()

	_, err = Call(context.Background(), s, env, func(raw []byte) (struct{}, error) {
		return struct{}{}, message.ParseDeleteScanResponse(raw)
	})
	require.Error(t, err)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrProtocol))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.requests.WithLabelValues(message.TopicDeleteScan, "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.protocolErrors.WithLabelValues("Topic")))
}

func TestRequestTimesOut(t *testing.T) {
	conn := newMemConn()
	s := NewSession(conn, quietOptions())
	defer s.Close()

	env := s.Converter().QueryScansRequest()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Request(ctx, env)
	require.Error(t, err)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrTransport))
	<-conn.fromClient
}

func TestSubscriptionEventsAreRouted(t *testing.T) {
	conn := newMemConn()
	s := NewSession(conn, quietOptions())
	defer s.Close()

	events := make(chan []byte, 4)
	sub := s.Converter().ScansSubUnsubRequest(true)
	require.NoError(t, s.Subscribe(context.Background(), message.TopicScans, sub, func(raw []byte) { events <- raw }))

	sent, err := message.ParseEnvelope(<-conn.fromClient)
	require.NoError(t, err)
	assert.Equal(t, message.ActionSubscribe, sent.Action)

	event := message.Envelope{
		Controller: message.ControllerNotify,
		Topic:      "Scans!all",
		Action:     message.ActionSubscribe,
		Data:       json.RawMessage(`{"Changes":[{"Operation":"Clear"}]}`),
	}
	b, _ := event.Marshal()
	conn.toClient <- b

	select {
	case raw := <-events:
		changes, err := message.ParseScansMessage(raw)
		require.NoError(t, err)
		assert.Len(t, changes, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	require.NoError(t, s.Unsubscribe(context.Background(), message.TopicScans, s.Converter().ScansSubUnsubRequest(false)))
	<-conn.fromClient
}

func TestCloseReleasesWaiters(t *testing.T) {
	conn := newMemConn()
	s := NewSession(conn, quietOptions())

	env := s.Converter().QueryScansRequest()
	errs := make(chan error, 1)
	go func() {
		_, err := s.Request(context.Background(), env)
		errs <- err
	}()
	<-conn.fromClient
	require.NoError(t, s.Close())

	err := <-errs
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Send(context.Background(), env), ErrClosed)
}

func TestRequestStateNames(t *testing.T) {
	var names []string
	for _, st := range []RequestState{StateBuilt, StateSent, StateAwaitingResponse, StateParsed, StateFailed} {
		names = append(names, st.String())
	}
	assert.Equal(t, []string{"built", "sent", "awaiting_response", "parsed", "failed"}, names)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ProtocolError("Topic")
	m.ChangesApplied(1, 2, 3, 4)
	m.request("QueryScan", StateParsed, time.Second)
}
