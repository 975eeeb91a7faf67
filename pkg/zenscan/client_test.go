package zenscan_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nonibytes/zenscan/pkg/zenscan"
	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/message"
	"github.com/nonibytes/zenscan/pkg/zenscan/metadata"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
	"github.com/nonibytes/zenscan/pkg/zenscan/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeServer answers client envelopes from a handler keyed by topic.
type fakeServer struct {
	toClient   chan []byte
	fromClient chan []byte
	closed     chan struct{}
	closeOnce  sync.Once

	mu       sync.Mutex
	received []message.Envelope
	handle   func(env message.Envelope) any
	done     chan struct{}
}

func newFakeServer(handle func(env message.Envelope) any) *fakeServer {
	s := &fakeServer{
		toClient:   make(chan []byte, 16),
		fromClient: make(chan []byte, 16),
		closed:     make(chan struct{}),
		handle:     handle,
		done:       make(chan struct{}),
	}
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	defer close(s.done)
	for {
		select {
		case <-s.closed:
			return
		case frame := <-s.fromClient:
			env, err := message.ParseEnvelope(frame)
			if err != nil {
				continue
			}
			s.mu.Lock()
			s.received = append(s.received, env)
			s.mu.Unlock()
			if data := s.handle(env); data != nil {
				s.push(env.Topic, message.ActionPublish, env.TransactionID, data)
			}
		}
	}
}

func (s *fakeServer) push(topic string, action message.Action, tx *int64, data any) {
	out := message.Envelope{
		Controller:    message.ControllerNotify,
		Topic:         topic,
		Action:        action,
		TransactionID: tx,
	}
	if _, ack := data.(ackOnly); !ack {
		out.Data, _ = json.Marshal(data)
	}
	b, _ := out.Marshal()
	select {
	case s.toClient <- b:
	case <-s.closed:
	}
}

func (s *fakeServer) envelopes() []message.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.Envelope(nil), s.received...)
}

// ackOnly answers with an envelope that has no Data.
type ackOnly struct{}

func (s *fakeServer) Send(ctx context.Context, frame []byte) error {
	select {
	case <-s.closed:
		return transport.ErrClosed
	case s.fromClient <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeServer) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-s.closed:
		return nil, transport.ErrClosed
	case f := <-s.toClient:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeServer) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	<-s.done
	return nil
}

func newClient(t *testing.T, srv *fakeServer, reg prometheus.Registerer, opts zenscan.ClientOptions) *zenscan.Client {
	t.Helper()
	sopts := transport.DefaultSessionOptions()
	sopts.Logger = quiet
	sopts.Timeout = 2 * time.Second
	if reg != nil {
		sopts.Metrics = transport.NewMetrics(reg)
	}
	opts.Logger = quiet
	c := zenscan.NewClient(transport.NewSession(srv, sopts), opts)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func hasBid(t *testing.T) criteria.BoolNode {
	t.Helper()
	n, err := criteria.NewFieldHasValue("Bid")
	require.NoError(t, err)
	return n
}

func wireScan(t *testing.T, id, name string) *scan.Wire {
	t.Helper()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	w, err := scan.Snapshot(scan.Descriptor{
		ID:       id,
		Name:     name,
		Metadata: metadata.Metadata{VersionID: "v-" + id, LastSavedTime: &at},
		Target:   scan.MarketsTarget("ASX"),
		Criteria: hasBid(t),
		Active:   true,
	})
	require.NoError(t, err)
	return &w
}

func changes(records ...scanlist.Record) map[string]any {
	return map[string]any{"Changes": records}
}

func TestCreateScanStampsMetadata(t *testing.T) {
	srv := newFakeServer(func(env message.Envelope) any {
		if env.Topic == message.TopicCreateScan {
			return map[string]string{"ScanID": "new-1"}
		}
		return nil
	})
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	c := newClient(t, srv, nil, zenscan.ClientOptions{EditSessionID: "edit-1", Now: func() time.Time { return now }})

	id, err := c.CreateScan(context.Background(), message.CreateScanDefinition{
		Name:     "bid present",
		Criteria: hasBid(t),
		Target:   scan.SymbolsTarget("BHP.ASX"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)

	sent := srv.envelopes()
	require.Len(t, sent, 1)
	var body scan.Wire
	require.NoError(t, json.Unmarshal(sent[0].Data, &body))
	meta := metadata.ToDomain(body.MetaData)
	assert.NotEmpty(t, meta.VersionID)
	assert.EqualValues(t, 1, meta.VersionNumber)
	assert.Equal(t, "edit-1", meta.LastEditSessionID)
	require.NotNil(t, meta.LastSavedTime)
	assert.True(t, now.Equal(*meta.LastSavedTime))
}

func TestCreateScanContractErrorSendsNothing(t *testing.T) {
	srv := newFakeServer(func(message.Envelope) any { return nil })
	c := newClient(t, srv, nil, zenscan.ClientOptions{})

	_, err := c.CreateScan(context.Background(), message.CreateScanDefinition{
		Name:     "both",
		Criteria: hasBid(t),
		Target:   scan.Target{Type: scan.TargetSymbols, Symbols: []string{"A"}, Markets: []string{"ASX"}},
	})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract))
	assert.Empty(t, srv.envelopes())
}

func TestUpdateScanBumpsVersion(t *testing.T) {
	srv := newFakeServer(func(env message.Envelope) any {
		if env.Topic == message.TopicUpdateScan {
			return ackOnly{}
		}
		return nil
	})
	c := newClient(t, srv, nil, zenscan.ClientOptions{EditSessionID: "edit-2"})

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := scan.Descriptor{
		ID:       "s1",
		Name:     "bid present",
		Metadata: metadata.Metadata{VersionID: "old", VersionNumber: 4, LastSavedTime: &at},
		Target:   scan.SymbolsTarget("BHP.ASX"),
		Criteria: hasBid(t),
	}
	saved, err := c.UpdateScan(context.Background(), d)
	require.NoError(t, err)
	assert.EqualValues(t, 5, saved.Metadata.VersionNumber)
	assert.NotEqual(t, "old", saved.Metadata.VersionID)
	assert.Equal(t, "edit-2", saved.Metadata.LastEditSessionID)
}

func TestQueryAndDeleteScan(t *testing.T) {
	alpha := wireScan(t, "s1", "alpha")
	srv := newFakeServer(func(env message.Envelope) any {
		switch env.Topic {
		case message.TopicQueryScan:
			return alpha
		case message.TopicDeleteScan:
			return ackOnly{}
		}
		return nil
	})
	c := newClient(t, srv, nil, zenscan.ClientOptions{})
	ctx := context.Background()

	d, err := c.QueryScan(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", d.Name)
	assert.True(t, criteria.Equal(hasBid(t), d.Criteria))

	require.NoError(t, c.DeleteScan(ctx, "s1"))
}

func TestExecuteScanIsFireAndForget(t *testing.T) {
	srv := newFakeServer(func(message.Envelope) any { return nil })
	c := newClient(t, srv, nil, zenscan.ClientOptions{})

	err := c.ExecuteScan(context.Background(), message.ExecuteScanDefinition{
		Criteria: hasBid(t),
		Target:   scan.MarketsTarget("ASX"),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(srv.envelopes()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, message.TopicExecuteScan, srv.envelopes()[0].Topic)
}

func TestQueryScansFillsCollectionAndStore(t *testing.T) {
	list := changes(
		scanlist.Record{Operation: "Clear"},
		scanlist.Record{Operation: "Add", Scan: wireScan(t, "s1", "alpha")},
		scanlist.Record{Operation: "Add", Scan: wireScan(t, "s2", "beta")},
	)
	srv := newFakeServer(func(env message.Envelope) any {
		if env.Topic == message.TopicQueryScans {
			return list
		}
		return nil
	})
	ctx := context.Background()
	st, err := zenscan.OpenStore(ctx, zenscan.OpenOptions{
		StoreBackend: "sqlite",
		SQLitePath:   filepath.Join(t.TempDir(), "scans.db"),
		Logger:       quiet,
	})
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	c := newClient(t, srv, reg, zenscan.ClientOptions{Store: st})

	stats, err := c.QueryScans(ctx)
	require.NoError(t, err)
	assert.Equal(t, scanlist.ApplyStats{Added: 2, Cleared: 1}, stats)
	assert.Equal(t, 2, c.Scans().Len())

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	const want = `
# HELP zenscan_scan_changes_total scan list changes applied, by operation
# TYPE zenscan_scan_changes_total counter
zenscan_scan_changes_total{op="Add"} 2
zenscan_scan_changes_total{op="Clear"} 1
zenscan_scan_changes_total{op="Remove"} 0
zenscan_scan_changes_total{op="Update"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "zenscan_scan_changes_total"))
}

func TestSubscribeScansAppliesEvents(t *testing.T) {
	srv := newFakeServer(func(message.Envelope) any { return nil })
	c := newClient(t, srv, nil, zenscan.ClientOptions{})
	ctx := context.Background()

	applied := make(chan error, 4)
	require.NoError(t, c.SubscribeScans(ctx, func(_ scanlist.ApplyStats, err error) { applied <- err }))
	assert.True(t, zserrors.IsCode(c.SubscribeScans(ctx, nil), zserrors.ErrContract))

	srv.push(message.TopicScans, message.ActionSubscribe, nil, changes(
		scanlist.Record{Operation: "Add", Scan: wireScan(t, "s1", "alpha")},
	))
	require.NoError(t, <-applied)
	srv.push(message.TopicScans+message.SubTopicSeparator+"ASX", message.ActionSubscribe, nil, changes(
		scanlist.Record{Operation: "Update", Scan: wireScan(t, "s1", "alpha v2")},
		scanlist.Record{Operation: "Add", Scan: wireScan(t, "s2", "beta")},
	))
	require.NoError(t, <-applied)

	got, ok := c.Scans().Get("s1")
	require.True(t, ok)
	assert.Equal(t, "alpha v2", got.Name)
	assert.Equal(t, 2, c.Scans().Len())

	srv.push(message.TopicScans, message.ActionSubscribe, nil, changes(scanlist.Record{Operation: "Rename"}))
	err := <-applied
	assert.True(t, zserrors.IsCode(err, zserrors.ErrProtocol))
	assert.Equal(t, 2, c.Scans().Len())

	require.NoError(t, c.UnsubscribeScans(ctx))
	sent := srv.envelopes()
	require.NotEmpty(t, sent)
	last := sent[len(sent)-1]
	assert.Equal(t, message.ActionUnsubscribe, last.Action)
	assert.Equal(t, message.TopicScans, last.Topic)
}

func TestOpenRejectsUnknownBackends(t *testing.T) {
	ctx := context.Background()

	st, err := zenscan.OpenStore(ctx, zenscan.OpenOptions{StoreBackend: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = zenscan.OpenStore(ctx, zenscan.OpenOptions{StoreBackend: "redis"})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrConfig))

	_, err = zenscan.Dial(ctx, zenscan.OpenOptions{Transport: "smoke"})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrConfig))
}
