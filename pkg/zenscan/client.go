// Package zenscan is the client facade over the Zenith scan lifecycle
// protocol: it sends lifecycle requests over a transport session and keeps
// a local collection (and optionally a store) in step with the server's
// scan list.
package zenscan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/message"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
	"github.com/nonibytes/zenscan/pkg/zenscan/store"
	"github.com/nonibytes/zenscan/pkg/zenscan/transport"
)

type ClientOptions struct {
	Logger *slog.Logger
	// Store, when non-nil, receives every applied change batch.
	Store *store.Store
	Now   func() time.Time
	// EditSessionID is stamped into metadata on create and update. A random
	// UUID is used when empty.
	EditSessionID string
}

type Client struct {
	session *transport.Session
	store   *store.Store
	scans   *scanlist.Collection
	log     *slog.Logger
	now     func() time.Time
	editID  string

	mu     sync.Mutex
	events chan []byte
	stop   chan struct{}
	pumpWG sync.WaitGroup
}

func NewClient(s *transport.Session, opts ClientOptions) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EditSessionID == "" {
		opts.EditSessionID = uuid.NewString()
	}
	return &Client{
		session: s,
		store:   opts.Store,
		scans:   scanlist.NewCollection(),
		log:     opts.Logger,
		now:     opts.Now,
		editID:  opts.EditSessionID,
	}
}

// Scans is the locally maintained scan list.
func (c *Client) Scans() *scanlist.Collection { return c.scans }

func (c *Client) Store() *store.Store { return c.store }

func (c *Client) EditSessionID() string { return c.editID }

// Warm loads the store's snapshot into the collection.
func (c *Client) Warm(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.LoadInto(ctx, c.scans)
}

// CreateScan saves a new scan and returns the server-assigned id. The
// metadata is stamped with a fresh version id and this client's edit
// session.
func (c *Client) CreateScan(ctx context.Context, def message.CreateScanDefinition) (string, error) {
	def.Metadata = def.Metadata.Saved(uuid.NewString(), c.editID, c.now())
	env, err := c.session.Converter().CreateScanRequest(def)
	if err != nil {
		return "", err
	}
	id, err := transport.Call(ctx, c.session, env, message.ParseCreateScanResponse)
	if err != nil {
		return "", err
	}
	c.log.Info("scan created", "scan", id, "name", def.Name)
	return id, nil
}

func (c *Client) QueryScan(ctx context.Context, id string) (scan.Descriptor, error) {
	env, err := c.session.Converter().QueryScanRequest(id)
	if err != nil {
		return scan.Descriptor{}, err
	}
	return transport.Call(ctx, c.session, env, message.ParseQueryScanResponse)
}

// UpdateScan saves d as the next version of its scan and returns the
// metadata that was sent.
func (c *Client) UpdateScan(ctx context.Context, d scan.Descriptor) (scan.Descriptor, error) {
	d.Metadata = d.Metadata.Saved(uuid.NewString(), c.editID, c.now())
	env, err := c.session.Converter().UpdateScanRequest(d)
	if err != nil {
		return scan.Descriptor{}, err
	}
	if _, err := transport.Call(ctx, c.session, env, ack(message.ParseUpdateScanResponse)); err != nil {
		return scan.Descriptor{}, err
	}
	c.log.Info("scan updated", "scan", d.ID, "version", d.Metadata.VersionNumber)
	return d, nil
}

func (c *Client) DeleteScan(ctx context.Context, id string) error {
	env, err := c.session.Converter().DeleteScanRequest(id)
	if err != nil {
		return err
	}
	_, err = transport.Call(ctx, c.session, env, ack(message.ParseDeleteScanResponse))
	if err == nil {
		c.log.Info("scan deleted", "scan", id)
	}
	return err
}

// ExecuteScan asks the server to run criteria once. Nothing is awaited.
func (c *Client) ExecuteScan(ctx context.Context, def message.ExecuteScanDefinition) error {
	env, err := c.session.Converter().ExecuteScanRequest(def)
	if err != nil {
		return err
	}
	return c.session.Send(ctx, env)
}

// QueryScans fetches the full scan list once and applies it.
func (c *Client) QueryScans(ctx context.Context) (scanlist.ApplyStats, error) {
	changes, err := transport.Call(ctx, c.session, c.session.Converter().QueryScansRequest(), message.ParseQueryScansResponse)
	if err != nil {
		return scanlist.ApplyStats{}, err
	}
	return c.Apply(ctx, changes)
}

// Apply folds changes into the collection, then the store, and records
// them.
func (c *Client) Apply(ctx context.Context, changes []scan.Change) (scanlist.ApplyStats, error) {
	stats := c.scans.Apply(changes)
	if c.store != nil {
		if _, err := c.store.Apply(ctx, changes); err != nil {
			return stats, err
		}
	}
	c.session.Metrics().ChangesApplied(stats.Added, stats.Updated, stats.Removed, stats.Cleared)
	c.log.Debug("changes applied", "added", stats.Added, "updated", stats.Updated,
		"removed", stats.Removed, "cleared", stats.Cleared)
	return stats, nil
}

// SubscribeScans starts applying scan list events. onApplied, when non-nil,
// is called after each batch; a batch that fails to parse or apply is
// reported with a nil stats value and the error.
func (c *Client) SubscribeScans(ctx context.Context, onApplied func(scanlist.ApplyStats, error)) error {
	c.mu.Lock()
	if c.events != nil {
		c.mu.Unlock()
		return zserrors.Contract("Scans", "already subscribed")
	}
	events := make(chan []byte, 64)
	stop := make(chan struct{})
	c.events, c.stop = events, stop
	c.mu.Unlock()

	c.pumpWG.Add(1)
	go c.pump(events, stop, onApplied)

	handler := func(raw []byte) {
		select {
		case events <- raw:
		case <-stop:
		}
	}
	err := c.session.Subscribe(ctx, message.TopicScans, c.session.Converter().ScansSubUnsubRequest(true), handler)
	if err != nil {
		c.stopPump()
		return err
	}
	return nil
}

// UnsubscribeScans stops applying events and tells the server.
func (c *Client) UnsubscribeScans(ctx context.Context) error {
	if !c.stopPump() {
		return nil
	}
	return c.session.Unsubscribe(ctx, message.TopicScans, c.session.Converter().ScansSubUnsubRequest(false))
}

func (c *Client) stopPump() bool {
	c.mu.Lock()
	stop := c.stop
	c.events, c.stop = nil, nil
	c.mu.Unlock()
	if stop == nil {
		return false
	}
	close(stop)
	c.pumpWG.Wait()
	return true
}

func (c *Client) pump(events <-chan []byte, stop <-chan struct{}, onApplied func(scanlist.ApplyStats, error)) {
	defer c.pumpWG.Done()
	for {
		select {
		case <-stop:
			return
		case raw := <-events:
			stats, err := c.applyEvent(raw)
			if err != nil {
				c.log.Warn("scan list event rejected", "error", err)
			}
			if onApplied != nil {
				onApplied(stats, err)
			}
		}
	}
}

func (c *Client) applyEvent(raw []byte) (scanlist.ApplyStats, error) {
	changes, err := message.ParseScansMessage(raw)
	if err != nil {
		if e, ok := zserrors.As(err); ok && e.Code == zserrors.ErrProtocol {
			c.session.Metrics().ProtocolError(e.Field)
		}
		return scanlist.ApplyStats{}, err
	}
	return c.Apply(context.Background(), changes)
}

// Close stops any subscription pump, then the session and store.
func (c *Client) Close() error {
	c.stopPump()
	err := c.session.Close()
	if c.store != nil {
		if serr := c.store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// ack adapts an acknowledgement parser to transport.Call.
func ack(parse func([]byte) error) func([]byte) (struct{}, error) {
	return func(raw []byte) (struct{}, error) {
		return struct{}{}, parse(raw)
	}
}
