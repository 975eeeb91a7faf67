// Package store persists the scan list a client has synchronised, so a
// restarted client can serve the last known scans before resubscribing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
	"github.com/nonibytes/zenscan/pkg/zenscan/store/sqlbuilder"
)

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

func DefaultOptions() Options {
	return Options{Logger: slog.Default(), Now: time.Now}
}

// Store is a scan snapshot table behind an Adapter.
type Store struct {
	adapter Adapter
	db      *sql.DB
	sql     SQL
	opts    Options
}

// Open connects, initialises the schema and checks the store magic.
func Open(ctx context.Context, a Adapter, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	db, err := a.Connect(ctx)
	if err != nil {
		return nil, zserrors.Wrap(zserrors.ErrStore, "connect", err)
	}
	if err := a.Init(ctx, db); err != nil {
		_ = db.Close()
		return nil, zserrors.Wrap(zserrors.ErrStore, "init", err)
	}
	s := &Store{adapter: a, db: db, sql: a.SQL(), opts: opts}

	var magic string
	if err := db.QueryRowContext(ctx, s.sql.GetMeta, MetaMagic).Scan(&magic); err != nil {
		_ = db.Close()
		return nil, zserrors.Wrap(zserrors.ErrStore, "read magic", err)
	}
	if magic != Magic {
		_ = db.Close()
		return nil, zserrors.NewError(zserrors.ErrStore, fmt.Sprintf("%s is not a zenscan store", a.StoreID()))
	}
	opts.Logger.Debug("store opened", "backend", a.Backend(), "store", a.StoreID())
	return s, nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if cerr := s.adapter.Close(); err == nil {
		err = cerr
	}
	return err
}

// Apply writes a change batch in one transaction, in order. Clear deletes
// every stored scan before the changes after it.
func (s *Store) Apply(ctx context.Context, changes []scan.Change) (scanlist.ApplyStats, error) {
	var st scanlist.ApplyStats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return st, zserrors.Wrap(zserrors.ErrStore, "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.opts.Now()
	for i, ch := range changes {
		switch v := ch.(type) {
		case scan.Clear:
			_, err = tx.ExecContext(ctx, s.sql.ClearScans)
			st.Cleared++
		case scan.Add:
			err = s.upsert(ctx, tx, v.Scan, now)
			st.Added++
		case scan.Update:
			err = s.upsert(ctx, tx, v.Scan, now)
			st.Updated++
		case scan.Remove:
			_, err = tx.ExecContext(ctx, s.sql.DeleteScan, v.ID)
			st.Removed++
		}
		if err != nil {
			return scanlist.ApplyStats{}, zserrors.Wrap(zserrors.ErrStore, fmt.Sprintf("apply change %d (%s)", i, ch.Op()), err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.sql.SetMeta, MetaLastSyncAt, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		return scanlist.ApplyStats{}, zserrors.Wrap(zserrors.ErrStore, "record sync time", err)
	}
	if err := tx.Commit(); err != nil {
		return scanlist.ApplyStats{}, zserrors.Wrap(zserrors.ErrStore, "commit", err)
	}
	s.opts.Logger.Debug("applied scan changes",
		"added", st.Added, "updated", st.Updated, "removed", st.Removed, "cleared", st.Cleared)
	return st, nil
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, d scan.Descriptor, now time.Time) error {
	w, err := scan.Snapshot(d)
	if err != nil {
		return err
	}
	b, err := json.Marshal(w)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.sql.UpsertScan, d.ID, d.Name, d.Active, string(b), now.UnixMilli())
	return err
}

// Get returns one stored scan.
func (s *Store) Get(ctx context.Context, id string) (scan.Descriptor, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.sql.GetScan, id).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return scan.Descriptor{}, zserrors.NotFound("scan " + id)
	}
	if err != nil {
		return scan.Descriptor{}, zserrors.Wrap(zserrors.ErrStore, "get scan", err)
	}
	return decodeRow(data)
}

type ListOptions struct {
	NamePrefix string
	ActiveOnly bool
	Limit      int
}

// List returns stored scans ordered by name, then id.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]scan.Descriptor, error) {
	return s.list(ctx, opts, nil, opts.Limit)
}

// Page is one slice of a paged listing. Next is empty on the last page.
type Page struct {
	Scans []scan.Descriptor
	Next  string
}

// DefaultPageSize applies when ListOptions.Limit is zero.
const DefaultPageSize = 50

// Page returns the scans after the cursor token (empty for the first page).
// A token only resumes a listing with the same filter.
func (s *Store) Page(ctx context.Context, opts ListOptions, after string) (Page, error) {
	size := opts.Limit
	if size <= 0 {
		size = DefaultPageSize
	}
	hash := filterHash(opts)
	var from *cursor
	if after != "" {
		c, err := decodeCursor(after)
		if err != nil {
			return Page{}, err
		}
		if c.Hash != hash {
			return Page{}, zserrors.Contract("After", "cursor belongs to a different listing")
		}
		from = &c
	}

	scans, err := s.list(ctx, opts, from, size+1)
	if err != nil {
		return Page{}, err
	}
	if len(scans) <= size {
		return Page{Scans: scans}, nil
	}
	scans = scans[:size]
	last := scans[size-1]
	next, err := encodeCursor(cursor{Name: last.Name, ID: last.ID, Hash: hash})
	if err != nil {
		return Page{}, zserrors.Wrap(zserrors.ErrStore, "encode cursor", err)
	}
	return Page{Scans: scans, Next: next}, nil
}

// likeEscaper makes LIKE wildcards in a name prefix match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) list(ctx context.Context, opts ListOptions, after *cursor, limit int) ([]scan.Descriptor, error) {
	b := sqlbuilder.New(s.adapter.PlaceholderStyle())
	if opts.NamePrefix != "" {
		b.Where("name LIKE " + b.Arg(likeEscaper.Replace(opts.NamePrefix)+"%") + ` ESCAPE '\'`)
	}
	if opts.ActiveOnly {
		b.Where("active = " + b.Arg(true))
	}
	if after != nil {
		b.Where("(name > " + b.Arg(after.Name) + " OR (name = " + b.Arg(after.Name) + " AND id > " + b.Arg(after.ID) + "))")
	}
	q := s.sql.SelectScans + b.WhereClause() + " ORDER BY name, id"
	if limit > 0 {
		q += " LIMIT " + b.Arg(limit)
	}

	rows, err := s.db.QueryContext(ctx, q, b.Args()...)
	if err != nil {
		return nil, zserrors.Wrap(zserrors.ErrStore, "list scans", err)
	}
	defer rows.Close()

	var out []scan.Descriptor
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, zserrors.Wrap(zserrors.ErrStore, "scan row", err)
		}
		d, err := decodeRow(data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, zserrors.Wrap(zserrors.ErrStore, "list scans", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.sql.CountScans).Scan(&n); err != nil {
		return 0, zserrors.Wrap(zserrors.ErrStore, "count scans", err)
	}
	return n, nil
}

// LastSync returns when a batch was last applied; ok is false before the
// first one.
func (s *Store) LastSync(ctx context.Context) (t time.Time, ok bool, err error) {
	var v string
	err = s.db.QueryRowContext(ctx, s.sql.GetMeta, MetaLastSyncAt).Scan(&v)
	if stderrors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, zserrors.Wrap(zserrors.ErrStore, "read sync time", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, zserrors.Wrap(zserrors.ErrStore, "parse sync time", err)
	}
	return time.UnixMilli(ms), true, nil
}

// LoadInto replaces c's contents with every stored scan.
func (s *Store) LoadInto(ctx context.Context, c *scanlist.Collection) error {
	scans, err := s.List(ctx, ListOptions{})
	if err != nil {
		return err
	}
	c.Replace(scans)
	return nil
}

func decodeRow(data string) (scan.Descriptor, error) {
	var w scan.Wire
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return scan.Descriptor{}, zserrors.Wrap(zserrors.ErrStore, "decode stored scan", err)
	}
	d, err := scan.FromWire(w)
	if err != nil {
		return scan.Descriptor{}, zserrors.Wrap(zserrors.ErrStore, "decode stored scan", err)
	}
	return d, nil
}
