package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
	"github.com/nonibytes/zenscan/pkg/zenscan/store"
	"github.com/nonibytes/zenscan/pkg/zenscan/store/sqlite"
)

func newStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "scans.db")
	opts := store.DefaultOptions()
	opts.Now = func() time.Time { return time.UnixMilli(1700000000000) }

	s, err := store.Open(context.Background(), sqlite.New(dbPath), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, dbPath
}

func descriptor(t *testing.T, id, name string, active bool) scan.Descriptor {
	t.Helper()
	crit, err := criteria.NewDecimalFieldInRange("Price", criteria.NumLit(1), nil)
	require.NoError(t, err)
	return scan.Descriptor{
		ID:       id,
		Name:     name,
		Target:   scan.MarketsTarget("ASX"),
		Criteria: crit,
		Active:   active,
	}
}

func TestApplyAndRead_SQLite(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := s.Apply(ctx, []scan.Change{
		scan.Add{Scan: descriptor(t, "A", "Alpha", true)},
		scan.Add{Scan: descriptor(t, "B", "Beta", false)},
		scan.Update{Scan: descriptor(t, "A", "Alpha v2", true)},
	})
	require.NoError(t, err)
	assert.Equal(t, scanlist.ApplyStats{Added: 2, Updated: 1}, st)

	got, err := s.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", got.Name)
	require.NotNil(t, got.Criteria)
	assert.Equal(t, criteria.KindDecimalFieldInRange, got.Criteria.Kind())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	at, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 1700000000000, at.UnixMilli())
}

func TestClearResetsBeforeLaterChanges_SQLite(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, []scan.Change{
		scan.Add{Scan: descriptor(t, "A", "Alpha", true)},
		scan.Add{Scan: descriptor(t, "B", "Beta", true)},
	})
	require.NoError(t, err)

	_, err = s.Apply(ctx, []scan.Change{
		scan.Clear{},
		scan.Add{Scan: descriptor(t, "C", "Gamma", true)},
		scan.Remove{ID: "C"},
		scan.Add{Scan: descriptor(t, "D", "Delta", true)},
	})
	require.NoError(t, err)

	all, err := s.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "D", all[0].ID)

	_, err = s.Get(ctx, "A")
	assert.True(t, zserrors.IsCode(err, zserrors.ErrNotFound))
}

func TestListOptions_SQLite(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Apply(ctx, []scan.Change{
		scan.Add{Scan: descriptor(t, "1", "Penny", true)},
		scan.Add{Scan: descriptor(t, "2", "Penny dreadful", false)},
		scan.Add{Scan: descriptor(t, "3", "Blue chip", true)},
	})
	require.NoError(t, err)

	ids := func(ds []scan.Descriptor) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}

	got, err := s.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, ids(got))

	got, err = s.List(ctx, store.ListOptions{NamePrefix: "Penny"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(got))

	got, err = s.List(ctx, store.ListOptions{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, ids(got))

	got, err = s.List(ctx, store.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(got))

	_, err = s.Apply(ctx, []scan.Change{
		scan.Add{Scan: descriptor(t, "4", "ax_1", true)},
		scan.Add{Scan: descriptor(t, "5", "axy1", true)},
		scan.Add{Scan: descriptor(t, "6", "50% off", true)},
		scan.Add{Scan: descriptor(t, "7", "500 club", true)},
	})
	require.NoError(t, err)

	got, err = s.List(ctx, store.ListOptions{NamePrefix: "ax_"})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(got), "underscore matches literally")

	got, err = s.List(ctx, store.ListOptions{NamePrefix: "50%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, ids(got), "percent matches literally")
}

func TestReopenKeepsScans_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "scans.db")

	s, err := store.Open(ctx, sqlite.New(dbPath), store.DefaultOptions())
	require.NoError(t, err)
	_, err = s.Apply(ctx, []scan.Change{scan.Add{Scan: descriptor(t, "A", "Alpha", true)}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.Open(ctx, sqlite.New(dbPath), store.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	c := scanlist.NewCollection()
	require.NoError(t, s.LoadInto(ctx, c))
	d, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "Alpha", d.Name)
}

func TestOpenRejectsForeignDatabase_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "other.db")

	db, err := sql.Open(sqlite.DriverModernc, dbPath)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO meta(key, value) VALUES('zenscan_magic', 'someoneelse');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = store.Open(ctx, sqlite.New(dbPath), store.DefaultOptions())
	require.Error(t, err)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrStore))
}

func TestPageWalksWithCursor_SQLite(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var changes []scan.Change
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		changes = append(changes, scan.Add{Scan: descriptor(t, id, "same name", true)})
	}
	changes = append(changes, scan.Add{Scan: descriptor(t, "z", "Another", true)})
	_, err := s.Apply(ctx, changes)
	require.NoError(t, err)

	opts := store.ListOptions{Limit: 2}
	var ids []string
	after := ""
	pages := 0
	for {
		p, err := s.Page(ctx, opts, after)
		require.NoError(t, err)
		pages++
		for _, d := range p.Scans {
			ids = append(ids, d.ID)
		}
		if p.Next == "" {
			break
		}
		after = p.Next
	}
	assert.Equal(t, []string{"z", "a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, 3, pages)
}

func TestPageRejectsForeignCursor_SQLite(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	_, err := s.Apply(ctx, []scan.Change{
		scan.Add{Scan: descriptor(t, "A", "Alpha", true)},
		scan.Add{Scan: descriptor(t, "B", "Beta", true)},
	})
	require.NoError(t, err)

	p, err := s.Page(ctx, store.ListOptions{Limit: 1}, "")
	require.NoError(t, err)
	require.NotEmpty(t, p.Next)

	_, err = s.Page(ctx, store.ListOptions{Limit: 1, ActiveOnly: true}, p.Next)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract))

	_, err = s.Page(ctx, store.ListOptions{}, "not base64!")
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract))
}
