package scanlist

import (
	"sort"
	"sync"

	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

// Collection is the live keyed set of known scans. Apply takes a write lock
// for the whole batch, so readers never see a half-applied batch.
type Collection struct {
	mu    sync.RWMutex
	scans map[string]scan.Descriptor
}

func NewCollection() *Collection {
	return &Collection{scans: make(map[string]scan.Descriptor)}
}

// ApplyStats counts what a batch did.
type ApplyStats struct {
	Added   int
	Updated int
	Removed int
	Cleared int
}

// Total is the number of changes applied.
func (s ApplyStats) Total() int { return s.Added + s.Updated + s.Removed + s.Cleared }

// Apply applies changes strictly in order. Add of a known id replaces it,
// Update of an unknown id inserts it, Remove of an unknown id is a no-op.
func (c *Collection) Apply(changes []scan.Change) ApplyStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var st ApplyStats
	for _, ch := range changes {
		switch v := ch.(type) {
		case scan.Clear:
			c.scans = make(map[string]scan.Descriptor)
			st.Cleared++
		case scan.Add:
			c.scans[v.Scan.ID] = v.Scan
			st.Added++
		case scan.Update:
			c.scans[v.Scan.ID] = v.Scan
			st.Updated++
		case scan.Remove:
			delete(c.scans, v.ID)
			st.Removed++
		}
	}
	return st
}

func (c *Collection) Get(id string) (scan.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.scans[id]
	return d, ok
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scans)
}

// List returns the known scans ordered by name, then id.
func (c *Collection) List() []scan.Descriptor {
	c.mu.RLock()
	out := make([]scan.Descriptor, 0, len(c.scans))
	for _, d := range c.scans {
		out = append(out, d)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Replace swaps in a full set, as when loading a stored snapshot.
func (c *Collection) Replace(scans []scan.Descriptor) {
	m := make(map[string]scan.Descriptor, len(scans))
	for _, d := range scans {
		m[d.ID] = d
	}
	c.mu.Lock()
	c.scans = m
	c.mu.Unlock()
}
