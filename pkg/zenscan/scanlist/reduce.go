// Package scanlist turns wire change batches into scan list changes and
// maintains the keyed set of known scans they describe.
package scanlist

import (
	"fmt"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

// Record is one wire-level change. Scan is required for Add and Update,
// ScanID for Remove; Clear reads neither.
type Record struct {
	Operation string     `json:"Operation"`
	ScanID    string     `json:"ScanID,omitempty"`
	Scan      *scan.Wire `json:"Scan,omitempty"`
}

// Reduce converts a batch into changes, keeping order and duplicates. The
// first malformed record fails the whole batch.
func Reduce(records []Record) ([]scan.Change, error) {
	out := make([]scan.Change, 0, len(records))
	for i, r := range records {
		c, err := reduceOne(i, r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func reduceOne(i int, r Record) (scan.Change, error) {
	field := func(name string) string { return fmt.Sprintf("Changes[%d].%s", i, name) }

	switch scan.Operation(r.Operation) {
	case scan.OpClear:
		return scan.Clear{}, nil

	case scan.OpRemove:
		id := r.ScanID
		if id == "" && r.Scan != nil {
			id = r.Scan.ScanID
		}
		if id == "" {
			return nil, zserrors.Protocol(field("ScanID"), "remove without scan id", nil)
		}
		return scan.Remove{ID: id}, nil

	case scan.OpAdd, scan.OpUpdate:
		if r.Scan == nil {
			return nil, zserrors.Protocol(field("Scan"), fmt.Sprintf("%s without scan snapshot", r.Operation), nil)
		}
		w := *r.Scan
		if w.ScanID == "" {
			w.ScanID = r.ScanID
		}
		if w.ScanID == "" {
			return nil, zserrors.Protocol(field("ScanID"), fmt.Sprintf("%s snapshot without scan id", r.Operation), nil)
		}
		d, err := scan.FromWire(w)
		if err != nil {
			e := zserrors.Protocol(field("Scan"), "malformed scan snapshot", nil)
			e.Cause = err
			return nil, e
		}
		if r.Operation == string(scan.OpAdd) {
			return scan.Add{Scan: d}, nil
		}
		return scan.Update{Scan: d}, nil
	}
	return nil, zserrors.Protocol(field("Operation"), fmt.Sprintf("unknown change type %q", r.Operation), nil)
}
