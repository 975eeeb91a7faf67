// Package scan holds the transported scan descriptor, its target set and the
// Add/Update/Remove/Clear change records used to keep a scan list in sync.
package scan

import (
	"encoding/json"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/metadata"
	"github.com/nonibytes/zenscan/pkg/zenscan/wire"
)

// Descriptor is a scan as the server transports it.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Version     string
	Metadata    metadata.Metadata
	Target      Target
	// Criteria may be nil in list snapshots; QueryScan always fills it.
	Criteria criteria.BoolNode
	// Rank is nil when the scan has no rank expression.
	Rank          criteria.NumericOperand
	MaxMatchCount int
	Active        bool
	Writable      bool
}

// Wire is the JSON body of a scan descriptor.
type Wire struct {
	ScanID        string          `json:"ScanID,omitempty"`
	Name          string          `json:"Name"`
	Description   string          `json:"Description,omitempty"`
	Version       string          `json:"Version,omitempty"`
	MetaData      metadata.Wire   `json:"MetaData,omitempty"`
	TargetType    TargetType      `json:"TargetType"`
	TargetSymbols []string        `json:"TargetSymbols,omitempty"`
	TargetMarkets []string        `json:"TargetMarkets,omitempty"`
	Criteria      json.RawMessage `json:"Criteria,omitempty"`
	Rank          json.RawMessage `json:"Rank,omitempty"`
	MaxMatchCount int             `json:"MaxMatchCount,omitempty"`
	IsActive      bool            `json:"IsActive"`
	IsWritable    bool            `json:"IsWritable"`
}

// ToWire encodes d for a save request. The target must validate and the
// metadata must carry a version id and save time.
func ToWire(d Descriptor) (Wire, error) {
	if err := d.Target.Validate(); err != nil {
		return Wire{}, err
	}
	meta, err := metadata.FromDomain(d.Metadata)
	if err != nil {
		return Wire{}, err
	}
	w, err := encode(d)
	if err != nil {
		return Wire{}, err
	}
	w.MetaData = meta
	return w, nil
}

// Snapshot encodes d as-is, without the save preconditions. Stores use it to
// persist what the server sent.
func Snapshot(d Descriptor) (Wire, error) {
	w, err := encode(d)
	if err != nil {
		return Wire{}, err
	}
	if meta := metadata.Encode(d.Metadata); len(meta) > 0 {
		w.MetaData = meta
	}
	return w, nil
}

func encode(d Descriptor) (Wire, error) {
	w := Wire{
		ScanID:        d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Version:       d.Version,
		TargetType:    d.Target.Type,
		TargetSymbols: d.Target.Symbols,
		TargetMarkets: d.Target.Markets,
		MaxMatchCount: d.MaxMatchCount,
		IsActive:      d.Active,
		IsWritable:    d.Writable,
	}
	if d.Criteria != nil {
		raw, err := wire.Marshal(d.Criteria)
		if err != nil {
			return Wire{}, zserrors.Wrap(zserrors.ErrContract, "encode criteria", err)
		}
		w.Criteria = raw
	}
	if d.Rank != nil {
		raw, err := json.Marshal(wire.EncodeNumeric(d.Rank))
		if err != nil {
			return Wire{}, zserrors.Wrap(zserrors.ErrContract, "encode rank", err)
		}
		w.Rank = raw
	}
	return w, nil
}

// FromWire decodes an inbound descriptor. Malformed criteria or rank are
// decode errors; a target that breaks exclusivity is a protocol error.
func FromWire(w Wire) (Descriptor, error) {
	d := Descriptor{
		ID:            w.ScanID,
		Name:          w.Name,
		Description:   w.Description,
		Version:       w.Version,
		Metadata:      metadata.ToDomain(w.MetaData),
		Target:        Target{Type: w.TargetType, Symbols: w.TargetSymbols, Markets: w.TargetMarkets},
		MaxMatchCount: w.MaxMatchCount,
		Active:        w.IsActive,
		Writable:      w.IsWritable,
	}
	if err := d.Target.Validate(); err != nil {
		e := zserrors.Protocol("TargetType", "scan target does not match its type", nil)
		e.Cause = err
		return Descriptor{}, e
	}
	if present(w.Criteria) {
		var v any
		if err := json.Unmarshal(w.Criteria, &v); err != nil {
			return Descriptor{}, zserrors.Wrap(zserrors.ErrDecode, "scan criteria json", err)
		}
		n, err := wire.DecodeBoolNode(v)
		if err != nil {
			return Descriptor{}, err
		}
		d.Criteria = n
	}
	if present(w.Rank) {
		var v any
		if err := json.Unmarshal(w.Rank, &v); err != nil {
			return Descriptor{}, zserrors.Wrap(zserrors.ErrDecode, "scan rank json", err)
		}
		r, err := wire.DecodeNumeric(v)
		if err != nil {
			return Descriptor{}, err
		}
		d.Rank = r
	}
	return d, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
