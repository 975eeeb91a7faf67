package message

import "sync/atomic"

// TransactionIDs hands out request correlation ids. The converter treats
// them as opaque.
type TransactionIDs interface {
	Next() int64
}

// Sequence is a monotonically increasing TransactionIDs, safe for
// concurrent use. The zero value starts at 1.
type Sequence struct {
	n atomic.Int64
}

// NewSequence starts after the given id.
func NewSequence(after int64) *Sequence {
	s := &Sequence{}
	s.n.Store(after)
	return s
}

func (s *Sequence) Next() int64 { return s.n.Add(1) }

// Converter builds request envelopes stamped with ids from its sequence.
type Converter struct {
	ids TransactionIDs
}

// NewConverter uses ids for transaction ids; nil means a fresh Sequence.
func NewConverter(ids TransactionIDs) *Converter {
	if ids == nil {
		ids = &Sequence{}
	}
	return &Converter{ids: ids}
}

func (c *Converter) envelope(topic string, action Action) Envelope {
	id := c.ids.Next()
	return Envelope{
		Controller:    ControllerNotify,
		Topic:         topic,
		Action:        action,
		TransactionID: &id,
	}
}

// scanIDData is the Data of requests and responses that carry only an id.
type scanIDData struct {
	ScanID string `json:"ScanID"`
}
