package message

import (
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

// QueryScanRequest asks for one scan's full descriptor.
func (c *Converter) QueryScanRequest(id string) (Envelope, error) {
	if id == "" {
		return Envelope{}, zserrors.Contract("ScanID", "scan id is required")
	}
	body, err := encodeData(scanIDData{ScanID: id})
	if err != nil {
		return Envelope{}, err
	}
	e := c.envelope(TopicQueryScan, ActionPublish)
	e.Data = body
	return e, nil
}

// ParseQueryScanResponse returns the descriptor, criteria included.
func ParseQueryScanResponse(raw []byte) (scan.Descriptor, error) {
	e, err := expectation{action: ActionPublish, topic: TopicQueryScan}.check(raw)
	if err != nil {
		return scan.Descriptor{}, err
	}
	var w scan.Wire
	if err := data(e, raw, &w, true); err != nil {
		return scan.Descriptor{}, err
	}
	d, err := scan.FromWire(w)
	if err != nil {
		pe := zserrors.Protocol("Data", "malformed scan descriptor", raw)
		pe.Cause = err
		return scan.Descriptor{}, pe
	}
	if d.ID == "" {
		return scan.Descriptor{}, zserrors.Protocol("Data.ScanID", "missing scan id", raw)
	}
	if d.Criteria == nil {
		return scan.Descriptor{}, zserrors.Protocol("Data.Criteria", "missing criteria", raw)
	}
	return d, nil
}
