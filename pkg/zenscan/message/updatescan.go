package message

import (
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

// UpdateScanRequest saves every field of d over the stored scan d.ID.
func (c *Converter) UpdateScanRequest(d scan.Descriptor) (Envelope, error) {
	if d.ID == "" {
		return Envelope{}, zserrors.Contract("ScanID", "scan id is required")
	}
	if d.Criteria == nil {
		return Envelope{}, zserrors.Contract("Criteria", "criteria is required")
	}
	w, err := scan.ToWire(d)
	if err != nil {
		return Envelope{}, err
	}
	body, err := encodeData(w)
	if err != nil {
		return Envelope{}, err
	}
	e := c.envelope(TopicUpdateScan, ActionPublish)
	e.Data = body
	return e, nil
}

// ParseUpdateScanResponse checks the acknowledgement. It carries no fields.
func ParseUpdateScanResponse(raw []byte) error {
	_, err := expectation{action: ActionPublish, topic: TopicUpdateScan}.check(raw)
	return err
}
