package message

import zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"

func (c *Converter) DeleteScanRequest(id string) (Envelope, error) {
	if id == "" {
		return Envelope{}, zserrors.Contract("ScanID", "scan id is required")
	}
	body, err := encodeData(scanIDData{ScanID: id})
	if err != nil {
		return Envelope{}, err
	}
	e := c.envelope(TopicDeleteScan, ActionPublish)
	e.Data = body
	return e, nil
}

func ParseDeleteScanResponse(raw []byte) error {
	_, err := expectation{action: ActionPublish, topic: TopicDeleteScan}.check(raw)
	return err
}
