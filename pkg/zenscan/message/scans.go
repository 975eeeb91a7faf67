package message

import (
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/scanlist"
)

// changesData is the Data of a scan list event or QueryScans response.
type changesData struct {
	Changes []scanlist.Record `json:"Changes"`
}

// ScansSubUnsubRequest subscribes to (or unsubscribes from) scan list
// changes.
func (c *Converter) ScansSubUnsubRequest(subscribe bool) Envelope {
	action := ActionUnsubscribe
	if subscribe {
		action = ActionSubscribe
	}
	return c.envelope(TopicScans, action)
}

// ParseScansMessage reads one subscription event. Events arrive with the
// Subscribe action on the Scans topic or one of its sub-topics.
func ParseScansMessage(raw []byte) ([]scan.Change, error) {
	e, err := expectation{action: ActionSubscribe, topic: TopicScans, prefix: true}.check(raw)
	if err != nil {
		return nil, err
	}
	return changes(e, raw)
}

// QueryScansRequest asks once for the full scan list.
func (c *Converter) QueryScansRequest() Envelope {
	return c.envelope(TopicQueryScans, ActionPublish)
}

// ParseQueryScansResponse reads the one-shot scan list as a change batch.
func ParseQueryScansResponse(raw []byte) ([]scan.Change, error) {
	e, err := expectation{action: ActionPublish, topic: TopicQueryScans}.check(raw)
	if err != nil {
		return nil, err
	}
	return changes(e, raw)
}

func changes(e Envelope, raw []byte) ([]scan.Change, error) {
	var d changesData
	if err := data(e, raw, &d, true); err != nil {
		return nil, err
	}
	out, err := scanlist.Reduce(d.Changes)
	if err != nil {
		if pe, ok := asProtocol(err); ok && pe.Raw == nil {
			pe.Raw = raw
		}
		return nil, err
	}
	return out, nil
}
