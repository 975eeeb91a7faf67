// Package message builds and parses the Zenith envelopes of the scan
// lifecycle: create, query, update, delete and execute a scan, and subscribe
// to or query the scan list.
//
// Converters never touch a connection. Each request builder returns an
// Envelope ready to send; each parser validates an inbound envelope's
// controller, action and topic, in that order, before reading Data.
package message

import (
	"encoding/json"
	"fmt"
	"strings"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

type Controller string

const ControllerNotify Controller = "Notify"

type Action string

const (
	ActionPublish     Action = "Publish"
	ActionSubscribe   Action = "Subscribe"
	ActionUnsubscribe Action = "Unsubscribe"
)

// Topics of the scan lifecycle.
const (
	TopicCreateScan  = "CreateScan"
	TopicQueryScan   = "QueryScan"
	TopicUpdateScan  = "UpdateScan"
	TopicDeleteScan  = "DeleteScan"
	TopicExecuteScan = "ExecuteScan"
	TopicQueryScans  = "QueryScans"
	// TopicScans is the subscription root; events arrive on it or on
	// sub-topics "Scans!<suffix>".
	TopicScans = "Scans"
)

// SubTopicSeparator joins a subscription root and its suffix.
const SubTopicSeparator = "!"

// Envelope is the outer shape of every message.
type Envelope struct {
	Controller    Controller      `json:"Controller"`
	Topic         string          `json:"Topic"`
	Action        Action          `json:"Action"`
	TransactionID *int64          `json:"TransactionID,omitempty"`
	Data          json.RawMessage `json:"Data,omitempty"`
}

// Marshal serialises the envelope.
func (e Envelope) Marshal() ([]byte, error) { return json.Marshal(e) }

// TxID returns the transaction id, or 0 when absent.
func (e Envelope) TxID() int64 {
	if e.TransactionID == nil {
		return 0
	}
	return *e.TransactionID
}

// ParseEnvelope reads the envelope without checking it against any
// operation. Transports use it to route frames.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		pe := zserrors.Protocol("", "malformed envelope", raw)
		pe.Cause = err
		return Envelope{}, pe
	}
	return e, nil
}

// TopicMatches reports whether topic is root itself or one of its
// "root!suffix" sub-topics.
func TopicMatches(topic, root string) bool {
	return topic == root || strings.HasPrefix(topic, root+SubTopicSeparator)
}

// expectation is what one parser requires of an inbound envelope.
type expectation struct {
	action Action
	topic  string
	// prefix allows subscription sub-topics.
	prefix bool
}

func (x expectation) check(raw []byte) (Envelope, error) {
	e, err := ParseEnvelope(raw)
	if err != nil {
		return Envelope{}, err
	}
	if e.Controller != ControllerNotify {
		return Envelope{}, zserrors.Protocol("Controller",
			fmt.Sprintf("expected controller %q, got %q", ControllerNotify, e.Controller), raw)
	}
	if e.Action != x.action {
		return Envelope{}, zserrors.Protocol("Action",
			fmt.Sprintf("expected action %q, got %q", x.action, e.Action), raw)
	}
	ok := e.Topic == x.topic
	if x.prefix {
		ok = TopicMatches(e.Topic, x.topic)
	}
	if !ok {
		return Envelope{}, zserrors.Protocol("Topic",
			fmt.Sprintf("expected topic %q, got %q", x.topic, e.Topic), raw)
	}
	return e, nil
}

// data unmarshals e.Data into v. Missing data is a protocol error when
// required.
func data(e Envelope, raw []byte, v any, required bool) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		if required {
			return zserrors.Protocol("Data", "missing data", raw)
		}
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		pe := zserrors.Protocol("Data", "malformed data", raw)
		pe.Cause = err
		return pe
	}
	return nil
}

func encodeData(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, zserrors.Wrap(zserrors.ErrContract, "encode request data", err)
	}
	return b, nil
}

func asProtocol(err error) (*zserrors.Error, bool) {
	e, ok := zserrors.As(err)
	if !ok || e.Code != zserrors.ErrProtocol {
		return nil, false
	}
	return e, true
}
