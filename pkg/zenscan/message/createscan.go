package message

import (
	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/metadata"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

// CreateScanDefinition is what a client supplies to persist a new scan.
type CreateScanDefinition struct {
	Name          string
	Description   string
	Metadata      metadata.Metadata
	Criteria      criteria.BoolNode
	Target        scan.Target
	Rank          criteria.NumericOperand
	MaxMatchCount int
	Active        bool
}

// CreateScanRequest builds the CreateScan publish. A nil criteria tree, a
// target that breaks exclusivity or unsaved metadata is a contract error,
// reported before a transaction id is taken.
func (c *Converter) CreateScanRequest(def CreateScanDefinition) (Envelope, error) {
	if def.Criteria == nil {
		return Envelope{}, zserrors.Contract("Criteria", "criteria is required")
	}
	w, err := scan.ToWire(scan.Descriptor{
		Name:          def.Name,
		Description:   def.Description,
		Metadata:      def.Metadata,
		Target:        def.Target,
		Criteria:      def.Criteria,
		Rank:          def.Rank,
		MaxMatchCount: def.MaxMatchCount,
		Active:        def.Active,
		Writable:      true,
	})
	if err != nil {
		return Envelope{}, err
	}
	body, err := encodeData(w)
	if err != nil {
		return Envelope{}, err
	}
	e := c.envelope(TopicCreateScan, ActionPublish)
	e.Data = body
	return e, nil
}

// ParseCreateScanResponse returns the id the server assigned.
func ParseCreateScanResponse(raw []byte) (string, error) {
	e, err := expectation{action: ActionPublish, topic: TopicCreateScan}.check(raw)
	if err != nil {
		return "", err
	}
	var d scanIDData
	if err := data(e, raw, &d, true); err != nil {
		return "", err
	}
	if d.ScanID == "" {
		return "", zserrors.Protocol("Data.ScanID", "missing scan id", raw)
	}
	return d.ScanID, nil
}
