package message

import (
	"encoding/json"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
	"github.com/nonibytes/zenscan/pkg/zenscan/wire"
)

// ExecuteScanDefinition runs criteria over a target without saving a scan.
type ExecuteScanDefinition struct {
	Criteria      criteria.BoolNode
	Target        scan.Target
	Rank          criteria.NumericOperand
	MaxMatchCount int
}

type executeScanData struct {
	Criteria      json.RawMessage `json:"Criteria"`
	Rank          json.RawMessage `json:"Rank,omitempty"`
	TargetType    scan.TargetType `json:"TargetType"`
	TargetSymbols []string        `json:"TargetSymbols,omitempty"`
	TargetMarkets []string        `json:"TargetMarkets,omitempty"`
	MaxMatchCount int             `json:"MaxMatchCount,omitempty"`
}

// ExecuteScanRequest builds a fire-and-forget execution request. There is no
// response to parse.
func (c *Converter) ExecuteScanRequest(def ExecuteScanDefinition) (Envelope, error) {
	if def.Criteria == nil {
		return Envelope{}, zserrors.Contract("Criteria", "criteria is required")
	}
	if err := def.Target.Validate(); err != nil {
		return Envelope{}, err
	}
	crit, err := wire.Marshal(def.Criteria)
	if err != nil {
		return Envelope{}, zserrors.Wrap(zserrors.ErrContract, "encode criteria", err)
	}
	d := executeScanData{
		Criteria:      crit,
		TargetType:    def.Target.Type,
		TargetSymbols: def.Target.Symbols,
		TargetMarkets: def.Target.Markets,
		MaxMatchCount: def.MaxMatchCount,
	}
	if def.Rank != nil {
		if d.Rank, err = json.Marshal(wire.EncodeNumeric(def.Rank)); err != nil {
			return Envelope{}, zserrors.Wrap(zserrors.ErrContract, "encode rank", err)
		}
	}
	body, err := encodeData(d)
	if err != nil {
		return Envelope{}, err
	}
	e := c.envelope(TopicExecuteScan, ActionPublish)
	e.Data = body
	return e, nil
}
