package scan

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/metadata"
)

func sampleDescriptor(t *testing.T) Descriptor {
	t.Helper()
	price, err := criteria.NewGetDecimalFieldValue("Price")
	require.NoError(t, err)
	rng, err := criteria.NewDecimalFieldInRange("Price", criteria.NumLit(1), criteria.NumLit(5))
	require.NoError(t, err)
	rank, err := criteria.NewMul(price, criteria.NumLit(-1))
	require.NoError(t, err)
	saved := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return Descriptor{
		ID:            "scan-1",
		Name:          "Penny stocks",
		Description:   "priced between 1 and 5",
		Version:       "3",
		Metadata:      metadata.Metadata{VersionID: "v3", LastSavedTime: &saved},
		Target:        MarketsTarget("ASX", "CXA"),
		Criteria:      rng,
		Rank:          rank,
		MaxMatchCount: 50,
		Active:        true,
		Writable:      true,
	}
}

func TestTargetValidate(t *testing.T) {
	cases := []struct {
		name   string
		target Target
		field  string
	}{
		{"symbols with markets", Target{Type: TargetSymbols, Markets: []string{"ASX"}}, "Target.Markets"},
		{"symbols empty", Target{Type: TargetSymbols}, "Target.Symbols"},
		{"markets with symbols", Target{Type: TargetMarkets, Symbols: []string{"BHP.ASX"}, Markets: []string{"ASX"}}, "Target.Symbols"},
		{"markets empty", Target{Type: TargetMarkets}, "Target.Markets"},
		{"unknown type", Target{Type: "Watchlist", Symbols: []string{"BHP.ASX"}}, "Target.Type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.target.Validate()
			require.Error(t, err)
			e, ok := zserrors.As(err)
			require.True(t, ok)
			assert.Equal(t, zserrors.ErrContract, e.Code)
			assert.Equal(t, tc.field, e.Field)
		})
	}

	assert.NoError(t, SymbolsTarget("BHP.ASX").Validate())
	assert.NoError(t, MarketsTarget("ASX").Validate())
	assert.Equal(t, []string{"ASX"}, MarketsTarget("ASX").List())
}

func TestDescriptorWireRoundTrip(t *testing.T) {
	d := sampleDescriptor(t)
	w, err := ToWire(d)
	require.NoError(t, err)
	assert.JSONEq(t, `["DecimalFieldInRange","Price",1,5]`, string(w.Criteria))
	assert.JSONEq(t, `["Mul",["GetDecimalFieldValue","Price"],-1]`, string(w.Rank))
	assert.Equal(t, "v3", w.MetaData[metadata.KeyVersionID])

	data, err := json.Marshal(w)
	require.NoError(t, err)
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.JSONEq(t, `"Markets"`, string(keys["TargetType"]))
	assert.JSONEq(t, `["ASX","CXA"]`, string(keys["TargetMarkets"]))
	assert.NotContains(t, keys, "TargetSymbols")
	assert.NotContains(t, keys, "Target")

	var back Wire
	require.NoError(t, json.Unmarshal(data, &back))

	got, err := FromWire(back)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.Target, got.Target)
	assert.True(t, criteria.Equal(d.Criteria, got.Criteria))
	rank, ok := got.Rank.(criteria.Node)
	require.True(t, ok)
	assert.True(t, criteria.Equal(d.Rank.(criteria.Node), rank))
	assert.True(t, d.Metadata.LastSavedTime.Equal(*got.Metadata.LastSavedTime))
	assert.Equal(t, 50, got.MaxMatchCount)
	assert.True(t, got.Active)
	assert.True(t, got.Writable)
}

func TestToWireChecksContract(t *testing.T) {
	d := sampleDescriptor(t)
	d.Target.Symbols = []string{"BHP.ASX"}
	_, err := ToWire(d)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract))

	d = sampleDescriptor(t)
	d.Metadata.LastSavedTime = nil
	_, err = ToWire(d)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract))

	w, err := Snapshot(d)
	require.NoError(t, err, "snapshots skip the save preconditions")
	assert.Equal(t, metadata.Wire{metadata.KeyVersionID: "v3"}, w.MetaData)
}

func TestEncodeFailureIsContractError(t *testing.T) {
	d := sampleDescriptor(t)
	d.Rank = criteria.NumLit(math.NaN())
	_, err := ToWire(d)
	require.Error(t, err)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract), "%v", err)
	assert.False(t, zserrors.IsCode(err, zserrors.ErrDecode))

	_, err = Snapshot(d)
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract), "%v", err)
}

func TestFromWireOptionalCriteriaAndRank(t *testing.T) {
	got, err := FromWire(Wire{
		ScanID:        "s",
		TargetType:    TargetSymbols,
		TargetSymbols: []string{"BHP.ASX"},
		Criteria:      json.RawMessage("null"),
	})
	require.NoError(t, err)
	assert.Nil(t, got.Criteria)
	assert.Nil(t, got.Rank)
	assert.Nil(t, got.Metadata.LastSavedTime)
}

func TestFromWireErrors(t *testing.T) {
	_, err := FromWire(Wire{TargetType: TargetSymbols, TargetMarkets: []string{"ASX"}})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrProtocol))

	_, err = FromWire(Wire{
		TargetType:    TargetSymbols,
		TargetSymbols: []string{"BHP.ASX"},
		Criteria:      json.RawMessage(`["Add",1,2]`),
	})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrDecode), "numeric root is not a criteria tree")

	_, err = FromWire(Wire{
		TargetType:    TargetSymbols,
		TargetSymbols: []string{"BHP.ASX"},
		Rank:          json.RawMessage(`["All"]`),
	})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrDecode))
}

func TestChangeVariants(t *testing.T) {
	d := sampleDescriptor(t)
	changes := []Change{Clear{}, Add{Scan: d}, Update{Scan: d}, Remove{ID: "B"}}
	var ops []Operation
	var ids []string
	for _, c := range changes {
		ops = append(ops, c.Op())
		ids = append(ids, c.ScanID())
	}
	assert.Equal(t, []Operation{OpClear, OpAdd, OpUpdate, OpRemove}, ops)
	assert.Equal(t, []string{"", "scan-1", "scan-1", "B"}, ids)
}
