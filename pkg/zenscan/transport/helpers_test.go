package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nonibytes/zenscan/pkg/zenscan/criteria"
	"github.com/nonibytes/zenscan/pkg/zenscan/metadata"
	"github.com/nonibytes/zenscan/pkg/zenscan/scan"
)

func sampleDescriptor(t *testing.T) scan.Descriptor {
	t.Helper()
	crit, err := criteria.NewFieldHasValue("Bid")
	require.NoError(t, err)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return scan.Descriptor{
		ID:       "scan-1",
		Name:     "bid present",
		Metadata: metadata.Metadata{VersionID: "v1", LastSavedTime: &at},
		Target:   scan.SymbolsTarget("BHP.ASX"),
		Criteria: crit,
	}
}
