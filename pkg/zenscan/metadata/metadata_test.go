package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

func TestToDomainIsLenient(t *testing.T) {
	m := ToDomain(Wire{KeyVersionID: "v1"})
	assert.Equal(t, "v1", m.VersionID)
	assert.Nil(t, m.LastSavedTime)

	m = ToDomain(Wire{
		KeyVersionID:             "v2",
		KeyLastSavedTime:         "last tuesday",
		KeyVersionNumber:         "seven",
		KeyVersioningInterrupted: "maybe",
		"somethingNew":           "x",
	})
	assert.Equal(t, "v2", m.VersionID)
	assert.Nil(t, m.LastSavedTime)
	assert.Zero(t, m.VersionNumber)
	assert.False(t, m.VersioningInterrupted)

	assert.Equal(t, Metadata{}, ToDomain(nil))
}

func TestToDomainParsesOffsetTimestamp(t *testing.T) {
	m := ToDomain(Wire{
		KeyVersionID:             "v3",
		KeyVersionNumber:         "4",
		KeyLastSavedTime:         "2024-06-01T08:15:00.5+10:00",
		KeyLastEditSessionID:     "sess",
		KeyVersioningInterrupted: "true",
	})
	require.NotNil(t, m.LastSavedTime)
	want := time.Date(2024, 5, 31, 22, 15, 0, 500_000_000, time.UTC)
	assert.True(t, want.Equal(*m.LastSavedTime))
	assert.EqualValues(t, 4, m.VersionNumber)
	assert.Equal(t, "sess", m.LastEditSessionID)
	assert.True(t, m.VersioningInterrupted)
}

func TestFromDomainRequiresVersionAndSaveTime(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := FromDomain(Metadata{LastSavedTime: &at})
	require.Error(t, err)
	e, ok := zserrors.As(err)
	require.True(t, ok)
	assert.Equal(t, zserrors.ErrContract, e.Code)
	assert.Equal(t, KeyVersionID, e.Field)

	_, err = FromDomain(Metadata{VersionID: "v1"})
	assert.True(t, zserrors.IsCode(err, zserrors.ErrContract))

	w, err := FromDomain(Metadata{VersionID: "v1", LastSavedTime: &at})
	require.NoError(t, err)
	assert.Equal(t, Wire{KeyVersionID: "v1", KeyLastSavedTime: "2024-01-01T00:00:00Z"}, w)
}

func TestSavedStampsSession(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	orig := Metadata{VersionID: "old", VersionNumber: 2}
	next := orig.Saved("new", "session-1", at)

	assert.Equal(t, "old", orig.VersionID)
	assert.Nil(t, orig.LastSavedTime)
	assert.Equal(t, "new", next.VersionID)
	assert.EqualValues(t, 3, next.VersionNumber)
	assert.Equal(t, "session-1", next.LastEditSessionID)

	w, err := FromDomain(next)
	require.NoError(t, err)
	back := ToDomain(w)
	assert.Equal(t, next.VersionID, back.VersionID)
	assert.Equal(t, next.VersionNumber, back.VersionNumber)
	assert.True(t, at.Equal(*back.LastSavedTime))
}

func TestEncodeWritesOnlyPresentFields(t *testing.T) {
	assert.Equal(t, Wire{}, Encode(Metadata{}))
	assert.Equal(t, Wire{KeyVersionID: "v9"}, Encode(Metadata{VersionID: "v9"}))
}
