// Package metadata converts scan version metadata to and from the Zenith
// MetaData string map.
package metadata

import (
	"strconv"
	"time"

	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
)

// Wire keys of the MetaData map.
const (
	KeyVersionID             = "versionId"
	KeyVersionNumber         = "versionNumber"
	KeyLastSavedTime         = "lastSavedTime"
	KeyLastEditSessionID     = "lastEditSessionId"
	KeyVersioningInterrupted = "versioningInterrupted"
)

// TimeLayout is the lastSavedTime format: ISO 8601 with offset.
const TimeLayout = time.RFC3339Nano

// Wire is the on-wire MetaData map.
type Wire map[string]string

// Metadata is the domain view of a scan's version metadata.
type Metadata struct {
	VersionID             string
	VersionNumber         int64
	LastSavedTime         *time.Time
	LastEditSessionID     string
	VersioningInterrupted bool
}

// ToDomain reads wire metadata. It never fails: a missing or unparseable
// timestamp or version number reads as absent, and unknown keys are ignored.
func ToDomain(w Wire) Metadata {
	var m Metadata
	if w == nil {
		return m
	}
	m.VersionID = w[KeyVersionID]
	m.LastEditSessionID = w[KeyLastEditSessionID]
	if s, ok := w[KeyVersionNumber]; ok {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			m.VersionNumber = n
		}
	}
	if s, ok := w[KeyLastSavedTime]; ok && s != "" {
		if t, err := time.Parse(TimeLayout, s); err == nil {
			m.LastSavedTime = &t
		}
	}
	if s, ok := w[KeyVersioningInterrupted]; ok {
		if b, err := strconv.ParseBool(s); err == nil {
			m.VersioningInterrupted = b
		}
	}
	return m
}

// FromDomain builds wire metadata for a save. VersionID and LastSavedTime
// must be set; a missing one is a contract error.
func FromDomain(m Metadata) (Wire, error) {
	if m.VersionID == "" {
		return nil, zserrors.Contract(KeyVersionID, "version id is required to save metadata")
	}
	if m.LastSavedTime == nil || m.LastSavedTime.IsZero() {
		return nil, zserrors.Contract(KeyLastSavedTime, "last saved time is required to save metadata")
	}
	return Encode(m), nil
}

// Encode writes whatever fields of m are set. Use it for snapshots that
// mirror server state; requests that save go through FromDomain.
func Encode(m Metadata) Wire {
	w := Wire{}
	if m.VersionID != "" {
		w[KeyVersionID] = m.VersionID
	}
	if m.LastSavedTime != nil && !m.LastSavedTime.IsZero() {
		w[KeyLastSavedTime] = m.LastSavedTime.Format(TimeLayout)
	}
	if m.VersionNumber != 0 {
		w[KeyVersionNumber] = strconv.FormatInt(m.VersionNumber, 10)
	}
	if m.LastEditSessionID != "" {
		w[KeyLastEditSessionID] = m.LastEditSessionID
	}
	if m.VersioningInterrupted {
		w[KeyVersioningInterrupted] = "true"
	}
	return w
}

// Saved returns a copy of m stamped for a new save by the given edit session.
func (m Metadata) Saved(versionID, sessionID string, at time.Time) Metadata {
	out := m
	out.VersionID = versionID
	out.VersionNumber = m.VersionNumber + 1
	out.LastEditSessionID = sessionID
	t := at
	out.LastSavedTime = &t
	return out
}
