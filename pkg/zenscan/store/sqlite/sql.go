package sqlite

import (
	// Both drivers register under distinct names; Adapter.DriverName picks one.
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/nonibytes/zenscan/pkg/zenscan/store"
)

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  active     INTEGER NOT NULL DEFAULT 0,
  data_json  TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_name ON scans(name, id);
`

var SQLTemplates = store.SQL{
	GetMeta:     "SELECT value FROM meta WHERE key = ?1",
	SetMeta:     "INSERT INTO meta(key,value) VALUES(?1,?2) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
	SeedMeta:    "INSERT INTO meta(key,value) VALUES(?1,?2) ON CONFLICT(key) DO NOTHING",
	UpsertScan:  "INSERT INTO scans(id, name, active, data_json, updated_at) VALUES(?1, ?2, ?3, ?4, ?5) ON CONFLICT(id) DO UPDATE SET name=excluded.name, active=excluded.active, data_json=excluded.data_json, updated_at=excluded.updated_at",
	DeleteScan:  "DELETE FROM scans WHERE id = ?1",
	ClearScans:  "DELETE FROM scans",
	GetScan:     "SELECT data_json FROM scans WHERE id = ?1",
	SelectScans: "SELECT data_json FROM scans",
	CountScans:  "SELECT COUNT(*) FROM scans",
}
