package postgres

import "github.com/nonibytes/zenscan/pkg/zenscan/store"

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  active     BOOLEAN NOT NULL DEFAULT FALSE,
  data_json  JSONB NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_name ON scans(name, id);
`

var SQLTemplates = store.SQL{
	GetMeta:  "SELECT value FROM meta WHERE key = $1",
	SetMeta:  "INSERT INTO meta(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value",
	SeedMeta: "INSERT INTO meta(key,value) VALUES($1,$2) ON CONFLICT(key) DO NOTHING",
	UpsertScan: `INSERT INTO scans(id, name, active, data_json, updated_at)
	             VALUES($1, $2, $3, $4::jsonb, $5)
	             ON CONFLICT(id) DO UPDATE
	               SET name=EXCLUDED.name,
	                   active=EXCLUDED.active,
	                   data_json=EXCLUDED.data_json,
	                   updated_at=EXCLUDED.updated_at`,
	DeleteScan:  "DELETE FROM scans WHERE id = $1",
	ClearScans:  "DELETE FROM scans",
	GetScan:     "SELECT data_json::text FROM scans WHERE id = $1",
	SelectScans: "SELECT data_json::text FROM scans",
	CountScans:  "SELECT COUNT(*) FROM scans",
}
