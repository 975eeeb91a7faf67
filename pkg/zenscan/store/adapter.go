package store

import (
	"context"
	"database/sql"

	"github.com/nonibytes/zenscan/pkg/zenscan/store/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle
	StoreID() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// Init creates tables and seeds meta. It must be idempotent.
	Init(ctx context.Context, db *sql.DB) error

	SQL() SQL
}

// SQL holds the statements the store runs. Argument order is fixed per
// statement and documented beside each field.
type SQL struct {
	GetMeta  string // key
	SetMeta  string // key, value
	SeedMeta string // key, value; no-op when the key exists

	UpsertScan string // id, name, active, data_json, updated_at
	DeleteScan string // id
	ClearScans string
	GetScan    string // id -> data_json
	// SelectScans is the list query without WHERE or ORDER BY.
	SelectScans string
	CountScans  string
}

// Meta keys.
const (
	MetaMagic      = "zenscan_magic"
	MetaVersion    = "zenscan_version"
	MetaLastSyncAt = "last_sync_at"

	Magic         = "zenscan"
	SchemaVersion = "1"
)
