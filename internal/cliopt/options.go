package cliopt

import (
	"github.com/spf13/pflag"

	"github.com/nonibytes/zenscan/internal/config"
)

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
// Non-empty values override the loaded configuration.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command and per-command code.
type GlobalOptions struct {
	ConfigPath string

	Transport string
	URL       string
	NATSURL   string

	Backend        string
	SQLitePath     string
	SQLiteDriver   string
	PostgresDSN    string
	PostgresSchema string

	LogLevel    string
	MetricsAddr string
	Format      string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{Format: "pretty"}
}

func BindGlobalFlags(fs *pflag.FlagSet, g *GlobalOptions) {
	fs.StringVarP(&g.ConfigPath, "config", "c", g.ConfigPath, "config file (YAML), layered over user and project config")

	fs.StringVar(&g.Transport, "transport", g.Transport, "transport: websocket|nats")
	fs.StringVar(&g.URL, "url", g.URL, "Zenith websocket endpoint")
	fs.StringVar(&g.NATSURL, "nats-url", g.NATSURL, "NATS server URL")

	fs.StringVar(&g.Backend, "backend", g.Backend, "store backend: sqlite|postgres|none")
	fs.StringVar(&g.SQLitePath, "sqlite-path", g.SQLitePath, "sqlite database file")
	fs.StringVar(&g.SQLiteDriver, "sqlite-driver", g.SQLiteDriver, "sqlite driver: sqlite (pure Go) or sqlite3 (cgo)")
	fs.StringVar(&g.PostgresDSN, "pg-dsn", g.PostgresDSN, "postgres DSN")
	fs.StringVar(&g.PostgresSchema, "pg-schema", g.PostgresSchema, "postgres schema")

	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&g.MetricsAddr, "metrics-addr", g.MetricsAddr, "serve prometheus metrics on this address")
	fs.StringVarP(&g.Format, "format", "o", g.Format, "output format: pretty|json")
}

// Apply overrides cfg with every flag that was given a value.
func (g GlobalOptions) Apply(cfg *config.Config) {
	cfg.Merge(&config.Config{
		Transport: config.TransportConfig{Kind: g.Transport, URL: g.URL},
		NATS:      config.NATSConfig{URL: g.NATSURL},
		Store: config.StoreConfig{
			Backend:        g.Backend,
			SQLitePath:     g.SQLitePath,
			SQLiteDriver:   g.SQLiteDriver,
			PostgresDSN:    g.PostgresDSN,
			PostgresSchema: g.PostgresSchema,
		},
		Log:     config.LogConfig{Level: g.LogLevel},
		Metrics: config.MetricsConfig{Addr: g.MetricsAddr},
	})
}
