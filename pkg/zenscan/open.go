package zenscan

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nonibytes/zenscan/internal/config"
	zserrors "github.com/nonibytes/zenscan/pkg/zenscan/errors"
	"github.com/nonibytes/zenscan/pkg/zenscan/store"
	"github.com/nonibytes/zenscan/pkg/zenscan/store/postgres"
	"github.com/nonibytes/zenscan/pkg/zenscan/store/sqlite"
	"github.com/nonibytes/zenscan/pkg/zenscan/transport"
)

type OpenOptions struct {
	Transport  string
	URL        string
	NATSURL    string
	NATSPrefix string
	Timeout    time.Duration

	StoreBackend   string
	SQLitePath     string
	SQLiteDriver   string
	PostgresDSN    string
	PostgresSchema string

	Logger *slog.Logger
	// Registerer receives transport metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// OpenOptionsFromConfig converts loaded configuration into open options.
func OpenOptionsFromConfig(cfg *config.Config) OpenOptions {
	return OpenOptions{
		Transport:      cfg.Transport.Kind,
		URL:            cfg.Transport.URL,
		NATSURL:        cfg.NATS.URL,
		NATSPrefix:     cfg.NATS.Prefix,
		Timeout:        cfg.Transport.Timeout,
		StoreBackend:   cfg.Store.Backend,
		SQLitePath:     cfg.Store.SQLitePath,
		SQLiteDriver:   cfg.Store.SQLiteDriver,
		PostgresDSN:    cfg.Store.PostgresDSN,
		PostgresSchema: cfg.Store.PostgresSchema,
	}
}

func (o OpenOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// OpenStore selects a store adapter. It returns nil for backend "none".
func OpenStore(ctx context.Context, opts OpenOptions) (*store.Store, error) {
	var a store.Adapter
	switch opts.StoreBackend {
	case "", "none":
		return nil, nil
	case "sqlite":
		a = sqlite.NewWithDriver(opts.SQLitePath, opts.SQLiteDriver)
	case "postgres":
		a = postgres.New(opts.PostgresDSN, opts.PostgresSchema)
	default:
		return nil, zserrors.NewError(zserrors.ErrConfig, "unknown store backend "+opts.StoreBackend)
	}
	sopts := store.DefaultOptions()
	sopts.Logger = opts.logger()
	return store.Open(ctx, a, sopts)
}

// Dial connects the configured transport.
func Dial(ctx context.Context, opts OpenOptions) (transport.Conn, error) {
	switch opts.Transport {
	case "", "websocket":
		return transport.DialWebsocket(ctx, opts.URL, transport.DefaultWebsocketOptions())
	case "nats":
		nopts := transport.DefaultNATSOptions()
		if opts.NATSURL != "" {
			nopts.URL = opts.NATSURL
		}
		if opts.NATSPrefix != "" {
			nopts.Prefix = opts.NATSPrefix
		}
		return transport.ConnectNATS(ctx, nopts)
	default:
		return nil, zserrors.NewError(zserrors.ErrConfig, "unknown transport "+opts.Transport)
	}
}

// Open dials the transport, opens the store and warms the collection from
// it.
func Open(ctx context.Context, opts OpenOptions) (*Client, error) {
	st, err := OpenStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	conn, err := Dial(ctx, opts)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	sopts := transport.DefaultSessionOptions()
	sopts.Logger = opts.logger()
	if opts.Timeout > 0 {
		sopts.Timeout = opts.Timeout
	}
	if opts.Registerer != nil {
		sopts.Metrics = transport.NewMetrics(opts.Registerer)
	}
	c := NewClient(transport.NewSession(conn, sopts), ClientOptions{Logger: opts.logger(), Store: st})
	if err := c.Warm(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
