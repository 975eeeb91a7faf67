package cliopt

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonibytes/zenscan/internal/config"
)

func TestFlagsOverrideConfig(t *testing.T) {
	fs := pflag.NewFlagSet("zenscan", pflag.ContinueOnError)
	g := DefaultGlobalOptions()
	BindGlobalFlags(fs, &g)
	require.NoError(t, fs.Parse([]string{"--backend", "postgres", "--pg-dsn", "postgres://db/zen", "-o", "json"}))

	cfg := config.DefaultConfig()
	g.Apply(cfg)

	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://db/zen", cfg.Store.PostgresDSN)
	assert.Equal(t, "websocket", cfg.Transport.Kind, "unset flags leave config alone")
	assert.Equal(t, "json", g.Format)
	assert.NoError(t, cfg.Validate())
}
