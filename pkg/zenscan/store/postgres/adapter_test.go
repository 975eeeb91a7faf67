package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema(t *testing.T) {
	assert.NoError(t, validateSchema("zenscan"))
	assert.NoError(t, validateSchema("_scans_2"))
	assert.Error(t, validateSchema(""))
	assert.Error(t, validateSchema("2scans"))
	assert.Error(t, validateSchema(`bad"name`))
}

func TestConfigPinsSearchPath(t *testing.T) {
	a := New("postgres://user:pw@localhost:5432/db?sslmode=disable", "zenscan")
	cfg, err := a.config()
	require.NoError(t, err)
	assert.Equal(t, `"zenscan",public`, cfg.RuntimeParams["search_path"])
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "postgres:zenscan", a.StoreID())
}
