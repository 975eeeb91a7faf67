package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSNFollowsDriver(t *testing.T) {
	assert.Equal(t, "/tmp/x.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", New("/tmp/x.db").dsn())
	assert.Equal(t, "/tmp/x.db?_busy_timeout=5000&_foreign_keys=on", NewWithDriver("/tmp/x.db", DriverMattn).dsn())
	assert.Equal(t, "file:x.db?mode=rwc&_busy_timeout=5000&_foreign_keys=on", NewWithDriver("file:x.db?mode=rwc", DriverMattn).dsn())
	assert.Equal(t, DriverModernc, NewWithDriver("/tmp/x.db", "").DriverName)
}
