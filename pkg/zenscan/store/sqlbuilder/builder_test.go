package sqlbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	q := New(PlaceholderQuestion)
	assert.Equal(t, "?", q.Arg("a"))
	assert.Equal(t, "?", q.Arg(1))
	assert.Equal(t, []any{"a", 1}, q.Args())

	d := New(PlaceholderDollar)
	for i := 0; i < 11; i++ {
		d.Arg(i)
	}
	assert.Equal(t, "$12", d.Arg("x"))
	assert.Equal(t, 12, d.Len())
}

func TestWhereClause(t *testing.T) {
	b := New(PlaceholderDollar)
	assert.Equal(t, "", b.WhereClause())
	b.Where("name LIKE " + b.Arg("Pen%"))
	b.Where("active = " + b.Arg(true))
	assert.Equal(t, " WHERE name LIKE $1 AND active = $2", b.WhereClause())
}
