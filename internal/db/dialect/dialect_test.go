package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres(PGX))
	assert.False(t, IsPostgres(SQLite3))
}

func TestBoolToInt(t *testing.T) {
	assert.Equal(t, 1, BoolToInt(true))
	assert.Equal(t, 0, BoolToInt(false))
}

func TestTimestampType(t *testing.T) {
	assert.Equal(t, "TIMESTAMPTZ", TimestampType(PGX))
	assert.Equal(t, "DATETIME", TimestampType(SQLite3))
}
