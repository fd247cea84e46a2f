package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_Embedded(t *testing.T) {
	ms, err := Discover()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ms), 2)
	assert.Equal(t, "001", ms[0].Version)
	assert.Equal(t, "001_schema.sql", ms[0].Filename)
	assert.Len(t, ms[0].Checksum, 64)
	assert.Contains(t, ms[0].SQL, "CREATE TABLE IF NOT EXISTS reparaciones")
}

func TestDiscover_SortsAndSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"010_b.sql": {Data: []byte("SELECT 2;")},
		"002_a.sql": {Data: []byte("SELECT 1;")},
		"README.md": {Data: []byte("docs")},
		"sub/x.sql": {Data: []byte("SELECT 3;")},
	}
	ms, err := discover(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "002_a.sql", ms[0].Filename)
	assert.Equal(t, "010_b.sql", ms[1].Filename)
}

func TestDiscover_RejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"003_a.sql": {Data: []byte("SELECT 1;")},
		"003_b.sql": {Data: []byte("SELECT 2;")},
	}
	_, err := discover(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 003")
}

func TestDiscover_RejectsBadName(t *testing.T) {
	fsys := fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1;")}}
	_, err := discover(fsys)
	assert.ErrorContains(t, err, "invalid migration filename")
}
