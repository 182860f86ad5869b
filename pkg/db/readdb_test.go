package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateScan(t *testing.T) {
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, src := range []any{
		want,
		"2024-03-10",
		"2024-03-10 00:00:00+00:00",
		[]byte("2024-03-10T00:00:00Z"),
	} {
		var d Date
		require.NoError(t, d.Scan(src))
		assert.True(t, want.Equal(d.Time), "%v", src)
	}

	var d Date
	assert.Error(t, d.Scan("10/03/2024"))
	assert.Error(t, d.Scan(42))
}

func TestNewReadDBUsesSharedPool(t *testing.T) {
	conn, err := NewTest(t.Name())
	require.NoError(t, err)

	readDB, err := NewReadDB(conn)
	require.NoError(t, err)

	var one int
	require.NoError(t, readDB.Get(&one, readDB.Rebind("SELECT ?"), 1))
	assert.Equal(t, 1, one)
}
