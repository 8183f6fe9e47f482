package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullTime_Scan(t *testing.T) {
	want := time.Date(2024, 1, 1, 10, 0, 0, 500, time.UTC)

	tests := []struct {
		name string
		src  any
	}{
		{"time value", want.In(time.FixedZone("CET", 3600))},
		{"bound text", TimeArg(want)},
		{"bytes", []byte(TimeArg(want))},
		{"sqlite default", "2024-01-01 10:00:00.0000005+00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n NullTime
			require.NoError(t, n.Scan(tt.src))
			assert.True(t, n.Valid)
			assert.True(t, want.Equal(n.Time))
			assert.Equal(t, time.UTC, n.Time.Location())
		})
	}
}

func TestNullTime_Null(t *testing.T) {
	var n NullTime
	require.NoError(t, n.Scan(nil))
	assert.False(t, n.Valid)
	assert.Nil(t, n.Ptr())
	assert.Nil(t, NullTimeArg(nil))
}

func TestNullTime_Invalid(t *testing.T) {
	var n NullTime
	assert.Error(t, n.Scan("yesterday"))
	assert.Error(t, n.Scan(42))
}

func TestTimeArg_SortsLexically(t *testing.T) {
	a := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	b := a.Add(time.Millisecond)

	assert.Less(t, TimeArg(a), TimeArg(b))
}
