package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTimeString(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"00:00", true},
		{"09:05", true},
		{"19:59", true},
		{"23:59", true},
		{"24:00", false},
		{"9:00", false},
		{"09:60", false},
		{"09:5", false},
		{"0900", false},
		{" 09:00", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidTimeString(tt.input))
		})
	}
}

func TestCombineDateAndTime(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("combines in UTC", func(t *testing.T) {
		got, ok := CombineDateAndTime(date, "10:00", time.UTC)

		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), got)
	})

	t.Run("zeroes seconds and nanoseconds", func(t *testing.T) {
		noisy := time.Date(2024, 1, 1, 13, 45, 12, 999, time.UTC)

		got, ok := CombineDateAndTime(noisy, "08:30", time.UTC)

		require.True(t, ok)
		assert.Equal(t, 0, got.Second())
		assert.Equal(t, 0, got.Nanosecond())
		assert.Equal(t, 1, got.Day())
	})

	t.Run("applies the wall clock in the given location", func(t *testing.T) {
		berlin := time.FixedZone("CET", 3600)

		got, ok := CombineDateAndTime(date, "10:00", berlin)

		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), got.UTC())
	})

	t.Run("keeps the stored calendar date in negative offsets", func(t *testing.T) {
		newYork := time.FixedZone("EST", -5*3600)

		got, ok := CombineDateAndTime(date, "10:00", newYork)

		require.True(t, ok)
		assert.Equal(t, 1, got.Day())
		assert.Equal(t, time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), got.UTC())
	})

	t.Run("nil location means UTC", func(t *testing.T) {
		got, ok := CombineDateAndTime(date, "10:00", nil)

		require.True(t, ok)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("rejects malformed time", func(t *testing.T) {
		_, ok := CombineDateAndTime(date, "25:00", time.UTC)
		assert.False(t, ok)
	})

	t.Run("rejects zero date", func(t *testing.T) {
		_, ok := CombineDateAndTime(time.Time{}, "10:00", time.UTC)
		assert.False(t, ok)
	})
}

func TestCombineDateStringAndTime(t *testing.T) {
	got, ok := CombineDateStringAndTime("2024-01-01", "09:00", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), got)

	got, ok = CombineDateStringAndTime("2024-01-01T00:00:00Z", "09:00", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), got)

	_, ok = CombineDateStringAndTime("not-a-date", "09:00", time.UTC)
	assert.False(t, ok)
}

func TestExtractTimeString(t *testing.T) {
	assert.Equal(t, "09:05", ExtractTimeString(time.Date(2024, 1, 1, 9, 5, 59, 0, time.UTC), time.UTC))
	assert.Equal(t, "00:00", ExtractTimeString(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, "10:05", ExtractTimeString(time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC), time.FixedZone("CET", 3600)))
	assert.Equal(t, "", ExtractTimeString(time.Time{}, time.UTC))
}

func TestExtractTimeString_InvertsCombine(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	for _, hhmm := range []string{"00:00", "07:45", "12:30", "23:59"} {
		combined, ok := CombineDateAndTime(date, hhmm, loc)
		require.True(t, ok)
		assert.Equal(t, hhmm, ExtractTimeString(combined, loc))
	}
}

func TestTruncateToMinute(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2024, 1, 1, 10, 0, 30, 500, time.UTC)

	got := TruncateToMinute(in, ist)

	assert.True(t, got.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, ist, got.Location())
}

func TestNormalizeDate(t *testing.T) {
	late := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), NormalizeDate(late, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), NormalizeDate(late, time.FixedZone("CET", 3600)))
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-02-29")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, ok = ParseDate("2023-02-29")
	assert.False(t, ok)

	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}
