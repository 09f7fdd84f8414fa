package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-09-25")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 9, 25, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDay("25/09/2024")
	require.Error(t, err)
	_, err = ParseDay("  ")
	require.Error(t, err)
}

func TestTodayAtUsesBusinessTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	// 03:30 UTC on the 26th is still the evening of the 25th in Mexico City.
	instant := time.Date(2024, 9, 26, 3, 30, 0, 0, time.UTC)
	require.Equal(t, "2024-09-25", Format(TodayAt(instant, loc)))
	require.Equal(t, "2024-09-26", Format(TodayAt(instant, nil)))
}

func TestRange(t *testing.T) {
	start, end := Range(time.Date(2024, 9, 25, 17, 45, 0, 0, time.UTC))
	require.Equal(t, time.Date(2024, 9, 25, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2024, 9, 26, 0, 0, 0, 0, time.UTC), end)
}

func TestInstantRange(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*60*60)
	start, end := InstantRange(time.Date(2024, 9, 25, 0, 0, 0, 0, time.UTC), loc)
	require.Equal(t, time.Date(2024, 9, 25, 6, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2024, 9, 26, 6, 0, 0, 0, time.UTC), end)
}
