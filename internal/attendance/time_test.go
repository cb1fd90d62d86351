package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		ts, err := ParseTimestamp("2025-09-18T08:05:00+05:30")
		require.NoError(t, err)
		require.Equal(t, 8, ts.Hour())
		require.Equal(t, 5, ts.Minute())
	})

	t.Run("zone-less local", func(t *testing.T) {
		ts, err := ParseTimestamp("2025-09-18T08:05:00")
		require.NoError(t, err)
		require.Equal(t, time.Local, ts.Location())
		require.Equal(t, 8, ts.Hour())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseTimestamp("yesterday at noon")
		require.Error(t, err)
	})

	t.Run("date only is rejected", func(t *testing.T) {
		_, err := ParseTimestamp("2025-09-18")
		require.Error(t, err)
	})
}

func TestDayStart(t *testing.T) {
	ts, err := ParseTimestamp("2025-09-18T23:59:59")
	require.NoError(t, err)
	day := DayStart(ts)
	require.Equal(t, 0, day.Hour())
	require.Equal(t, 0, day.Minute())
	require.Equal(t, 0, day.Second())
	require.Equal(t, ts.Location(), day.Location())

	morning, err := ParseTimestamp("2025-09-18T00:00:00")
	require.NoError(t, err)
	require.True(t, day.Equal(DayStart(morning)))
}

func TestParseCutoff(t *testing.T) {
	d, err := ParseCutoff("08:15:00")
	require.NoError(t, err)
	require.Equal(t, 8*time.Hour+15*time.Minute, d)

	d, err = ParseCutoff("23:59:59")
	require.NoError(t, err)
	require.Equal(t, 23*time.Hour+59*time.Minute+59*time.Second, d)

	for _, bad := range []string{"", "8am", "24:00:00", "08:60:00", "08:15"} {
		_, err := ParseCutoff(bad)
		require.Error(t, err, "cutoff %q should be rejected", bad)
	}
}

func TestPresentPercentage(t *testing.T) {
	require.Equal(t, 0.0, presentPercentage(0, 0))
	require.Equal(t, 100.0, presentPercentage(7, 7))
	require.Equal(t, 33.3, presentPercentage(1, 3))
	require.Equal(t, 66.7, presentPercentage(2, 3))
	require.Equal(t, 12.5, presentPercentage(1, 8))
}
