package attendance

import (
	"fmt"
	"time"
)

// Scanner devices post timestamps either as RFC3339 or as a zone-less
// local wall-clock string ("2025-09-18T08:05:00").
const localLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses a scan timestamp. Zone-less values are
// interpreted in server-local time, which is also the frame the late
// cutoff and day bucketing are defined in.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

// DayStart truncates t to midnight in its own location. All scans within
// one calendar day map to the same value.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseCutoff parses an "HH:MM:SS" time-of-day into an offset from
// midnight.
func ParseCutoff(s string) (time.Duration, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("invalid cutoff %q (want HH:MM:SS)", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid cutoff %q (want HH:MM:SS)", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func timeOfDay(t time.Time) time.Duration {
	return t.Sub(DayStart(t))
}
