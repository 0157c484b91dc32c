package domain

import (
	"math"
	"time"
)

// TimestampLayout is the wire/storage format for session timestamps.
const TimestampLayout = time.RFC3339

// DisplayLayout is the human-readable format used by FormattedDates.
const DisplayLayout = "Jan 2, 2006 15:04:05"

// Session is one bounded logging run producing a time-ordered series of
// sensor readings. Timestamps are stored as ISO-8601 strings.
type Session struct {
	ID       int64  `json:"session_id" db:"session_id"`
	Name     string `json:"session_name" db:"session_name"`
	Start    string `json:"timestamp_start" db:"timestamp_start"`
	End      string `json:"timestamp_end" db:"timestamp_end"`
	Location string `json:"location" db:"location"`
	DeviceID int64  `json:"device_id" db:"device_id"`
}

// FormattedDates returns the start and end timestamps in a human-readable
// format. Timestamps that fail to parse are returned as-is.
func (s *Session) FormattedDates() (start, end string) {
	start = formatTimestamp(s.Start)
	end = formatTimestamp(s.End)
	return start, end
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return ts
	}
	return t.Format(DisplayLayout)
}

// DurationMinutes returns the rounded session length in minutes. The result
// is negative when the end timestamp precedes the start; ordering is the
// caller's responsibility. Unparseable timestamps yield 0.
func (s *Session) DurationMinutes() int {
	start, err := time.Parse(TimestampLayout, s.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse(TimestampLayout, s.End)
	if err != nil {
		return 0
	}
	return int(math.Round(end.Sub(start).Minutes()))
}
