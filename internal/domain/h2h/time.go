package h2h

import "time"

// DateTimeLayout is the second-precision, local-calendar layout used
// throughout the schema for upload/download timestamps, matching the
// source format's "YYYY-MM-DD HH:MM" granularity widened to include
// seconds for DB storage.
const DateTimeLayout = "2006-01-02 15:04:05"

// Now returns the current time truncated to second precision, the
// granularity every stored timestamp is compared at.
func Now() time.Time {
	return time.Now().Truncate(time.Second)
}

// ParseDateTime parses a timestamp in DateTimeLayout.
func ParseDateTime(s string) (time.Time, error) {
	return time.Parse(DateTimeLayout, s)
}

// FormatDateTime renders t in DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.Truncate(time.Second).Format(DateTimeLayout)
}
