package logging

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count with binary units, e.g. "1.5 MiB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// FormatAge renders how long ago t was, e.g. "3 hours ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
