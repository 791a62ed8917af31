package critical

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatSize renders a byte count in kilobytes with up to four fraction
// digits, e.g. "1.2345 kB".
func FormatSize(n int) string {
	return humanize.CommafWithDigits(float64(n)/1000, 4) + " kB"
}

// FormatDuration renders d in whole milliseconds, e.g. "12 ms".
func FormatDuration(d time.Duration) string {
	return humanize.CommafWithDigits(float64(d)/float64(time.Millisecond), 0) + " ms"
}

// FormatPercent renders part/total as a percentage with up to two fraction
// digits. A zero total renders as "0%".
func FormatPercent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return humanize.CommafWithDigits(float64(part)/float64(total)*100, 2) + "%"
}
