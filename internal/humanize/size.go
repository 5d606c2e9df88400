// Package humanize formats byte counts for human consumption.
package humanize

import "fmt"

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n as e.g. "0 B", "1.0 KB", "1.0 MB".
func FormatBytes(n int64) string {
	if n < 0 {
		return "0 B"
	}

	size := float64(n)
	for i, unit := range units {
		if size < 1024 || i == len(units)-1 {
			if unit == "B" {
				return fmt.Sprintf("%d B", int64(size))
			}
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%d B", n)
}
