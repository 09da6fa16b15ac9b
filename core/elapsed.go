package core

import (
	"fmt"
	"time"
)

// FormatElapsed renders d as H:MM:SS. Sub-second precision is truncated and
// hours are not wrapped into days.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}
