package wind

import (
	"fmt"
	"time"
)

// DefaultIntervalHours is the GFS model-run cadence.
const DefaultIntervalHours = 6

// Quantize maps an instant to the slot key of the interval bucket it falls
// into: the calendar date (YYYYMMDD) followed by the bucket hour, zero-padded
// to two digits. Two instants in the same bucket on the same date yield the
// same key. interval must divide 24 evenly.
func Quantize(t time.Time, intervalHours int) string {
	t = t.UTC()
	bucket := (t.Hour() / intervalHours) * intervalHours
	return fmt.Sprintf("%s%02d", t.Format("20060102"), bucket)
}

// Step returns the slot interval as a duration.
func Step(intervalHours int) time.Duration {
	return time.Duration(intervalHours) * time.Hour
}

// ValidInterval reports whether intervalHours is a positive divisor of 24.
func ValidInterval(intervalHours int) bool {
	return intervalHours > 0 && 24%intervalHours == 0
}
