package wind

import (
	"errors"
	"time"
)

// ErrSearchLimitExceeded is returned when a bounded nearest-slot search has
// exhausted both directions without finding an artifact.
var ErrSearchLimitExceeded = errors.New("no slot found within search limit")

// Resolver locates slot keys present in the artifact store relative to a
// requested instant. Resolvers only read the store, never mutate it.
type Resolver struct {
	store    ArtifactStore
	interval int // hours
}

// NewResolver creates a Resolver stepping by the given interval in hours.
func NewResolver(store ArtifactStore, intervalHours int) *Resolver {
	return &Resolver{store: store, interval: intervalHours}
}

// Nearest walks the slot sequence looking for the first key present in the
// store: backward from target first and, once the search has moved limitDays
// whole days away, forward from a single jump to target+limitDays. The jump
// skips the slots between the backward boundary and target+limitDays; that
// matches the behavior the service has always had, and clients key their
// caches by the returned slot keys, so it is kept as is.
//
// limitDays <= 0 disables the limit and the search walks backward without
// bound, like Latest.
func (r *Resolver) Nearest(target time.Time, limitDays int) (string, error) {
	target = target.UTC()
	cursor := target
	forward := false

	for {
		if limitDays > 0 && wholeDays(target, cursor) >= limitDays {
			if forward {
				return "", ErrSearchLimitExceeded
			}
			forward = true
			cursor = target.AddDate(0, 0, limitDays)
		}

		key := Quantize(cursor, r.interval)
		if r.store.Exists(key) {
			return key, nil
		}

		if forward {
			cursor = cursor.Add(Step(r.interval))
		} else {
			cursor = cursor.Add(-Step(r.interval))
		}
	}
}

// Latest walks strictly backward from now until a present slot key is found.
// The walk is unbounded: once the system has completed one successful
// harvest the store always holds at least one artifact, and that invariant
// is what guarantees termination here.
func (r *Resolver) Latest(now time.Time) string {
	cursor := now.UTC()
	for {
		key := Quantize(cursor, r.interval)
		if r.store.Exists(key) {
			return key
		}
		cursor = cursor.Add(-Step(r.interval))
	}
}

// wholeDays returns the truncated whole-day distance between two instants.
func wholeDays(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
