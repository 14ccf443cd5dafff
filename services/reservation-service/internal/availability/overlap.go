package availability

import "time"

// Overlaps reports whether [startA,endA) and [startB,endB) share an instant.
// Touching windows (endA == startB) do not overlap. Callers guarantee start < end.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}
