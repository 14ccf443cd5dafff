package availability

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is the family every window rejection matches with errors.Is.
// ErrWindowTooSoon and ErrWindowTooFar narrow it.
var (
	ErrInvalidWindow = errors.New("invalid booking window")
	ErrWindowTooSoon = fmt.Errorf("%w: start must be at or after the next whole hour", ErrInvalidWindow)
	ErrWindowTooFar  = fmt.Errorf("%w: start must be within one month", ErrInvalidWindow)

	errEndBeforeStart = fmt.Errorf("%w: end must be after start", ErrInvalidWindow)
)

// NextWholeHour truncates now (in UTC) to the hour and adds one hour.
func NextWholeHour(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(time.Hour)
}

// LatestStart is the last instant a booking may start at, one calendar month after now.
func LatestStart(now time.Time) time.Time {
	return now.UTC().AddDate(0, 1, 0)
}

// ValidateWindow applies the booking window rules in order and returns the first
// violation. Only start is bounded by the one-month ceiling; end may lie further out.
func ValidateWindow(start, end, now time.Time) error {
	if !end.After(start) {
		return errEndBeforeStart
	}
	startUTC := start.UTC()
	if startUTC.Before(NextWholeHour(now)) {
		return ErrWindowTooSoon
	}
	if startUTC.After(LatestStart(now)) {
		return ErrWindowTooFar
	}
	return nil
}
