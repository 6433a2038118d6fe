package commands

import (
	"errors"
	"fmt"
	"mensa-scraper/lib/timezone"
	"time"
)

var ErrUsage = errors.New("usage error")

// resolveRange turns the date flags into the (start, stop) pair to walk.
// Without --start and --stop the trailing window of daysBack days ending
// at today is used.
func resolveRange(start, stop string, daysBack int, today time.Time) (time.Time, time.Time, error) {
	if (start == "") != (stop == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --start and --stop must be given together", ErrUsage)
	}

	if start == "" {
		if daysBack < 1 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: --days_back must be at least 1, got %d", ErrUsage, daysBack)
		}
		first, last := timezone.TrailingWindow(today, daysBack)
		return first, last, nil
	}

	first, err := timezone.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --start %q is not a YYYY-MM-DD date", ErrUsage, start)
	}
	last, err := timezone.ParseDate(stop)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --stop %q is not a YYYY-MM-DD date", ErrUsage, stop)
	}
	return first, last, nil
}
