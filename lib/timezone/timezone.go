package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
}

// the menu site is keyed by the local calendar day in Freiburg, so
// "today" has to be computed there and not wherever the scraper runs.
func Now() time.Time {
	return time.Now().In(Location)
}

const DateLayout = "2006-01-02"

// Day truncates t to midnight of its calendar day in Location.
func Day(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

func Today() time.Time {
	return Day(Now())
}

// ParseDate parses a YYYY-MM-DD date as a calendar day in Location.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Location)
}

func FormatDate(t time.Time) string {
	return t.In(Location).Format(DateLayout)
}

// DateRange returns every calendar day from start to stop, both inclusive.
// It walks forward when start <= stop and backward otherwise.
func DateRange(start, stop time.Time) []time.Time {
	start = Day(start)
	stop = Day(stop)

	step := 1
	if start.After(stop) {
		step = -1
	}

	var days []time.Time
	current := start
	for {
		days = append(days, current)
		if current.Equal(stop) {
			break
		}
		// AddDate instead of adding 24h keeps the result at midnight
		// across daylight saving transitions.
		current = current.AddDate(0, 0, step)
	}
	return days
}

// TrailingWindow returns the (start, stop) pair covering the daysBack days
// ending at today, ordered so that DateRange walks it backward.
func TrailingWindow(today time.Time, daysBack int) (time.Time, time.Time) {
	today = Day(today)
	return today, today.AddDate(0, 0, -(daysBack - 1))
}
