package scraper

import (
	"mensa-scraper/lib/scrapers/mensa"
	"mensa-scraper/services/mensa/export"
	"sort"
	"time"
)

type DaySkip struct {
	Date time.Time
	mensa.Skip
}

type Report struct {
	Days        int
	DaysScraped int
	Skips       []DaySkip
	// set when the run stopped before reaching the last day
	Cancelled bool
}

func (r *Report) add(day time.Time, skips []mensa.Skip) {
	for _, s := range skips {
		r.Skips = append(r.Skips, DaySkip{Date: day, Skip: s})
	}
}

// Counts returns how often each skip reason occurred.
func (r Report) Counts() map[mensa.Reason]int {
	counts := map[mensa.Reason]int{}
	for _, s := range r.Skips {
		counts[s.Reason]++
	}
	return counts
}

type ReasonCount struct {
	Reason mensa.Reason
	Count  int
}

// SortedCounts is Counts ordered by descending count, then by reason.
func (r Report) SortedCounts() []ReasonCount {
	var out []ReasonCount
	for reason, count := range r.Counts() {
		out = append(out, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

type Result struct {
	Meals  []export.Meal
	Report Report
}
