package usecase

import (
	"time"

	"github.com/eslsoft/finquest/internal/entity"
)

// CalculateStreak counts consecutive login days ending today, or ending
// yesterday when today has no login yet. It is always derived from the full
// date set so out-of-order inserts and long absences cannot drift the count.
// Dates that do not parse as YYYY-MM-DD are ignored.
func CalculateStreak(dates []string, today string) int {
	if len(dates) == 0 {
		return 0
	}
	day, err := entity.ParseDay(today)
	if err != nil {
		return 0
	}

	present := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		t, err := entity.ParseDay(d)
		if err != nil {
			continue
		}
		present[entity.FormatDay(t)] = struct{}{}
	}

	has := func(t time.Time) bool {
		_, ok := present[entity.FormatDay(t)]
		return ok
	}

	if !has(day) {
		day = day.AddDate(0, 0, -1)
		if !has(day) {
			return 0
		}
	}

	streak := 0
	for has(day) {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
