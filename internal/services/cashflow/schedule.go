package cashflow

import (
	"time"

	"github.com/bobmcallan/fintrack/internal/models"
)

// MonthlySchedule returns one installment date per month from start up to and
// including end. Each date keeps start's day of month, clamped to the last day
// of shorter months (a plan started on the 31st pays on Feb 28/29, Apr 30, ...).
func MonthlySchedule(start, end time.Time) []time.Time {
	start, end = models.Day(start), models.Day(end)
	if end.Before(start) {
		return nil
	}

	day := start.Day()
	var dates []time.Time
	for i := 0; ; i++ {
		// first of the target month, then clamp
		first := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1).Day()
		d := day
		if d > last {
			d = last
		}
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
		if date.After(end) {
			break
		}
		dates = append(dates, date)
	}
	return dates
}
