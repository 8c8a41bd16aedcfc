package billing

import "time"

// addMonths moves t forward by n calendar months, clamping the day to the
// last day of the target month (Jan 31 + 1 month = Feb 28 or 29).
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// recurringDueDates lists the monthly due dates after start that fall on or
// before both end and horizon. The start date itself is covered by the
// initial payment.
func recurringDueDates(start, end, horizon time.Time) []time.Time {
	var dates []time.Time
	for k := 1; ; k++ {
		due := addMonths(start, k)
		if due.After(end) || due.After(horizon) {
			return dates
		}
		dates = append(dates, due)
	}
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
