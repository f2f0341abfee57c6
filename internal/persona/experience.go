package persona

import "time"

// DateRange is one tenure; a nil End means the position is still held.
type DateRange struct {
	Start time.Time
	End   *time.Time
}

// YearsOfExperience totals inclusive month counts across ranges and reports
// floor(months/12)+1 years. Per range: an open end counts up to now; a
// same-month tenure still counts as one month; a trailing partial month is
// credited when the end day has reached the start day. Zero ranges report
// zero, not the literal formula's one year.
func YearsOfExperience(ranges []DateRange, now time.Time) int {
	if len(ranges) == 0 {
		return 0
	}

	totalMonths := 0
	for _, r := range ranges {
		end := now
		if r.End != nil {
			end = *r.End
		}
		months := (end.Year()-r.Start.Year())*12 + int(end.Month()) - int(r.Start.Month())
		if months == 0 {
			months = 1
		} else if end.Day() >= r.Start.Day() {
			months++
		}
		totalMonths += months
	}
	return totalMonths/12 + 1
}
