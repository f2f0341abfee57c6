package persona

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestYearsOfExperience(t *testing.T) {
	now := date(2025, time.June, 15)

	cases := []struct {
		name   string
		ranges []DateRange
		want   int
	}{
		{
			name:   "no experience",
			ranges: nil,
			want:   0,
		},
		{
			name:   "same month tenure counts one month",
			ranges: []DateRange{{Start: date(2024, time.October, 1), End: datePtr(2024, time.October, 31)}},
			want:   1,
		},
		{
			name:   "two calendar months stay under a year",
			ranges: []DateRange{{Start: date(2024, time.October, 1), End: datePtr(2024, time.December, 1)}},
			want:   1,
		},
		{
			name:   "twenty-six months report three years",
			ranges: []DateRange{{Start: date(2022, time.May, 15), End: datePtr(2024, time.June, 20)}},
			want:   3,
		},
		{
			name: "trailing partial month not credited before start day",
			// 2022-05-15 .. 2024-06-10: 25 months, end day short of start day.
			ranges: []DateRange{{Start: date(2022, time.May, 15), End: datePtr(2024, time.June, 10)}},
			want:   3,
		},
		{
			name:   "open ended range counts up to now",
			ranges: []DateRange{{Start: date(2024, time.June, 15)}},
			want:   2,
		},
		{
			name: "ranges accumulate before the year division",
			ranges: []DateRange{
				{Start: date(2020, time.January, 1), End: datePtr(2020, time.July, 1)},
				{Start: date(2021, time.January, 1), End: datePtr(2021, time.July, 1)},
			},
			want: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := YearsOfExperience(tc.ranges, now); got != tc.want {
				t.Fatalf("YearsOfExperience() = %d, want %d", got, tc.want)
			}
		})
	}
}
