package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePeriodHalfBoundary(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want Period
	}{
		{"first day of month", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), Period{2025, 3, 1}},
		{"day 15 closes first half", time.Date(2025, time.March, 15, 23, 59, 59, 0, time.UTC), Period{2025, 3, 1}},
		{"day 16 opens second half", time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC), Period{2025, 3, 2}},
		{"last day of 31-day month", time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC), Period{2025, 3, 2}},
		{"last day of 30-day month", time.Date(2025, time.April, 30, 12, 0, 0, 0, time.UTC), Period{2025, 4, 2}},
		{"february boundary day 15", time.Date(2025, time.February, 15, 12, 0, 0, 0, time.UTC), Period{2025, 2, 1}},
		{"february boundary day 16", time.Date(2025, time.February, 16, 12, 0, 0, 0, time.UTC), Period{2025, 2, 2}},
		{"february 28 non-leap", time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC), Period{2025, 2, 2}},
		{"february 29 leap year", time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC), Period{2024, 2, 2}},
		{"day 28 stays in second half", time.Date(2025, time.June, 28, 12, 0, 0, 0, time.UTC), Period{2025, 6, 2}},
		{"december 31 keeps the year", time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC), Period{2025, 12, 2}},
		{"january 1 rolls the year", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), Period{2026, 1, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolvePeriod(tc.date))
		})
	}
}
