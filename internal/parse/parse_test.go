package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  int
		expectErr bool
	}{
		{name: "Morning", raw: "09:00", expected: 540},
		{name: "Single digit hour", raw: "9:05", expected: 545},
		{name: "With seconds", raw: "17:00:00", expected: 1020},
		{name: "Padded", raw: " 22:30 ", expected: 1350},
		{name: "Midnight", raw: "00:00", expected: 0},
		{name: "End of day", raw: "24:00", expected: 1439},
		{name: "Hour out of range", raw: "25:00", expectErr: true},
		{name: "Minute out of range", raw: "12:60", expectErr: true},
		{name: "Garbage", raw: "noon", expectErr: true},
		{name: "Empty", raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseClock(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	y, m, d, err := ParseDate("2024-12-24")
	assert.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.December, m)
	assert.Equal(t, 24, d)

	y, m, d, err = ParseDate("2024-02-29T00:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, []int{2024, 2, 29}, []int{y, int(m), d})

	_, _, _, err = ParseDate("2023-02-29")
	assert.Error(t, err, "2023 is not a leap year")

	_, _, _, err = ParseDate("2024-13-01")
	assert.Error(t, err)

	_, _, _, err = ParseDate("24/12/2024")
	assert.Error(t, err)
}

func TestParseWeekdays(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  []time.Weekday
		expectErr bool
	}{
		{name: "Short names", raw: "mon,tue", expected: []time.Weekday{time.Monday, time.Tuesday}},
		{name: "Long names mixed case", raw: "Monday Friday", expected: []time.Weekday{time.Monday, time.Friday}},
		{name: "Numbers", raw: "0,6,7", expected: []time.Weekday{time.Sunday, time.Saturday}},
		{name: "Duplicates collapsed", raw: "fri, fri;sat", expected: []time.Weekday{time.Friday, time.Saturday}},
		{name: "Empty", raw: "  ", expected: nil},
		{name: "Unknown token", raw: "mon,funday", expectErr: true},
		{name: "Number out of range", raw: "8", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseWeekdays(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}
