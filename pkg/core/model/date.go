package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the mm-dd-yyyy format accepted on the command line
const DateLayout = "01-02-2006"

// ParseDate parses a hyphen-delimited mm-dd-yyyy date.
// Single-digit month and day are accepted ("3-1-2024").
// Impossible calendar dates such as 02-30-2024 are rejected.
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("date %q must be in mm-dd-yyyy format", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" {
			return time.Time{}, fmt.Errorf("date %q must be in mm-dd-yyyy format", s)
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if len(parts[2]) != 4 {
		return time.Time{}, fmt.Errorf("date %q must have a four digit year", s)
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow (Feb 30 -> Mar 1), so compare back
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("date %q is not a valid calendar date", s)
	}
	return d, nil
}

// FormatDate renders d as mm-dd-yyyy
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}
