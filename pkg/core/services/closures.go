package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// closureEpoch anchors rules that carry no DTSTART
var closureEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ClosureCalendar answers whether the clinic is closed on a date.
// A nil calendar is never closed.
type ClosureCalendar struct {
	rules []*rrule.RRule
}

// NewClosureCalendar parses RRULE strings such as "FREQ=WEEKLY;BYDAY=SU"
func NewClosureCalendar(rules []string) (*ClosureCalendar, error) {
	cal := &ClosureCalendar{}
	for _, s := range rules {
		opt, err := rrule.StrToROption(s)
		if err != nil {
			return nil, fmt.Errorf("invalid closure rule %q: %w", s, err)
		}
		if opt.Dtstart.IsZero() {
			opt.Dtstart = closureEpoch
		}

		r, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("invalid closure rule %q: %w", s, err)
		}
		cal.rules = append(cal.rules, r)
	}
	return cal, nil
}

// IsClosed reports whether any rule has an occurrence on date's calendar day (UTC)
func (c *ClosureCalendar) IsClosed(date time.Time) bool {
	if c == nil {
		return false
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	for _, r := range c.rules {
		next := r.After(dayStart, true)
		if !next.IsZero() && next.Before(dayEnd) {
			return true
		}
	}
	return false
}
