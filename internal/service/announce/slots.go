package announce

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata" // prime slots must resolve on hosts without zoneinfo
)

type slot struct{ hour, minute int }

// Slots is the ordered list of daily prime-time posting slots in one timezone.
type Slots struct {
	times []slot
	loc   *time.Location
}

// ParseSlots parses "HH:MM" entries (e.g. "12:15") interpreted in tz.
func ParseSlots(specs []string, tz string) (*Slots, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one prime slot is required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	times := make([]slot, 0, len(specs))
	for _, spec := range specs {
		t, err := time.Parse("15:04", spec)
		if err != nil {
			return nil, fmt.Errorf("invalid prime slot %q: %w", spec, err)
		}
		times = append(times, slot{hour: t.Hour(), minute: t.Minute()})
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].hour != times[j].hour {
			return times[i].hour < times[j].hour
		}
		return times[i].minute < times[j].minute
	})
	return &Slots{times: times, loc: loc}, nil
}

// Next returns the first slot strictly after now, rolling over to the first
// slot of the next day. The result is in UTC.
func (s *Slots) Next(now time.Time) time.Time {
	local := now.In(s.loc)
	y, m, d := local.Date()
	for _, t := range s.times {
		candidate := time.Date(y, m, d, t.hour, t.minute, 0, 0, s.loc)
		if candidate.After(now) {
			return candidate.UTC()
		}
	}
	first := s.times[0]
	return time.Date(y, m, d+1, first.hour, first.minute, 0, 0, s.loc).UTC()
}

// Location is the timezone slots are evaluated in.
func (s *Slots) Location() *time.Location { return s.loc }
