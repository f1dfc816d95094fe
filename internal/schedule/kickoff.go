package schedule

import (
	"fmt"
	"time"

	"github.com/derekprior/matchday/internal/league"
)

// WindowDays is the length of a matchday window.
const WindowDays = 3

// DaySlots describes the kickoffs on one day of a matchday window: Count
// fixtures starting at Hour:Minute, Interval apart.
type DaySlots struct {
	Offset   int // days after the window start, 0..WindowDays-1
	Hour     int
	Minute   int
	Count    int
	Interval time.Duration
}

// SlotTemplate is the kickoff layout shared by every matchday window.
type SlotTemplate struct {
	StartWeekday time.Weekday
	Days         []DaySlots
}

// DefaultTemplate is the classic Friday-to-Sunday layout for nine fixtures:
// Friday 19:00 and 20:00, Saturday every two hours from 12:00, Sunday 13:00
// and 15:00.
func DefaultTemplate() SlotTemplate {
	return SlotTemplate{
		StartWeekday: time.Friday,
		Days: []DaySlots{
			{Offset: 0, Hour: 19, Count: 2, Interval: time.Hour},
			{Offset: 1, Hour: 12, Count: 5, Interval: 2 * time.Hour},
			{Offset: 2, Hour: 13, Count: 2, Interval: 2 * time.Hour},
		},
	}
}

// Capacity is the number of fixtures one window can hold.
func (t SlotTemplate) Capacity() int {
	n := 0
	for _, d := range t.Days {
		n += d.Count
	}
	return n
}

// Validate checks that the template fits in a window and never puts two
// fixtures at the same time.
func (t SlotTemplate) Validate() error {
	if len(t.Days) == 0 {
		return fmt.Errorf("%w: template has no days", league.ErrSlotTemplateMismatch)
	}

	used := make(map[time.Duration]bool)
	prevOffset := 0
	for i, d := range t.Days {
		switch {
		case d.Offset < 0 || d.Offset >= WindowDays:
			return fmt.Errorf("%w: day %d offset %d outside the %d-day window", league.ErrSlotTemplateMismatch, i+1, d.Offset, WindowDays)
		case d.Offset < prevOffset:
			return fmt.Errorf("%w: day %d offset %d comes before day %d", league.ErrSlotTemplateMismatch, i+1, d.Offset, i)
		case d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59:
			return fmt.Errorf("%w: day %d has invalid start %02d:%02d", league.ErrSlotTemplateMismatch, i+1, d.Hour, d.Minute)
		case d.Count < 0:
			return fmt.Errorf("%w: day %d has negative count", league.ErrSlotTemplateMismatch, i+1)
		case d.Count > 1 && d.Interval <= 0:
			return fmt.Errorf("%w: day %d has %d fixtures at the same time", league.ErrSlotTemplateMismatch, i+1, d.Count)
		}
		prevOffset = d.Offset

		first := time.Duration(d.Offset)*24*time.Hour + time.Duration(d.Hour)*time.Hour + time.Duration(d.Minute)*time.Minute
		for k := 0; k < d.Count; k++ {
			at := first + time.Duration(k)*d.Interval
			if at >= WindowDays*24*time.Hour {
				return fmt.Errorf("%w: day %d kickoff %d falls outside the window", league.ErrSlotTemplateMismatch, i+1, k+1)
			}
			if used[at] {
				return fmt.Errorf("%w: day %d kickoff %d clashes with an earlier slot", league.ErrSlotTemplateMismatch, i+1, k+1)
			}
			used[at] = true
		}
	}

	if t.Capacity() == 0 {
		return fmt.Errorf("%w: template has no kickoff slots", league.ErrSlotTemplateMismatch)
	}
	return nil
}

// Kickoffs lists the slot times for the window beginning at windowStart,
// in template order.
func (t SlotTemplate) Kickoffs(windowStart time.Time) []time.Time {
	times := make([]time.Time, 0, t.Capacity())
	for _, d := range t.Days {
		first := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day()+d.Offset,
			d.Hour, d.Minute, 0, 0, windowStart.Location())
		for k := 0; k < d.Count; k++ {
			times = append(times, first.Add(time.Duration(k)*d.Interval))
		}
	}
	return times
}

// WindowStart returns midnight of the first day on or after start that
// falls on weekday, in start's location.
func WindowStart(start time.Time, weekday time.Weekday) time.Time {
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AssignKickoffs dates every pairing. Matchday k (0-based) plays in the
// window starting 7k days after the first StartWeekday on or after start;
// the i-th pairing of a matchday takes the template's i-th slot. Nothing is
// returned unless every pairing gets a slot.
func AssignKickoffs(matchdays []league.Matchday, start time.Time, tmpl SlotTemplate) ([]league.Fixture, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	capacity := tmpl.Capacity()
	total := 0
	for i, md := range matchdays {
		if len(md.Pairings) > capacity {
			return nil, fmt.Errorf("%w: matchday %d has %d fixtures but the template has %d slots",
				league.ErrSlotTemplateMismatch, matchdayNumber(md, i), len(md.Pairings), capacity)
		}
		total += len(md.Pairings)
	}

	first := WindowStart(start, tmpl.StartWeekday)
	fixtures := make([]league.Fixture, 0, total)
	for i, md := range matchdays {
		kickoffs := tmpl.Kickoffs(first.AddDate(0, 0, 7*i))
		for j, p := range md.Pairings {
			fixtures = append(fixtures, league.Fixture{
				Matchday: matchdayNumber(md, i),
				Pairing:  p,
				Kickoff:  kickoffs[j],
				Status:   league.StatusScheduled,
			})
		}
	}
	return fixtures, nil
}

func matchdayNumber(md league.Matchday, index int) int {
	if md.Number > 0 {
		return md.Number
	}
	return index + 1
}
