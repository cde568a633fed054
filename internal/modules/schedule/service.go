// README: Recurrence expansion: patterns to ordered, concrete trip dates.
package schedule

import (
	"sort"
	"time"
)

// Expand turns a pattern into the ordered list of concrete trip dates, each
// normalized to UTC midnight. Specific dates come back sorted ascending with
// duplicate calendar days removed; the month kinds produce every matching
// day of the month inclusive of both boundaries. Pure and idempotent: the
// same pattern always yields the same list.
//
// Past months are not rejected here; that policy belongs to the caller (see
// Service.Remaining for the booking flow's view).
func Expand(p Pattern) ([]time.Time, error) {
	switch p.Kind {
	case KindSpecificDates:
		seen := make(map[time.Time]struct{}, len(p.Dates))
		dates := make([]time.Time, 0, len(p.Dates))
		for _, d := range p.Dates {
			day := midnightUTC(d)
			if _, ok := seen[day]; ok {
				continue
			}
			seen[day] = struct{}{}
			dates = append(dates, day)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		return dates, nil

	case KindWeekdays:
		return expandMonth(p.Month, func(wd time.Weekday) bool {
			return wd >= time.Monday && wd <= time.Friday
		})

	case KindWeekends:
		return expandMonth(p.Month, func(wd time.Weekday) bool {
			return wd == time.Saturday || wd == time.Sunday
		})

	default:
		return nil, ErrInvalidInput
	}
}

// Count reports how many trip dates a pattern expands to.
func Count(p Pattern) (int, error) {
	dates, err := Expand(p)
	if err != nil {
		return 0, err
	}
	return len(dates), nil
}

func expandMonth(ym YearMonth, match func(time.Weekday) bool) ([]time.Time, error) {
	if !ym.valid() {
		return nil, ErrInvalidInput
	}
	first := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
	var dates []time.Time
	for d := first; d.Month() == ym.Month; d = d.AddDate(0, 0, 1) {
		if match(d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Service wraps expansion with an injected clock so "today" is explicit
// rather than read from the global clock inside the date math.
type Service struct {
	now func() time.Time
}

func NewService(now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{now: now}
}

func (s *Service) Expand(p Pattern) ([]time.Time, error) {
	return Expand(p)
}

// Remaining returns the expanded dates that are not before today. A month
// pattern booked mid-month is priced only for the days still ahead,
// today included.
func (s *Service) Remaining(p Pattern) ([]time.Time, error) {
	dates, err := Expand(p)
	if err != nil {
		return nil, err
	}
	today := midnightUTC(s.now())
	remaining := dates[:0:0]
	for _, d := range dates {
		if !d.Before(today) {
			remaining = append(remaining, d)
		}
	}
	return remaining, nil
}
