// README: Recurrence pattern types for repeated trip bookings.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput is returned for malformed month identifiers or patterns.
var ErrInvalidInput = errors.New("invalid schedule input")

type Kind string

const (
	KindSpecificDates Kind = "specific_dates"
	KindWeekdays      Kind = "weekdays"
	KindWeekends      Kind = "weekends"
)

// YearMonth identifies a calendar month, e.g. 2025-02.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses the wire format "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, ErrInvalidInput
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) valid() bool {
	return ym.Year > 0 && ym.Month >= time.January && ym.Month <= time.December
}

// Pattern is a tagged union: specific dates carry Dates, the month-based
// kinds carry Month. It holds no other state; expansion is pure.
type Pattern struct {
	Kind  Kind
	Dates []time.Time // KindSpecificDates only
	Month YearMonth   // KindWeekdays / KindWeekends only
}
