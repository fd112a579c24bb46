package booking

import (
	"math"
	"time"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// DateLayout is the wire format for check-in/check-out dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// DateRange is a half-open stay [CheckIn, CheckOut) at calendar-day granularity.
// The check-out day itself is not occupied.
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewDateRange normalizes both dates to UTC midnight and requires checkOut strictly after checkIn.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	in, out := truncateToDate(checkIn), truncateToDate(checkOut)
	if !in.Before(out) {
		return DateRange{}, domain.NewInvalidRangeError(in.Format(DateLayout), out.Format(DateLayout))
	}
	return DateRange{checkIn: in, checkOut: out}, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a DateRange.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return DateRange{}, domain.NewValidationError("check_in must be a YYYY-MM-DD date")
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return DateRange{}, domain.NewValidationError("check_out must be a YYYY-MM-DD date")
	}
	return NewDateRange(in, out)
}

// CheckIn returns the first occupied day.
func (r DateRange) CheckIn() time.Time { return r.checkIn }

// CheckOut returns the departure day, which is not occupied.
func (r DateRange) CheckOut() time.Time { return r.checkOut }

// Overlaps reports half-open interval intersection: a1 < b2 AND b1 < a2.
// Adjacent stays (one checks out the day the other checks in) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.checkIn.Before(other.checkOut) && other.checkIn.Before(r.checkOut)
}

// Nights returns the number of calendar nights in the stay.
func (r DateRange) Nights() int {
	return int(math.Ceil(float64(r.checkOut.Sub(r.checkIn)) / float64(day)))
}

// EndsAfter reports whether the stay's check-out lies strictly after t.
func (r DateRange) EndsAfter(t time.Time) bool {
	return r.checkOut.After(t)
}

// IsZero reports whether the range was never initialized.
func (r DateRange) IsZero() bool {
	return r.checkIn.IsZero() && r.checkOut.IsZero()
}

// String renders the range as [YYYY-MM-DD, YYYY-MM-DD).
func (r DateRange) String() string {
	return "[" + r.checkIn.Format(DateLayout) + ", " + r.checkOut.Format(DateLayout) + ")"
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
