package proration

import (
	"errors"
	"fmt"
	"time"
)

// Interval is the billing frequency of a plan
type Interval string

// Defining supported intervals
const (
	Monthly Interval = "monthly"
	Yearly  Interval = "yearly"
)

// ErrUnsupportedInterval is matched by every UnsupportedIntervalError
var ErrUnsupportedInterval = errors.New("unsupported interval")

// UnsupportedIntervalError is returned when proration is required for an Interval that cannot be prorated
type UnsupportedIntervalError struct {
	Interval Interval
}

func (e *UnsupportedIntervalError) Error() string {
	return fmt.Sprintf("Cannot prorate interval %q", string(e.Interval))
}

// Is lets errors.Is(err, ErrUnsupportedInterval) match
func (e *UnsupportedIntervalError) Is(target error) bool {
	return target == ErrUnsupportedInterval
}

// Terms describes the billing configuration of a plan as seen by the Calculator
type Terms struct {
	AmountCents       int64    // Full-period charge in minor units
	Interval          Interval // Either Monthly or Yearly
	PayInAdvance      bool     // First invoice is issued with From == To
	ProRata           bool     // Partial first period is charged by the day
	BeginningOfPeriod bool     // Billing is aligned on calendar month/year boundaries
}

// Window describes the billing window of an invoice
type Window struct {
	From    time.Time
	To      time.Time
	Renewal bool // Subscription already carries a subscription fee
}

// Detail holds every intermediate value of a computation
type Detail struct {
	Prorated       bool      `json:"prorated"`
	EffectiveTo    time.Time `json:"effectiveTo"`
	DaysToBill     int64     `json:"daysToBill"`
	PeriodDuration int64     `json:"periodDuration"`
	DayPrice       float64   `json:"dayPrice"`
	AmountCents    int64     `json:"amountCents"`
}

// Compute returns the amount in minor units to charge for the Window
func Compute(t Terms, w Window) (int64, error) {
	d, err := Breakdown(t, w)
	if err != nil {
		return 0, err
	}
	return d.AmountCents, nil
}

// Breakdown is Compute with the intermediate values. The first matching rule wins:
// not aligned on period boundaries, not pro rata, or a renewal all charge the full amount.
// Only the first period of a subscription is prorated.
func Breakdown(t Terms, w Window) (Detail, error) {
	full := Detail{
		EffectiveTo: Date(w.To),
		AmountCents: t.AmountCents,
	}
	if !t.BeginningOfPeriod || !t.ProRata || w.Renewal {
		return full, nil
	}

	from := Date(w.From)
	to := Date(w.To)

	// pay in advance: the first invoice has From == To, bill up to the end of the period
	effectiveTo := to
	if t.PayInAdvance {
		switch t.Interval {
		case Monthly:
			effectiveTo = EndOfMonth(to)
		case Yearly:
			effectiveTo = EndOfYear(to)
		default:
			return Detail{}, &UnsupportedIntervalError{Interval: t.Interval}
		}
	}

	duration, err := periodDuration(t.Interval, to, effectiveTo)
	if err != nil {
		return Detail{}, err
	}

	daysToBill := DaysBetween(from, effectiveTo)
	dayPrice := float64(t.AmountCents) / float64(duration)

	return Detail{
		Prorated:       true,
		EffectiveTo:    effectiveTo,
		DaysToBill:     daysToBill,
		PeriodDuration: duration,
		DayPrice:       dayPrice,
		AmountCents:    int64(float64(daysToBill) * dayPrice),
	}, nil
}

// periodDuration counts the days from the start of the period containing invoiceTo through effectiveTo, both included.
// The anchor is taken from the invoice date, not the extended one.
func periodDuration(interval Interval, invoiceTo, effectiveTo time.Time) (int64, error) {
	var anchor time.Time
	switch interval {
	case Monthly:
		anchor = BeginningOfMonth(invoiceTo)
	case Yearly:
		anchor = BeginningOfYear(invoiceTo)
	default:
		return 0, &UnsupportedIntervalError{Interval: interval}
	}
	return DaysBetween(anchor, effectiveTo) + 1, nil
}
