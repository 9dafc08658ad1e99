// Package datepolicy validates and normalises reservation dates. Raw input
// is the external DD-MM-YYYY form; every accepted date comes back as a
// midnight-UTC time.Time (see model.Day).
package datepolicy

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iliyamo/room-reservation-ledger/internal/clock"
	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// DefaultLeadDays is the minimum number of days between today and a booked
// (or cancelled) reservation date.
const DefaultLeadDays = 2

// Policy holds the clock, time zone and lead time the booking rules are
// evaluated against.
type Policy struct {
	clock    clock.Clock
	loc      *time.Location
	leadDays int
}

// Option customises a Policy.
type Option func(*Policy)

// WithLocation sets the time zone in which "today" is computed.
func WithLocation(loc *time.Location) Option {
	return func(p *Policy) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithLeadDays overrides DefaultLeadDays.
func WithLeadDays(n int) Option {
	return func(p *Policy) {
		if n >= 0 {
			p.leadDays = n
		}
	}
}

// New builds a Policy. Without options it uses the local time zone and a
// two-day lead time.
func New(clk clock.Clock, opts ...Option) *Policy {
	p := &Policy{clock: clk, loc: time.Local, leadDays: DefaultLeadDays}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Now is the current instant according to the policy's clock.
func (p *Policy) Now() time.Time { return p.clock.Now() }

// Today is the current calendar date in the policy's time zone.
func (p *Policy) Today() time.Time {
	return model.Day(p.clock.Now().In(p.loc))
}

// LeadDays is the configured minimum lead time.
func (p *Policy) LeadDays() int { return p.leadDays }

// Earliest is the first date that may be booked today.
func (p *Policy) Earliest() time.Time {
	return p.Today().AddDate(0, 0, p.leadDays)
}

// DaysUntil counts whole calendar days from today to d (negative when d is
// in the past).
func (p *Policy) DaysUntil(d time.Time) int {
	return int(model.Day(d).Sub(p.Today()).Hours() / 24)
}

// ParseDate applies the format rules only: non-empty, no letters, hyphen
// separators, DD-MM-YYYY. Report boundaries and availability lookups use it.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, model.Invalid(model.KindEmptyDate, "date", "date is required")
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return time.Time{}, model.Invalid(model.KindInvalidCharacters, "date", "date must not contain letters")
		}
	}
	if !strings.Contains(s, "-") && strings.ContainsAny(s, `,./\`) {
		return time.Time{}, model.Invalid(model.KindWrongSeparator, "date", "use '-' to separate day, month and year")
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, model.Invalid(model.KindMalformedDate, "date", "date must follow DD-MM-YYYY")
	}
	return model.Day(t), nil
}

// Candidate is a booking date that passed the format and lead-time rules.
// When Date is a Sunday, Substitute holds the following Monday and the
// caller has to Resolve the candidate before using it.
type Candidate struct {
	Date       time.Time
	Substitute time.Time
}

// NeedsDecision reports whether a Sunday substitution is pending.
func (c Candidate) NeedsDecision() bool {
	return !c.Substitute.IsZero()
}

// Resolve finalises the candidate. For a Sunday, accept=true yields the
// Monday and accept=false fails with substitution_declined so the whole date
// entry is redone. Other dates are returned unchanged.
func (c Candidate) Resolve(accept bool) (time.Time, error) {
	if !c.NeedsDecision() {
		return c.Date, nil
	}
	if !accept {
		return time.Time{}, model.Invalid(model.KindSubstitutionDenied, "date", "Sunday substitution declined; choose another date")
	}
	return c.Substitute, nil
}

// ParseBookingDate runs every booking rule on raw input: the format rules of
// ParseDate, the minimum lead time, and the Sunday-to-Monday proposal.
func (p *Policy) ParseBookingDate(raw string) (Candidate, error) {
	d, err := ParseDate(raw)
	if err != nil {
		return Candidate{}, err
	}
	if err := p.checkLeadTime(d); err != nil {
		return Candidate{}, err
	}
	c := Candidate{Date: d}
	if d.Weekday() == time.Sunday {
		c.Substitute = d.AddDate(0, 0, 1)
	}
	return c, nil
}

// CheckBookingDate re-validates an already parsed date at commit time: it
// must still respect the lead time and must not be a Sunday (a Sunday only
// reaches the ledger if the substitution step was skipped).
func (p *Policy) CheckBookingDate(d time.Time) error {
	d = model.Day(d)
	if err := p.checkLeadTime(d); err != nil {
		return err
	}
	if d.Weekday() == time.Sunday {
		return model.Invalid(model.KindSundayRequiresSub, "date", "Sundays cannot be booked; the following Monday is proposed instead")
	}
	return nil
}

func (p *Policy) checkLeadTime(d time.Time) error {
	if d.Before(p.Earliest()) {
		return model.Invalid(model.KindTooSoon, "date", "date must be at least "+leadText(p.leadDays)+" after today")
	}
	return nil
}

func leadText(n int) string {
	switch n {
	case 1:
		return "one day"
	case 2:
		return "two days"
	}
	return strconv.Itoa(n) + " days"
}
