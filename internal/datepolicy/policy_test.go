package datepolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation-ledger/internal/clock"
	"github.com/iliyamo/room-reservation-ledger/internal/model"
)

// Thursday 15-10-2026, mid-morning.
var now = time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC)

func newPolicy(opts ...Option) *Policy {
	return New(clock.NewFixed(now), append([]Option{WithLocation(time.UTC)}, opts...)...)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate_Rules(t *testing.T) {
	cases := []struct {
		raw  string
		kind model.ValidationKind
	}{
		{"", model.KindEmptyDate},
		{"   ", model.KindEmptyDate},
		{"17-oct-2026", model.KindInvalidCharacters},
		{"tomorrow", model.KindInvalidCharacters},
		{"17/10/2026", model.KindWrongSeparator},
		{"17.10.2026", model.KindWrongSeparator},
		{"17,10,2026", model.KindWrongSeparator},
		{`17\10\2026`, model.KindWrongSeparator},
		{"17.10-2026", model.KindMalformedDate},
		{"17102026", model.KindMalformedDate},
		{"1-10-2026", model.KindMalformedDate},
		{"31-02-2027", model.KindMalformedDate},
		{"2026-10-17", model.KindMalformedDate},
		{"17-10-2026 ", ""},
	}
	for _, tc := range cases {
		_, err := ParseDate(tc.raw)
		if tc.kind == "" {
			assert.NoError(t, err, tc.raw)
			continue
		}
		ve, ok := model.AsValidation(err)
		require.True(t, ok, "%q: %v", tc.raw, err)
		assert.Equal(t, tc.kind, ve.Kind, tc.raw)
	}
}

func TestParseDate_IgnoresLeadTime(t *testing.T) {
	d, err := ParseDate("01-01-2020")
	require.NoError(t, err)
	assert.Equal(t, day(2020, time.January, 1), d)
}

func TestParseBookingDate_LeadTimeBoundary(t *testing.T) {
	p := newPolicy()

	_, err := p.ParseBookingDate("16-10-2026")
	ve, ok := model.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, model.KindTooSoon, ve.Kind)

	_, err = p.ParseBookingDate("15-10-2026")
	ve, ok = model.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, model.KindTooSoon, ve.Kind)

	c, err := p.ParseBookingDate("17-10-2026")
	require.NoError(t, err)
	assert.False(t, c.NeedsDecision())
	got, err := c.Resolve(false)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.October, 17), got)
}

func TestParseBookingDate_SundaySubstitution(t *testing.T) {
	p := newPolicy()

	c, err := p.ParseBookingDate("18-10-2026")
	require.NoError(t, err)
	require.True(t, c.NeedsDecision())
	assert.Equal(t, day(2026, time.October, 19), c.Substitute)

	got, err := c.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, day(2026, time.October, 19), got)

	_, err = c.Resolve(false)
	ve, ok := model.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, model.KindSubstitutionDenied, ve.Kind)
}

func TestParseBookingDate_SundayOnLeadBoundary(t *testing.T) {
	friday := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	p := New(clock.NewFixed(friday), WithLocation(time.UTC))

	c, err := p.ParseBookingDate("18-10-2026")
	require.NoError(t, err)
	got, err := c.Resolve(true)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.October, 19), got)
	assert.NoError(t, p.CheckBookingDate(got))
}

func TestCheckBookingDate(t *testing.T) {
	p := newPolicy()

	assert.NoError(t, p.CheckBookingDate(day(2026, time.October, 17)))

	ve, ok := model.AsValidation(p.CheckBookingDate(day(2026, time.October, 16)))
	require.True(t, ok)
	assert.Equal(t, model.KindTooSoon, ve.Kind)

	ve, ok = model.AsValidation(p.CheckBookingDate(day(2026, time.October, 18)))
	require.True(t, ok)
	assert.Equal(t, model.KindSundayRequiresSub, ve.Kind)
}

func TestLeadDaysOption(t *testing.T) {
	p := newPolicy(WithLeadDays(0))
	_, err := p.ParseBookingDate("15-10-2026")
	assert.NoError(t, err)

	p = newPolicy(WithLeadDays(5))
	_, err = p.ParseBookingDate("19-10-2026")
	ve, ok := model.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, model.KindTooSoon, ve.Kind)
	assert.Contains(t, ve.Message, "5 days")
}

func TestTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	early := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	p := New(clock.NewFixed(early), WithLocation(loc))
	assert.Equal(t, day(2026, time.October, 14), p.Today())
	assert.Equal(t, 3, p.DaysUntil(day(2026, time.October, 17)))
}
