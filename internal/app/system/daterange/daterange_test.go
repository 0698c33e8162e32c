package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwholloway/salescope/internal/app/system/daterange"
)

func TestParse_Valid(t *testing.T) {
	r, err := daterange.Parse("2025-01-01", "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", r.From.Format(daterange.Layout))
	assert.Equal(t, "2025-01-05", r.To.Format(daterange.Layout))
	assert.Equal(t, 5, r.Days())
}

func TestParse_SwapsReversedInputs(t *testing.T) {
	r, err := daterange.Parse("2025-01-05", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", r.From.Format(daterange.Layout))
	assert.Equal(t, "2025-01-05", r.To.Format(daterange.Layout))
}

func TestParse_Invalid(t *testing.T) {
	_, err := daterange.Parse("not-a-date", "2025-01-05")
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.Parse("2025-01-01", "2025-13-40")
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)

	_, err = daterange.Parse("", "")
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestClampForRole_UserOverLimit(t *testing.T) {
	// 32 days requested by a user: clamp to exactly 5 ending at the
	// original "to".
	r, err := daterange.Parse("2025-01-01", "2025-02-01")
	require.NoError(t, err)

	clamped := r.ClampForRole("user")
	assert.Equal(t, "2025-01-28", clamped.From.Format(daterange.Layout))
	assert.Equal(t, "2025-02-01", clamped.To.Format(daterange.Layout))
	assert.Equal(t, 5, clamped.Days())
}

func TestClampForRole_AdminOverLimit(t *testing.T) {
	r, err := daterange.Parse("2025-01-01", "2025-03-15")
	require.NoError(t, err)

	clamped := r.ClampForRole("admin")
	assert.Equal(t, 30, clamped.Days())
	assert.Equal(t, "2025-03-15", clamped.To.Format(daterange.Layout))
	assert.Equal(t, "2025-02-14", clamped.From.Format(daterange.Layout))
}

func TestClampForRole_WithinLimitUnchanged(t *testing.T) {
	r, err := daterange.Parse("2025-01-01", "2025-01-03")
	require.NoError(t, err)

	clamped := r.ClampForRole("user")
	assert.Equal(t, r, clamped)
}

func TestClampForRole_UnknownRoleGetsUserLimit(t *testing.T) {
	r, err := daterange.Parse("2025-01-01", "2025-01-31")
	require.NoError(t, err)

	clamped := r.ClampForRole("visitor")
	assert.Equal(t, daterange.MaxDaysUser, clamped.Days())
}

func TestEachDay(t *testing.T) {
	r, err := daterange.Parse("2025-01-30", "2025-02-02")
	require.NoError(t, err)

	var days []string
	r.EachDay(func(d time.Time) { days = append(days, d.Format(daterange.Layout)) })
	assert.Equal(t, []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}, days)
}

func TestLastNDaysEnding(t *testing.T) {
	end := time.Date(2025, 7, 18, 15, 4, 5, 0, time.UTC)
	r := daterange.LastNDaysEnding(end, 5)
	assert.Equal(t, "2025-07-14", r.From.Format(daterange.Layout))
	assert.Equal(t, "2025-07-18", r.To.Format(daterange.Layout))
	assert.Equal(t, 5, r.Days())
}
