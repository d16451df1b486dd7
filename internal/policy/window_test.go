package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fixedClock pins "now" to Jan 20 2024 15:00 UTC for deterministic windows
func fixedClock() Clock {
	return ClockFunc(func() time.Time {
		return time.Date(2024, time.January, 20, 15, 0, 0, 0, time.UTC)
	})
}

func testPolicy() *Policy {
	return New(fixedClock(), 14, 90)
}

func TestNew_NilClockPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(nil, 14, 90)
	})
}

func TestNew_InvalidDaysPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(fixedClock(), 0, 90)
	})
	assert.Panics(t, func() {
		New(fixedClock(), 14, 7)
	})
}

func TestWindowFor_DefaultTier(t *testing.T) {
	w := testPolicy().WindowFor(TierAnonymous)

	assert.Equal(t, time.Date(2024, time.January, 6, 15, 0, 0, 0, time.UTC), w.Earliest)
	assert.Equal(t, time.Date(2024, time.January, 20, 15, 0, 0, 0, time.UTC), w.Latest)
}

func TestWindowFor_ElevatedTier(t *testing.T) {
	w := testPolicy().WindowFor(TierDJ)

	assert.Equal(t, time.Date(2023, time.October, 22, 15, 0, 0, 0, time.UTC), w.Earliest)
}

func TestWindow_ContainsInclusiveBounds(t *testing.T) {
	pol := testPolicy()
	w := pol.WindowFor(TierMember)

	assert.True(t, w.Contains(w.Earliest))
	assert.True(t, w.Contains(w.Latest))
	assert.False(t, w.Contains(w.Earliest.Add(-time.Second)))
	assert.False(t, w.Contains(w.Latest.Add(time.Second)))
}

func TestClassify_InWindow(t *testing.T) {
	pol := testPolicy()

	// Jan 6 15:00 is exactly 14 days back, still reachable for everyone.
	target := time.Date(2024, time.January, 6, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, RangeInWindow, pol.Classify(target, TierAnonymous))
	assert.Equal(t, RangeInWindow, pol.Classify(target, TierAdmin))
}

func TestClassify_RequiresElevation(t *testing.T) {
	pol := testPolicy()

	// Jan 5 is past the 14-day window but well inside the 90-day one.
	target := time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, RangeRequiresElevation, pol.Classify(target, TierAnonymous))
	assert.Equal(t, RangeRequiresElevation, pol.Classify(target, TierMember))
	assert.Equal(t, RangeInWindow, pol.Classify(target, TierDJ))
	assert.Equal(t, RangeInWindow, pol.Classify(target, TierStationManager))
}

func TestClassify_OutOfWindow(t *testing.T) {
	pol := testPolicy()

	// Past even the elevated window: unreachable for every tier.
	target := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, RangeOutOfWindow, pol.Classify(target, TierAnonymous))
	assert.Equal(t, RangeOutOfWindow, pol.Classify(target, TierAdmin))

	// Future hours are unreachable too.
	future := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, RangeOutOfWindow, pol.Classify(future, TierAdmin))
}

func TestClassify_WindowSlidesWithClock(t *testing.T) {
	now := time.Date(2024, time.January, 20, 15, 0, 0, 0, time.UTC)
	pol := New(ClockFunc(func() time.Time { return now }), 14, 90)

	target := time.Date(2024, time.January, 6, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, RangeInWindow, pol.Classify(target, TierAnonymous))

	// An hour later the same target has slipped out of the default window.
	now = now.Add(time.Hour)
	assert.Equal(t, RangeRequiresElevation, pol.Classify(target, TierAnonymous))
}

func TestRangeStatus_String(t *testing.T) {
	assert.Equal(t, "in_window", RangeInWindow.String())
	assert.Equal(t, "requires_elevation", RangeRequiresElevation.String())
	assert.Equal(t, "out_of_window", RangeOutOfWindow.String())
}
