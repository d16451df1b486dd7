// Package policy computes the sliding archive access window for each
// authorization tier and classifies requested broadcast hours against it.
// The checks here are UX pre-filtering only; the URL-signing collaborator
// re-validates every request server-side.
package policy

import "time"

// Window is the inclusive range of instants currently reachable for a tier,
// anchored at the clock's "now".
type Window struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// Contains reports whether target falls inside the window, inclusive at both
// ends.
func (w Window) Contains(target time.Time) bool {
	return !target.Before(w.Earliest) && !target.After(w.Latest)
}

// RangeStatus classifies a requested broadcast hour against the caller's
// access window.
type RangeStatus int

const (
	// RangeInWindow means the hour is reachable at the caller's tier
	RangeInWindow RangeStatus = iota
	// RangeRequiresElevation means a higher tier's window covers the hour
	RangeRequiresElevation
	// RangeOutOfWindow means no configured tier can reach the hour
	RangeOutOfWindow
)

// String returns the string representation of a RangeStatus
func (s RangeStatus) String() string {
	switch s {
	case RangeInWindow:
		return "in_window"
	case RangeRequiresElevation:
		return "requires_elevation"
	case RangeOutOfWindow:
		return "out_of_window"
	default:
		return "unknown"
	}
}

// Policy selects window lengths by tier rank and classifies target instants.
// Windows are recomputed on every check because "now" advances; they are
// never cached.
type Policy struct {
	clock        Clock
	windowDays   int
	elevatedDays int
}

// New creates a Policy. The clock must not be nil; passing nil is a setup
// error and fails loud.
func New(clock Clock, windowDays, elevatedDays int) *Policy {
	if clock == nil {
		panic("policy: clock must not be nil")
	}
	if windowDays <= 0 || elevatedDays < windowDays {
		panic("policy: window days must be positive and elevated >= default")
	}
	return &Policy{
		clock:        clock,
		windowDays:   windowDays,
		elevatedDays: elevatedDays,
	}
}

// WindowDays returns the configured window length in days for a tier.
func (p *Policy) WindowDays(tier Tier) int {
	if tier.Elevated() {
		return p.elevatedDays
	}
	return p.windowDays
}

// WindowFor computes the current access window for a tier: latest = now,
// earliest = now minus the tier's window length.
func (p *Policy) WindowFor(tier Tier) Window {
	now := p.clock.Now()
	return Window{
		Earliest: now.AddDate(0, 0, -p.WindowDays(tier)),
		Latest:   now,
	}
}

// Classify determines how a target instant relates to the caller's access.
// Rather than a hardcoded two-way branch, it finds the lowest tier whose
// window admits the target: if the caller's tier meets it the target is in
// window; if only a higher tier's window admits it, elevation is required;
// otherwise the target is out of range for everyone.
func (p *Policy) Classify(target time.Time, callerTier Tier) RangeStatus {
	for tier := TierAnonymous; tier <= TierAdmin; tier++ {
		if !p.WindowFor(tier).Contains(target) {
			continue
		}
		if callerTier >= tier {
			return RangeInWindow
		}
		return RangeRequiresElevation
	}
	return RangeOutOfWindow
}
