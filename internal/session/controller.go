// Package session orchestrates per-listener playback sessions: deep-link
// parsing and classification, selection changes, resolver invocation with
// stale-response protection, playback engine events, and share links.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/auth"
	"github.com/stationkit/aircheck/internal/db"
	"github.com/stationkit/aircheck/internal/logger"
	"github.com/stationkit/aircheck/internal/models"
	"github.com/stationkit/aircheck/internal/navigator"
	"github.com/stationkit/aircheck/internal/playback"
	"github.com/stationkit/aircheck/internal/policy"
	"github.com/stationkit/aircheck/internal/resolver"
)

// defaultSelectionHour is used when no deep link and no stored position exist:
// yesterday at noon.
const defaultSelectionHour = 12

// persistInterval throttles position writes during continuous playback
const persistInterval = 30 * time.Second

// URLResolver resolves a broadcast hour to a time-boxed playable URL.
type URLResolver interface {
	Resolve(ctx context.Context, sel archive.Selection, tier policy.Tier) (string, error)
}

// PositionStore persists listener playback positions across sessions.
type PositionStore interface {
	GetByListenerID(ctx context.Context, listenerID string) (*models.ListenerPosition, error)
	Upsert(ctx context.Context, pos *models.ListenerPosition) error
}

// Deps carries the controller's collaborators. Policy and Resolver are
// required; a nil PositionStore disables cross-session resume.
type Deps struct {
	Policy    *policy.Policy
	Resolver  URLResolver
	Positions PositionStore
	Clock     policy.Clock
	Location  *time.Location
	SharePath string
}

// Controller owns one listener's playback session. The playback engine
// mutates only media state; the controller mutates only selection and
// classification state, each behind its own lock.
type Controller struct {
	id       uuid.UUID
	listener string
	deps     Deps
	engine   *playback.Engine
	mu       sync.Mutex

	selection       archive.Selection
	archiveSelected bool
	classification  policy.RangeStatus
	bannerDismissed bool
	identity        auth.Identity

	// resolveEpoch identifies the selection a resolver response belongs to;
	// a response from an abandoned selection must never overwrite a newer one
	resolveEpoch uint64

	lastAccess  time.Time
	lastPersist time.Time
}

// NewController creates a controller for one listener. Policy and Resolver
// must be non-nil; passing nil is a setup error and fails loud.
func NewController(listenerID string, deps Deps) *Controller {
	if deps.Policy == nil {
		panic("session: policy must not be nil")
	}
	if deps.Resolver == nil {
		panic("session: resolver must not be nil")
	}
	if deps.Clock == nil {
		deps.Clock = policy.SystemClock()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}

	return &Controller{
		id:         uuid.New(),
		listener:   listenerID,
		deps:       deps,
		engine:     playback.NewEngine(),
		identity:   auth.Anonymous(),
		lastAccess: deps.Clock.Now(),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Open initializes the session from an inbound deep-link timestamp. A
// missing or malformed timestamp falls back to the default selection with no
// error surfaced; a stored position, when available, restores where the
// listener left off. Only an in-window deep link resolves and auto-plays.
func (c *Controller) Open(ctx context.Context, deepLink string, identity auth.Identity) State {
	c.mu.Lock()
	c.touchLocked()
	c.identity = identity

	sel, ok := archive.DecodeTimestamp(deepLink)
	if !ok {
		c.selection = c.defaultSelectionLocked()
		c.archiveSelected = false
		c.classification = policy.RangeInWindow
		c.mu.Unlock()

		c.restoreStoredPosition(ctx)
		if deepLink != "" {
			logger.Log.Debug().
				Str("deep_link", deepLink).
				Msg("Malformed deep link, using default selection")
		}
		return c.snapshot(false)
	}

	c.classification = c.deps.Policy.Classify(sel.Instant(c.deps.Location), c.identity.Tier)
	c.bannerDismissed = false

	if c.classification != policy.RangeInWindow {
		// Keep the default selection visible; the banner explains why the
		// linked date was not loaded.
		status := c.classification
		c.selection = c.defaultSelectionLocked()
		c.archiveSelected = false
		c.mu.Unlock()

		logger.Log.Info().
			Str("deep_link", deepLink).
			Str("classification", status.String()).
			Str("tier", identity.Tier.String()).
			Msg("Deep link not reachable for caller")
		return c.snapshot(false)
	}

	c.selection = sel
	c.archiveSelected = true
	epoch := c.bumpEpochLocked()
	c.mu.Unlock()

	c.persistPosition(ctx, true)
	c.resolveCurrent(ctx, epoch, false)
	return c.snapshot(true)
}

// Select applies an absolute date/hour pick. Picks outside the caller's
// window do not change the selection; the classification banner explains
// the rejection.
func (c *Controller) Select(ctx context.Context, year int, month time.Month, day, hour int) State {
	sel := archive.Selection{Year: year, Month: month, Day: day, Hour: hour}

	c.mu.Lock()
	c.touchLocked()

	status := c.deps.Policy.Classify(sel.HourStart(c.deps.Location), c.identity.Tier)
	if status != policy.RangeInWindow {
		c.classification = status
		c.bannerDismissed = false
		c.mu.Unlock()
		return c.snapshot(false)
	}

	c.selection = sel
	c.archiveSelected = true
	c.classification = policy.RangeInWindow
	c.bannerDismissed = false
	epoch := c.bumpEpochLocked()
	c.mu.Unlock()

	c.persistPosition(ctx, true)
	c.resolveCurrent(ctx, epoch, false)
	return c.snapshot(false)
}

// Step moves the selection by delta hours through the navigator. A step
// that would leave the access window is a silent no-op.
func (c *Controller) Step(ctx context.Context, delta int) State {
	c.mu.Lock()
	c.touchLocked()

	window := c.deps.Policy.WindowFor(c.identity.Tier)
	next := navigator.Step(c.selection, delta, window, c.deps.Location)
	if next.SameHour(c.selection) {
		c.mu.Unlock()
		return c.snapshot(false)
	}

	c.selection = next
	c.classification = policy.RangeInWindow
	c.bannerDismissed = false

	var epoch uint64
	resolve := c.archiveSelected
	if resolve {
		epoch = c.bumpEpochLocked()
	}
	c.mu.Unlock()

	c.persistPosition(ctx, true)
	if resolve {
		c.resolveCurrent(ctx, epoch, false)
	}
	return c.snapshot(false)
}

// Play resolves and loads the current selection when the listener first
// presses play on a browsed (not deep-linked) hour.
func (c *Controller) Play(ctx context.Context) State {
	c.mu.Lock()
	c.touchLocked()
	c.archiveSelected = true
	epoch := c.bumpEpochLocked()
	c.mu.Unlock()

	c.resolveCurrent(ctx, epoch, false)
	return c.snapshot(true)
}

// HandleEvent feeds a media element notification through the playback
// engine and performs the end-of-recording advance when requested.
func (c *Controller) HandleEvent(ctx context.Context, ev playback.Event) (State, playback.Effect) {
	c.mu.Lock()
	c.touchLocked()
	c.mu.Unlock()

	effect := c.engine.HandleEvent(ev)

	switch ev.Type {
	case playback.EventTimeUpdate:
		c.syncPositionFromEngine()
		c.persistPosition(ctx, false)
	case playback.EventPlayStopped:
		c.syncPositionFromEngine()
		c.persistPosition(ctx, true)
	}

	if effect.AdvanceHour {
		c.advance(ctx)
	}

	return c.snapshot(false), effect
}

// Controls applies a transport control action and returns directives for
// the player client.
func (c *Controller) Controls(ctx context.Context, action string, seconds float64, key string, inTextInput bool) (State, playback.Effect, error) {
	c.mu.Lock()
	c.touchLocked()
	c.mu.Unlock()

	var effect playback.Effect
	switch action {
	case ActionPlayPause:
		if !c.engine.HasMedia() {
			// First play on a browsed hour resolves the selection.
			return c.Play(ctx), playback.Effect{}, nil
		}
		effect = c.engine.TogglePlayPause()
	case ActionMute:
		c.engine.ToggleMute()
	case ActionSeek:
		effect = c.engine.Seek(seconds)
	case ActionKey:
		effect = c.engine.HandleKey(key, inTextInput)
	default:
		return State{}, playback.Effect{}, ErrUnknownAction
	}

	return c.snapshot(false), effect, nil
}

// DismissBanner hides the classification banner until the selection or auth
// state changes again.
func (c *Controller) DismissBanner() State {
	c.mu.Lock()
	c.touchLocked()
	c.bannerDismissed = true
	c.mu.Unlock()
	return c.snapshot(false)
}

// SetIdentity re-runs classification after a login or logout. An already
// playing, previously admitted session is never forcibly stopped, even when
// the new tier can no longer reach its hour.
func (c *Controller) SetIdentity(_ context.Context, identity auth.Identity) State {
	c.mu.Lock()
	c.touchLocked()
	c.identity = identity
	c.bannerDismissed = false
	c.classification = c.deps.Policy.Classify(
		c.selection.HourStart(c.deps.Location), identity.Tier)
	c.mu.Unlock()

	logger.Log.Info().
		Str("session_id", c.id.String()).
		Str("tier", identity.Tier.String()).
		Str("classification", c.classification.String()).
		Msg("Session identity changed, classification re-run")

	return c.snapshot(false)
}

// ShareLink builds the shareable URL parameter for the current selection.
// Minute/second are zeroed unless the caller opts in to including the
// current playback position.
func (c *Controller) ShareLink(includePosition bool) string {
	c.mu.Lock()
	sel := c.selection
	c.mu.Unlock()

	if includePosition {
		sel = sel.WithOffset(int(c.engine.PositionSeconds()))
	} else {
		sel.Minute = 0
		sel.Second = 0
	}

	return c.deps.SharePath + "?t=" + archive.EncodeTimestamp(sel)
}

// State returns the current session snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	c.touchLocked()
	c.mu.Unlock()
	return c.snapshot(false)
}

// IdleDuration returns the time since the session was last touched.
func (c *Controller) IdleDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deps.Clock.Now().Sub(c.lastAccess)
}

// advance performs the end-of-recording hour handoff: the next admissible
// hour is resolved and loaded in transition mode, or playback halts at the
// window's high edge.
func (c *Controller) advance(ctx context.Context) {
	c.mu.Lock()
	window := c.deps.Policy.WindowFor(c.identity.Tier)
	next, ok := navigator.EndOfTrackAdvance(c.selection, window, c.deps.Location)
	if !ok {
		c.mu.Unlock()
		c.engine.StopAtEnd()
		return
	}

	c.selection = next
	c.classification = policy.RangeInWindow
	epoch := c.bumpEpochLocked()
	c.mu.Unlock()

	logger.Log.Info().
		Str("session_id", c.id.String()).
		Str("next", archive.EncodeTimestamp(next)).
		Msg("Auto-advancing to next broadcast hour")

	c.persistPosition(ctx, true)
	c.resolveCurrent(ctx, epoch, true)
}

// resolveCurrent asks the resolver for the selection captured by epoch and
// applies the result only if no newer selection has superseded it. Resolver
// failures become the playback error state; denials keep the collaborator's
// message, transport failures a generic one.
func (c *Controller) resolveCurrent(ctx context.Context, epoch uint64, transitioning bool) {
	c.mu.Lock()
	sel := c.selection
	tier := c.identity.Tier
	offset := float64(sel.OffsetSeconds())
	c.mu.Unlock()

	url, err := c.deps.Resolver.Resolve(ctx, sel, tier)

	// The epoch re-check and the engine update are one atomic step under the
	// lock: releasing it in between would let a superseding selection's
	// resolve land first and then be overwritten by this stale one. The
	// engine has its own lock and never calls back into the controller.
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.resolveEpoch {
		logger.Log.Debug().
			Str("session_id", c.id.String()).
			Uint64("epoch", epoch).
			Msg("Discarding resolver response for abandoned selection")
		return
	}

	if err != nil {
		switch {
		case resolver.IsDenied(err):
			c.engine.SetError(err.Error())
		case resolver.IsUnavailable(err):
			c.engine.SetError(resolver.ErrUnavailable.Error())
		default:
			c.engine.SetError("")
		}
		return
	}

	c.engine.Load(url, offset, transitioning)
}

// syncPositionFromEngine copies the engine's playback position into the
// selection's minute/second fields.
func (c *Controller) syncPositionFromEngine() {
	offset := int(c.engine.PositionSeconds())
	c.mu.Lock()
	c.selection = c.selection.WithOffset(offset)
	c.mu.Unlock()
}

// persistPosition stores the selection for cross-session resume. Writes
// during continuous playback are throttled unless force is set.
func (c *Controller) persistPosition(ctx context.Context, force bool) {
	if c.deps.Positions == nil || c.listener == "" {
		return
	}

	c.mu.Lock()
	now := c.deps.Clock.Now()
	if !force && now.Sub(c.lastPersist) < persistInterval {
		c.mu.Unlock()
		return
	}
	c.lastPersist = now
	sel := c.selection
	c.mu.Unlock()

	pos := &models.ListenerPosition{
		ListenerID: c.listener,
		Year:       sel.Year,
		Month:      int(sel.Month),
		Day:        sel.Day,
		Hour:       sel.Hour,
		Minute:     sel.Minute,
		Second:     sel.Second,
	}
	if err := c.deps.Positions.Upsert(ctx, pos); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("listener_id", c.listener).
			Msg("Failed to persist listener position")
	}
}

// restoreStoredPosition replaces the default selection with the listener's
// stored one, provided it is still inside the caller's window.
func (c *Controller) restoreStoredPosition(ctx context.Context) {
	if c.deps.Positions == nil || c.listener == "" {
		return
	}

	pos, err := c.deps.Positions.GetByListenerID(ctx, c.listener)
	if err != nil {
		if !db.IsNotFound(err) {
			logger.Log.Warn().
				Err(err).
				Str("listener_id", c.listener).
				Msg("Failed to load stored listener position")
		}
		return
	}

	sel := archive.Selection{
		Year:   pos.Year,
		Month:  time.Month(pos.Month),
		Day:    pos.Day,
		Hour:   pos.Hour,
		Minute: pos.Minute,
		Second: pos.Second,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	window := c.deps.Policy.WindowFor(c.identity.Tier)
	if !window.Contains(sel.HourStart(c.deps.Location)) {
		return
	}
	c.selection = sel
}

// defaultSelectionLocked returns yesterday at noon; callers hold the lock.
func (c *Controller) defaultSelectionLocked() archive.Selection {
	yesterday := c.deps.Clock.Now().In(c.deps.Location).AddDate(0, 0, -1)
	noon := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(),
		defaultSelectionHour, 0, 0, 0, c.deps.Location)
	return archive.SelectionFromTime(noon)
}

// bumpEpochLocked invalidates in-flight resolver responses; callers hold
// the lock.
func (c *Controller) bumpEpochLocked() uint64 {
	c.resolveEpoch++
	return c.resolveEpoch
}

// touchLocked refreshes the idle timer; callers hold the lock.
func (c *Controller) touchLocked() {
	c.lastAccess = c.deps.Clock.Now()
}

// snapshot builds the listener-facing state. autoPlay marks responses where
// the client should begin playback once media is ready.
func (c *Controller) snapshot(autoPlay bool) State {
	media := c.engine.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	ts := archive.EncodeTimestamp(c.selection)
	st := State{
		ID:              c.id.String(),
		Selection:       c.selection,
		Timestamp:       ts,
		QueryString:     "t=" + ts,
		Classification:  c.classification.String(),
		ArchiveSelected: c.archiveSelected,
		AutoPlay:        autoPlay && c.archiveSelected,
		Authenticated:   c.identity.Authenticated,
		Tier:            c.identity.TierName(),
		Media:           media,
	}

	if !c.bannerDismissed {
		switch c.classification {
		case policy.RangeRequiresElevation:
			st.Banner = &Banner{Kind: BannerRequiresElevation, Message: messageRequiresElevation}
		case policy.RangeOutOfWindow:
			st.Banner = &Banner{Kind: BannerOutOfWindow, Message: messageOutOfWindow}
		}
	}

	return st
}
