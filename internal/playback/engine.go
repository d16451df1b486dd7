// Package playback owns the media session state machine: loading and error
// states, play/pause/mute/seek, keyboard shortcuts, end-of-recording
// auto-advance gating, and the initial seek to a carried-over position.
//
// The engine never performs I/O. Media element notifications arrive as
// Events; anything the caller must do in response (re-resolve the next hour,
// issue play, seek the element) comes back as an Effect.
package playback

import (
	"sync"

	"github.com/stationkit/aircheck/internal/logger"
)

// genericErrorMessage is surfaced when a failure carries no usable message
const genericErrorMessage = "playback failed; pick another hour to retry"

// Engine drives a single listener's media session. All methods are
// thread-safe; HTTP handlers for the same session may race.
type Engine struct {
	mu sync.Mutex

	url             string
	state           State
	isPlaying       bool
	isMuted         bool
	isTransitioning bool
	position        float64
	duration        float64
	errMsg          string

	// generation increments on every Load/Clear so events keyed to a
	// previous URL can be recognized and dropped
	generation uint64

	// pendingSeek is the offset within the hour to apply once metadata
	// arrives; nil means start from the beginning
	pendingSeek *float64
}

// NewEngine creates an engine with no media loaded.
func NewEngine() *Engine {
	return &Engine{state: StateIdle}
}

// Load assigns a new media URL and enters the loading state. Any state tied
// to the previous URL is discarded and its in-flight events invalidated.
//
// offsetSeconds is the position within the hour to seek to once metadata
// arrives; pass 0 for a fresh user-initiated pick. transitioning marks an
// end-of-recording auto-advance, which causes play to be issued
// automatically when the next hour becomes ready.
func (e *Engine) Load(url string, offsetSeconds float64, transitioning bool) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.url = url
	e.state = StateLoading
	e.isPlaying = false
	e.isTransitioning = transitioning
	e.position = 0
	e.duration = 0
	e.errMsg = ""
	e.pendingSeek = nil
	if offsetSeconds > 0 {
		offset := offsetSeconds
		e.pendingSeek = &offset
	}

	logger.Log.Debug().
		Uint64("generation", e.generation).
		Bool("transitioning", transitioning).
		Float64("offset_seconds", offsetSeconds).
		Msg("Media URL loaded")

	return e.generation
}

// Clear drops the active media session entirely, returning to idle.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.url = ""
	e.state = StateIdle
	e.isPlaying = false
	e.isTransitioning = false
	e.position = 0
	e.duration = 0
	e.errMsg = ""
	e.pendingSeek = nil
}

// HandleEvent applies a media element notification to the state machine.
// Events from a stale generation are ignored entirely.
func (e *Engine) HandleEvent(ev Event) Effect {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Generation != e.generation {
		logger.Log.Debug().
			Uint64("event_generation", ev.Generation).
			Uint64("current_generation", e.generation).
			Str("event", string(ev.Type)).
			Msg("Ignoring stale media event")
		return Effect{}
	}

	switch ev.Type {
	case EventMetadataReady:
		return e.onMetadataReady(ev)
	case EventPlayStarted:
		if e.url != "" && e.state != StateErrored {
			e.state = StatePlaying
			e.isPlaying = true
		}
	case EventPlayStopped:
		if e.state == StatePlaying {
			e.state = StateReady
		}
		e.isPlaying = false
	case EventTimeUpdate:
		if e.url != "" && e.state != StateErrored {
			e.position = ev.PositionSeconds
		}
	case EventEnded:
		return e.onEnded()
	case EventErrored:
		e.fail(ev.Message)
	}

	return Effect{}
}

// onMetadataReady completes loading: duration becomes known, a pending
// carried-over offset is applied, and an auto-advanced hour starts playing
// without waiting for the listener. Playback may already have started before
// metadata arrives (the element's play event is not ordered after
// loadedmetadata), so a playing session completes here too without being
// knocked back to ready.
func (e *Engine) onMetadataReady(ev Event) Effect {
	if e.state != StateLoading && e.state != StatePlaying {
		return Effect{}
	}

	if e.state == StateLoading {
		e.state = StateReady
	}
	e.duration = ev.DurationSeconds

	var effect Effect
	if e.pendingSeek != nil {
		target := clamp(*e.pendingSeek, e.duration)
		e.position = target
		effect.SeekToSeconds = &target
		e.pendingSeek = nil
	}

	if e.isTransitioning {
		e.isTransitioning = false
		e.state = StatePlaying
		e.isPlaying = true
		effect.IssuePlay = true
	}

	return effect
}

// onEnded triggers the end-of-recording advance exactly once per hour; the
// transition flag gates duplicate triggers from repeated ended events.
func (e *Engine) onEnded() Effect {
	if e.isTransitioning {
		return Effect{}
	}

	e.isTransitioning = true
	e.isPlaying = false
	e.position = e.duration

	logger.Log.Debug().
		Uint64("generation", e.generation).
		Msg("Recording ended, requesting next hour")

	return Effect{AdvanceHour: true}
}

// StopAtEnd halts playback when the advance was rejected at the window's
// high edge: the session stays on the finished hour with playback stopped
// rather than requesting an inadmissible one.
func (e *Engine) StopAtEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.isTransitioning = false
	e.isPlaying = false
	e.state = StateEnded

	logger.Log.Debug().
		Uint64("generation", e.generation).
		Msg("No further hour reachable, playback halted")
}

// SetError moves the session to the errored state with a listener-facing
// message, e.g. when the resolver fails for the active selection.
func (e *Engine) SetError(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail(message)
}

// fail applies the errored state; callers hold the lock.
func (e *Engine) fail(message string) {
	if message == "" {
		message = genericErrorMessage
	}
	e.state = StateErrored
	e.errMsg = message
	e.isPlaying = false
	e.isTransitioning = false

	logger.Log.Warn().
		Uint64("generation", e.generation).
		Str("message", message).
		Msg("Playback errored")
}

// TogglePlayPause inverts the playing flag and directs the client to apply
// it to the media element. It is a no-op while nothing is loaded or the
// resource is still loading.
func (e *Engine) TogglePlayPause() Effect {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.url == "" || e.state == StateLoading || e.state == StateErrored {
		return Effect{}
	}

	if e.isPlaying {
		e.isPlaying = false
		e.state = StateReady
		return Effect{IssuePause: true}
	}

	e.isPlaying = true
	e.state = StatePlaying
	return Effect{IssuePlay: true}
}

// ToggleMute inverts the muted flag.
func (e *Engine) ToggleMute() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isMuted = !e.isMuted
}

// Seek clamps the target to the known duration, updates the session position
// immediately for UI responsiveness, and directs the client to apply the
// actual element seek.
func (e *Engine) Seek(targetSeconds float64) Effect {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.url == "" || e.state == StateLoading || e.state == StateErrored {
		return Effect{}
	}

	target := clamp(targetSeconds, e.duration)
	e.position = target
	return Effect{SeekToSeconds: &target}
}

// HandleKey applies a keyboard shortcut: space toggles play/pause, the arrow
// keys seek ±5s. Shortcuts are suppressed while focus is inside a text input
// and whenever no media is loaded.
func (e *Engine) HandleKey(key string, inTextInput bool) Effect {
	if inTextInput {
		return Effect{}
	}

	e.mu.Lock()
	noMedia := e.url == ""
	position := e.position
	e.mu.Unlock()

	if noMedia {
		return Effect{}
	}

	switch key {
	case KeySpace:
		return e.TogglePlayPause()
	case KeyArrowLeft:
		return e.Seek(position - arrowSeekSeconds)
	case KeyArrowRight:
		return e.Seek(position + arrowSeekSeconds)
	default:
		return Effect{}
	}
}

// Generation returns the identifier of the currently loaded URL.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// PositionSeconds returns the last known playback position.
func (e *Engine) PositionSeconds() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// HasMedia reports whether a URL is currently assigned.
func (e *Engine) HasMedia() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.url != ""
}

// Snapshot returns a copy of the current media session state.
func (e *Engine) Snapshot() MediaSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	return MediaSession{
		URL:             e.url,
		State:           e.state.String(),
		IsPlaying:       e.isPlaying,
		IsLoading:       e.state == StateLoading,
		IsMuted:         e.isMuted,
		IsTransitioning: e.isTransitioning,
		PositionSeconds: e.position,
		DurationSeconds: e.duration,
		Error:           e.errMsg,
		Generation:      e.generation,
	}
}

// clamp bounds a seek target to [0, duration].
func clamp(target, duration float64) float64 {
	if target < 0 {
		return 0
	}
	if duration > 0 && target > duration {
		return duration
	}
	return target
}
