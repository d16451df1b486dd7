package playback

// State represents the current playback state of a media session
type State int

const (
	// StateIdle means no media URL is assigned
	StateIdle State = iota
	// StateLoading means a URL is assigned and the media resource is loading
	StateLoading
	// StateReady means metadata has arrived and playback can start
	StateReady
	// StatePlaying means the media resource is playing
	StatePlaying
	// StateEnded means the hour's recording finished and no further hour is reachable
	StateEnded
	// StateErrored means the media resource or resolver failed; recoverable only by a new URL
	StateErrored
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// MediaSession is a snapshot of the engine's session state, serialized to
// clients on every state-changing call.
type MediaSession struct {
	URL             string  `json:"url,omitempty"`
	State           string  `json:"state"`
	IsPlaying       bool    `json:"is_playing"`
	IsLoading       bool    `json:"is_loading"`
	IsMuted         bool    `json:"is_muted"`
	IsTransitioning bool    `json:"is_transitioning"`
	PositionSeconds float64 `json:"position_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error,omitempty"`
	Generation      uint64  `json:"generation"`
}
