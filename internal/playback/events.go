package playback

// EventType names a media element notification delivered by the player
// client. These map one-to-one onto the browser's asynchronous media events.
type EventType string

const (
	// EventMetadataReady corresponds to loadedmetadata: duration is known
	EventMetadataReady EventType = "metadata_ready"
	// EventPlayStarted corresponds to the element's play notification,
	// including playback started by external controls such as OS media keys
	EventPlayStarted EventType = "play_started"
	// EventPlayStopped corresponds to the element's pause notification
	EventPlayStopped EventType = "play_stopped"
	// EventTimeUpdate carries the element's current playback position
	EventTimeUpdate EventType = "time_update"
	// EventEnded signals the natural end of the hour's recording
	EventEnded EventType = "ended"
	// EventErrored signals a media load or playback failure
	EventErrored EventType = "errored"
)

// Event is a media notification tied to a specific loaded URL via its
// generation. Events whose generation does not match the engine's current
// load are stale leftovers from a hotswapped-away resource and are ignored.
type Event struct {
	Type            EventType `json:"type"`
	Generation      uint64    `json:"generation"`
	PositionSeconds float64   `json:"position_seconds"`
	DurationSeconds float64   `json:"duration_seconds"`
	Message         string    `json:"message,omitempty"`
}

// Effect tells the caller what to do after the engine processed an input.
// AdvanceHour is consumed by the session controller (it re-resolves the next
// hour); the remaining directives are forwarded to the player client.
type Effect struct {
	// AdvanceHour is set when the recording ended and the next hour should
	// be selected and resolved upstream
	AdvanceHour bool `json:"-"`
	// IssuePlay instructs the client to start the media element
	IssuePlay bool `json:"issue_play,omitempty"`
	// IssuePause instructs the client to pause the media element
	IssuePause bool `json:"issue_pause,omitempty"`
	// SeekToSeconds instructs the client to seek the media element
	SeekToSeconds *float64 `json:"seek_to_seconds,omitempty"`
}

// Key names understood by HandleKey
const (
	KeySpace      = "space"
	KeyArrowLeft  = "arrow_left"
	KeyArrowRight = "arrow_right"
)

// arrowSeekSeconds is the seek distance for the arrow-key shortcuts
const arrowSeekSeconds = 5
