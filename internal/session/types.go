package session

import (
	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/playback"
)

// Banner kinds shown for deep links the caller cannot reach
const (
	BannerRequiresElevation = "requires_elevation"
	BannerOutOfWindow       = "out_of_window"
)

// Listener-facing banner messages
const (
	messageRequiresElevation = "Sign in for access to this date"
	messageOutOfWindow       = "This date is outside the available archive range"
)

// Banner is a dismissible notice about an unreachable deep link. Dismissal
// is sticky only until the selection or auth state changes.
type Banner struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// State is the controller snapshot returned from every session endpoint.
type State struct {
	ID              string                `json:"id"`
	Selection       archive.Selection     `json:"selection"`
	Timestamp       string                `json:"timestamp"`
	QueryString     string                `json:"query_string"`
	Classification  string                `json:"classification"`
	Banner          *Banner               `json:"banner,omitempty"`
	ArchiveSelected bool                  `json:"archive_selected"`
	AutoPlay        bool                  `json:"auto_play"`
	Authenticated   bool                  `json:"authenticated"`
	Tier            string                `json:"tier"`
	Media           playback.MediaSession `json:"media"`
}

// Control actions accepted by the controls endpoint
const (
	ActionPlayPause = "play_pause"
	ActionMute      = "mute"
	ActionSeek      = "seek"
	ActionKey       = "key"
)
