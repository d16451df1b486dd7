package policy

import "strings"

// Tier is a caller's authorization rank. Only the ordering matters for
// window decisions; the names mirror the station's role hierarchy.
type Tier int

const (
	// TierAnonymous is an unauthenticated listener
	TierAnonymous Tier = iota
	// TierMember is an authenticated station member
	TierMember
	// TierDJ is a DJ with extended archive access
	TierDJ
	// TierMusicDirector is a music director
	TierMusicDirector
	// TierStationManager is a station manager
	TierStationManager
	// TierAdmin is a site administrator
	TierAdmin
)

// String returns the string representation of a Tier
func (t Tier) String() string {
	switch t {
	case TierAnonymous:
		return "anonymous"
	case TierMember:
		return "member"
	case TierDJ:
		return "dj"
	case TierMusicDirector:
		return "music_director"
	case TierStationManager:
		return "station_manager"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseTier maps a role name to its Tier, defaulting to anonymous for
// unrecognized input.
func ParseTier(role string) Tier {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "member":
		return TierMember
	case "dj":
		return TierDJ
	case "music_director":
		return TierMusicDirector
	case "station_manager":
		return TierStationManager
	case "admin":
		return TierAdmin
	default:
		return TierAnonymous
	}
}

// Elevated reports whether the tier receives the extended archive window.
func (t Tier) Elevated() bool {
	return t >= TierDJ
}
