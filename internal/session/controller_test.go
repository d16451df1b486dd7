package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/auth"
	"github.com/stationkit/aircheck/internal/db"
	"github.com/stationkit/aircheck/internal/logger"
	"github.com/stationkit/aircheck/internal/models"
	"github.com/stationkit/aircheck/internal/playback"
	"github.com/stationkit/aircheck/internal/policy"
	"github.com/stationkit/aircheck/internal/resolver"
)

// testNow pins the clock to Jan 20 2024 15:00 UTC; the anonymous 14-day
// window then reaches back to Jan 6 15:00.
var testNow = time.Date(2024, time.January, 20, 15, 0, 0, 0, time.UTC)

// fakeResolver records resolve calls and returns canned results. onCall, when
// set, runs between releasing the controller lock and returning, which lets
// tests interleave a competing selection change with an in-flight resolve.
type fakeResolver struct {
	mu     sync.Mutex
	calls  []archive.Selection
	url    string
	err    error
	onCall func(callNum int)
}

func (f *fakeResolver) Resolve(_ context.Context, sel archive.Selection, _ policy.Tier) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel)
	n := len(f.calls)
	hook := f.onCall
	url, err := f.url, f.err
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return url, err
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeResolver) lastCall() archive.Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakePositionStore is an in-memory PositionStore
type fakePositionStore struct {
	mu        sync.Mutex
	positions map[string]*models.ListenerPosition
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{positions: make(map[string]*models.ListenerPosition)}
}

func (f *fakePositionStore) GetByListenerID(_ context.Context, listenerID string) (*models.ListenerPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos, ok := f.positions[listenerID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *pos
	return &copied, nil
}

func (f *fakePositionStore) Upsert(_ context.Context, pos *models.ListenerPosition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *pos
	f.positions[pos.ListenerID] = &copied
	return nil
}

func newTestController(t *testing.T, res *fakeResolver) *Controller {
	t.Helper()
	logger.Init("error", false)

	deps := Deps{
		Policy:    policy.New(policy.ClockFunc(func() time.Time { return testNow }), 14, 90),
		Resolver:  res,
		Clock:     policy.ClockFunc(func() time.Time { return testNow }),
		Location:  time.UTC,
		SharePath: "/player",
	}
	return NewController("", deps)
}

func TestNewController_NilDepsPanics(t *testing.T) {
	logger.Init("error", false)
	pol := policy.New(policy.ClockFunc(func() time.Time { return testNow }), 14, 90)

	assert.Panics(t, func() {
		NewController("", Deps{Resolver: &fakeResolver{}})
	})
	assert.Panics(t, func() {
		NewController("", Deps{Policy: pol})
	})
}

func TestOpen_InWindowDeepLink(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)

	state := ctrl.Open(context.Background(), "20240115143045", auth.Anonymous())

	assert.Equal(t, "in_window", state.Classification)
	assert.Nil(t, state.Banner)
	assert.True(t, state.ArchiveSelected)
	assert.True(t, state.AutoPlay)
	assert.Equal(t, "20240115143045", state.Timestamp)
	assert.Equal(t, "t=20240115143045", state.QueryString)
	assert.Equal(t, "loading", state.Media.State)
	assert.Equal(t, "https://cdn.example/signed", state.Media.URL)

	require.Equal(t, 1, res.callCount())
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 15, Hour: 14, Minute: 30, Second: 45}, res.lastCall())
}

func TestOpen_MalformedDeepLinkFallsBack(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)

	state := ctrl.Open(context.Background(), "not-a-timestamp", auth.Anonymous())

	// Yesterday at noon, nothing resolved, no banner, no error surfaced.
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 12}, state.Selection)
	assert.Equal(t, "in_window", state.Classification)
	assert.Nil(t, state.Banner)
	assert.False(t, state.ArchiveSelected)
	assert.False(t, state.AutoPlay)
	assert.Equal(t, 0, res.callCount())
}

func TestOpen_EmptyDeepLink(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)

	state := ctrl.Open(context.Background(), "", auth.Anonymous())
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 12}, state.Selection)
	assert.Equal(t, 0, res.callCount())
}

func TestOpen_DeepLinkRequiresElevation(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)

	// Jan 5 is past the anonymous window but inside the elevated one.
	state := ctrl.Open(context.Background(), "20240105120000", auth.Anonymous())

	assert.Equal(t, "requires_elevation", state.Classification)
	require.NotNil(t, state.Banner)
	assert.Equal(t, BannerRequiresElevation, state.Banner.Kind)
	assert.Equal(t, "Sign in for access to this date", state.Banner.Message)
	assert.False(t, state.ArchiveSelected)
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 12}, state.Selection)
	assert.Equal(t, 0, res.callCount())
}

func TestOpen_DeepLinkReachableForElevatedTier(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)

	dj := auth.Identity{Authenticated: true, Tier: policy.TierDJ}
	state := ctrl.Open(context.Background(), "20240105120000", dj)

	assert.Equal(t, "in_window", state.Classification)
	assert.True(t, state.ArchiveSelected)
	assert.Equal(t, 1, res.callCount())
}

func TestOpen_DeepLinkOutOfWindow(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)

	state := ctrl.Open(context.Background(), "20230601120000", auth.Identity{Authenticated: true, Tier: policy.TierAdmin})

	assert.Equal(t, "out_of_window", state.Classification)
	require.NotNil(t, state.Banner)
	assert.Equal(t, BannerOutOfWindow, state.Banner.Kind)
	assert.Equal(t, "This date is outside the available archive range", state.Banner.Message)
	assert.Equal(t, 0, res.callCount())
}

func TestDismissBanner(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "20240105120000", auth.Anonymous())

	state := ctrl.DismissBanner()
	assert.Nil(t, state.Banner)
	assert.Equal(t, "requires_elevation", state.Classification)

	// A new unreachable pick resurfaces the banner.
	state = ctrl.Select(context.Background(), 2024, time.January, 4, 10)
	require.NotNil(t, state.Banner)
}

func TestSelect_InWindow(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	state := ctrl.Select(context.Background(), 2024, time.January, 18, 9)

	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 18, Hour: 9}, state.Selection)
	assert.True(t, state.ArchiveSelected)
	assert.Equal(t, 1, res.callCount())
}

func TestSelect_OutOfWindowKeepsSelection(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	state := ctrl.Select(context.Background(), 2023, time.June, 1, 9)

	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 12}, state.Selection)
	assert.Equal(t, "out_of_window", state.Classification)
	require.NotNil(t, state.Banner)
	assert.Equal(t, 0, res.callCount())
}

func TestStep_MovesAndResolvesWhenSelected(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "20240115140000", auth.Anonymous())
	require.Equal(t, 1, res.callCount())

	state := ctrl.Step(context.Background(), 1)

	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 15, Hour: 15}, state.Selection)
	assert.Equal(t, 2, res.callCount())
}

func TestStep_SilentNoOpAtWindowEdge(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "20240120150000", auth.Anonymous())
	require.Equal(t, 1, res.callCount())

	state := ctrl.Step(context.Background(), 1)

	// Stepping past the window's latest hour changes nothing and raises no
	// banner; the tap is simply ignored.
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 20, Hour: 15}, state.Selection)
	assert.Nil(t, state.Banner)
	assert.Equal(t, 1, res.callCount())
}

func TestStep_BrowsingWithoutPlaybackDoesNotResolve(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	state := ctrl.Step(context.Background(), -1)

	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 11}, state.Selection)
	assert.False(t, state.ArchiveSelected)
	assert.Equal(t, 0, res.callCount())
}

func TestControls_FirstPlayResolvesBrowsedHour(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())
	require.Equal(t, 0, res.callCount())

	state, _, err := ctrl.Controls(context.Background(), ActionPlayPause, 0, "", false)
	require.NoError(t, err)

	assert.True(t, state.ArchiveSelected)
	assert.True(t, state.AutoPlay)
	assert.Equal(t, 1, res.callCount())
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 12}, res.lastCall())
}

func TestControls_UnknownAction(t *testing.T) {
	res := &fakeResolver{}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	_, _, err := ctrl.Controls(context.Background(), "rewind_tape", 0, "", false)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestShareLink_ZeroesPositionByDefault(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	state := ctrl.Open(context.Background(), "20240115143045", auth.Anonymous())

	// Metadata arrives and the carried-over offset is applied.
	ctrl.HandleEvent(context.Background(), playback.Event{
		Type:            playback.EventMetadataReady,
		Generation:      state.Media.Generation,
		DurationSeconds: 3600,
	})

	assert.Equal(t, "/player?t=20240115140000", ctrl.ShareLink(false))
	assert.Equal(t, "/player?t=20240115143045", ctrl.ShareLink(true))
}

func TestHandleEvent_EndedAdvancesHour(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	state := ctrl.Open(context.Background(), "20240115140000", auth.Anonymous())
	gen := state.Media.Generation

	ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventMetadataReady, Generation: gen, DurationSeconds: 3600})
	state, _ = ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventEnded, Generation: gen})

	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 15, Hour: 15}, state.Selection)
	require.Equal(t, 2, res.callCount())
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 15, Hour: 15}, res.lastCall())
	assert.Equal(t, "loading", state.Media.State)
}

func TestHandleEvent_TransitionAutoplaysNextHour(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	state := ctrl.Open(context.Background(), "20240115140000", auth.Anonymous())
	gen := state.Media.Generation

	ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventMetadataReady, Generation: gen, DurationSeconds: 3600})
	state, _ = ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventEnded, Generation: gen})

	// Metadata for the auto-advanced hour starts playback without listener input.
	nextGen := state.Media.Generation
	require.NotEqual(t, gen, nextGen)
	state, effect := ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventMetadataReady, Generation: nextGen, DurationSeconds: 3600})

	assert.True(t, effect.IssuePlay)
	assert.True(t, state.Media.IsPlaying)
}

func TestHandleEvent_AdvanceBlockedAtWindowEdgeStopsPlayback(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	state := ctrl.Open(context.Background(), "20240120150000", auth.Anonymous())
	gen := state.Media.Generation

	ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventMetadataReady, Generation: gen, DurationSeconds: 3600})
	ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventPlayStarted, Generation: gen})
	state, _ = ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventEnded, Generation: gen})

	// No further hour is admissible: playback halts on the finished hour.
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 20, Hour: 15}, state.Selection)
	assert.Equal(t, "ended", state.Media.State)
	assert.False(t, state.Media.IsPlaying)
	assert.Equal(t, 1, res.callCount())
}

func TestResolve_StaleResponseDiscarded(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/first"}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	// While the first resolve is in flight the listener picks another hour;
	// the superseded response must not overwrite the newer load.
	res.onCall = func(n int) {
		if n == 1 {
			res.mu.Lock()
			res.url = "https://cdn.example/second"
			res.onCall = nil
			res.mu.Unlock()
			ctrl.Select(context.Background(), 2024, time.January, 18, 9)
		}
	}

	state := ctrl.Play(context.Background())

	assert.Equal(t, "https://cdn.example/second", state.Media.URL)
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 18, Hour: 9}, state.Selection)
}

func TestResolve_ConcurrentSupersedeKeepsNewestURL(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/first"}
	ctrl := newTestController(t, res)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	// The first resolve parks inside the resolver until the superseding
	// selection has fully resolved and loaded; its late response must then
	// be discarded rather than overwrite the newer URL.
	firstInFlight := make(chan struct{})
	release := make(chan struct{})
	res.onCall = func(n int) {
		if n == 1 {
			close(firstInFlight)
			<-release
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Play(context.Background())
	}()

	<-firstInFlight
	res.mu.Lock()
	res.url = "https://cdn.example/second"
	res.mu.Unlock()
	ctrl.Select(context.Background(), 2024, time.January, 18, 9)

	close(release)
	<-done

	state := ctrl.State()
	assert.Equal(t, "https://cdn.example/second", state.Media.URL)
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 18, Hour: 9}, state.Selection)
}

func TestResolve_DenialSurfacedVerbatim(t *testing.T) {
	res := &fakeResolver{err: resolver.NewDeniedError("recording is outside your archive window")}
	ctrl := newTestController(t, res)

	state := ctrl.Open(context.Background(), "20240115140000", auth.Anonymous())

	assert.Equal(t, "errored", state.Media.State)
	assert.Equal(t, "recording is outside your archive window", state.Media.Error)
}

func TestResolve_TransportFailureGetsGenericMessage(t *testing.T) {
	res := &fakeResolver{err: resolver.ErrUnavailable}
	ctrl := newTestController(t, res)

	state := ctrl.Open(context.Background(), "20240115140000", auth.Anonymous())

	assert.Equal(t, "errored", state.Media.State)
	assert.Equal(t, resolver.ErrUnavailable.Error(), state.Media.Error)
}

func TestSetIdentity_ReclassifiesWithoutStopping(t *testing.T) {
	res := &fakeResolver{url: "https://cdn.example/signed"}
	ctrl := newTestController(t, res)
	state := ctrl.Open(context.Background(), "20240105120000", auth.Identity{Authenticated: true, Tier: policy.TierDJ})
	gen := state.Media.Generation

	ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventMetadataReady, Generation: gen, DurationSeconds: 3600})
	ctrl.HandleEvent(context.Background(), playback.Event{Type: playback.EventPlayStarted, Generation: gen})

	// Logging out mid-playback re-runs classification but never yanks the
	// already admitted stream.
	state = ctrl.SetIdentity(context.Background(), auth.Anonymous())

	assert.Equal(t, "requires_elevation", state.Classification)
	require.NotNil(t, state.Banner)
	assert.True(t, state.Media.IsPlaying)
}

func TestOpen_RestoresStoredPosition(t *testing.T) {
	logger.Init("error", false)
	res := &fakeResolver{}
	store := newFakePositionStore()
	store.positions["listener-1"] = &models.ListenerPosition{
		ListenerID: "listener-1",
		Year:       2024, Month: 1, Day: 18, Hour: 9, Minute: 12, Second: 30,
	}

	deps := Deps{
		Policy:    policy.New(policy.ClockFunc(func() time.Time { return testNow }), 14, 90),
		Resolver:  res,
		Positions: store,
		Clock:     policy.ClockFunc(func() time.Time { return testNow }),
		Location:  time.UTC,
		SharePath: "/player",
	}
	ctrl := NewController("listener-1", deps)

	state := ctrl.Open(context.Background(), "", auth.Anonymous())

	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 18, Hour: 9, Minute: 12, Second: 30}, state.Selection)
	assert.False(t, state.ArchiveSelected)
}

func TestOpen_StoredPositionOutsideWindowIgnored(t *testing.T) {
	logger.Init("error", false)
	res := &fakeResolver{}
	store := newFakePositionStore()
	store.positions["listener-1"] = &models.ListenerPosition{
		ListenerID: "listener-1",
		Year:       2023, Month: 6, Day: 1, Hour: 9,
	}

	deps := Deps{
		Policy:    policy.New(policy.ClockFunc(func() time.Time { return testNow }), 14, 90),
		Resolver:  res,
		Positions: store,
		Clock:     policy.ClockFunc(func() time.Time { return testNow }),
		Location:  time.UTC,
		SharePath: "/player",
	}
	ctrl := NewController("listener-1", deps)

	state := ctrl.Open(context.Background(), "", auth.Anonymous())
	assert.Equal(t, archive.Selection{Year: 2024, Month: time.January, Day: 19, Hour: 12}, state.Selection)
}

func TestSelect_PersistsPosition(t *testing.T) {
	logger.Init("error", false)
	res := &fakeResolver{url: "https://cdn.example/signed"}
	store := newFakePositionStore()

	deps := Deps{
		Policy:    policy.New(policy.ClockFunc(func() time.Time { return testNow }), 14, 90),
		Resolver:  res,
		Positions: store,
		Clock:     policy.ClockFunc(func() time.Time { return testNow }),
		Location:  time.UTC,
		SharePath: "/player",
	}
	ctrl := NewController("listener-1", deps)
	ctrl.Open(context.Background(), "", auth.Anonymous())

	ctrl.Select(context.Background(), 2024, time.January, 18, 9)

	pos, err := store.GetByListenerID(context.Background(), "listener-1")
	require.NoError(t, err)
	assert.Equal(t, 2024, pos.Year)
	assert.Equal(t, 1, pos.Month)
	assert.Equal(t, 18, pos.Day)
	assert.Equal(t, 9, pos.Hour)
}
