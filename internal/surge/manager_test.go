package surge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hexzone/internal/geo"
	"github.com/sells-group/hexzone/internal/metrics"
	"github.com/sells-group/hexzone/internal/render"
)

func newStyleManager(t *testing.T, opts ...Option) (*Manager, *render.Style, *stubTiles) {
	t.Helper()
	style := render.NewStyle()
	tiles := &stubTiles{}
	m, err := NewManager(testCatalog(), tiles, style, opts...)
	require.NoError(t, err)
	return m, style, tiles
}

func TestNewManager_Validation(t *testing.T) {
	style := render.NewStyle()

	_, err := NewManager(nil, &stubTiles{}, style)
	assert.ErrorIs(t, err, geo.ErrInvalidArgument)

	_, err = NewManager(testCatalog(), nil, style)
	assert.ErrorIs(t, err, geo.ErrInvalidArgument)

	_, err = NewManager(testCatalog(), &stubTiles{}, nil)
	assert.ErrorIs(t, err, geo.ErrInvalidArgument)

	bad := Catalog{{Name: "bad", Points: []geo.GeoPoint{{Lat: 91, Lon: 0}}}}
	_, err = NewManager(bad, &stubTiles{}, style)
	assert.ErrorIs(t, err, geo.ErrInvalidArgument)
}

func TestManager_NothingRenderedBeforeMapLoaded(t *testing.T) {
	m, style, _ := newStyleManager(t)

	assert.False(t, m.Loaded())
	assert.Equal(t, 0, m.Index())
	assert.Empty(t, m.Active())
	assert.Empty(t, style.SourceIDs())
}

func TestManager_MapLoadedRendersStartZone(t *testing.T) {
	m, style, tiles := newStyleManager(t)

	require.NoError(t, m.MapLoaded())

	assert.True(t, m.Loaded())
	// 2 focus points x 3 bands.
	assert.Len(t, m.Active(), 6)
	assert.Len(t, style.SourceIDs(), 6)
	assert.Len(t, style.Layers(), 6)

	require.Len(t, tiles.calls, 6)
	assert.Equal(t, 500.0, tiles.calls[0].MaxDistanceMeters)
	assert.Equal(t, 1000.0, tiles.calls[1].MaxDistanceMeters)
	assert.Equal(t, 1500.0, tiles.calls[2].MaxDistanceMeters)

	layers := style.Layers()
	assert.Equal(t, DefaultFillColor, layers[0].FillColor)
	assert.Equal(t, 0.5, layers[0].FillOpacity)
	assert.Equal(t, 0.25, layers[1].FillOpacity)
	assert.Equal(t, 0.1, layers[2].FillOpacity)
	assert.Equal(t, layers[0].SourceID, m.Active()[0].SourceID)
}

func TestManager_StartIndexOption(t *testing.T) {
	m, style, _ := newStyleManager(t, WithStartIndex(1), WithFillColor("#ff0000"))

	require.NoError(t, m.MapLoaded())
	assert.Equal(t, 1, m.Index())
	assert.Len(t, m.Active(), 3)
	assert.Equal(t, "#ff0000", style.Layers()[0].FillColor)
}

func TestManager_AdvanceTearsDownPreviousZone(t *testing.T) {
	m, style, _ := newStyleManager(t)
	require.NoError(t, m.MapLoaded())
	before := m.Active()

	idx, err := m.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	sources := style.SourceIDs()
	layers := style.Layers()
	assert.Len(t, sources, 3)
	for _, h := range before {
		assert.NotContains(t, sources, h.SourceID)
		for _, l := range layers {
			assert.NotEqual(t, h.LayerID, l.ID)
		}
	}
	for _, h := range m.Active() {
		assert.Equal(t, geo.GeoPoint{Lat: 37.7599, Lon: -122.4148}, h.Key.Point)
	}
}

func TestManager_AdvanceCycles(t *testing.T) {
	tests := []struct {
		start, advances, want int
	}{
		{0, 1, 1},
		{0, 3, 0},
		{1, 5, 0},
		{2, 1, 0},
		{2, 7, 0},
	}
	for _, tt := range tests {
		m, _, _ := newStyleManager(t, WithStartIndex(tt.start))
		require.NoError(t, m.MapLoaded())
		for i := 0; i < tt.advances; i++ {
			_, err := m.Advance()
			require.NoError(t, err)
		}
		assert.Equal(t, tt.want, m.Index(), "start=%d advances=%d", tt.start, tt.advances)
	}
}

func TestManager_EmptyZoneRegistersNothing(t *testing.T) {
	m, style, tiles := newStyleManager(t)
	require.NoError(t, m.MapLoaded())
	tiles.calls = nil

	require.NoError(t, m.LoadZone(2))

	assert.Equal(t, 2, m.Index())
	assert.Empty(t, m.Active())
	assert.Empty(t, style.SourceIDs())
	assert.Empty(t, style.Layers())
	assert.Empty(t, tiles.calls)
}

func TestManager_LoadZoneWrapsIndex(t *testing.T) {
	m, _, _ := newStyleManager(t)

	require.NoError(t, m.LoadZone(-1))
	assert.Equal(t, 2, m.Index())
	assert.True(t, m.Loaded())

	require.NoError(t, m.LoadZone(4))
	assert.Equal(t, 1, m.Index())
}

func TestManager_AdvanceBeforeMapLoadedDefersRender(t *testing.T) {
	adapter := &mockAdapter{}
	m, err := NewManager(testCatalog(), &stubTiles{}, adapter)
	require.NoError(t, err)

	idx, err := m.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.False(t, m.Loaded())
	adapter.AssertNotCalled(t, "AddSource", mock.Anything, mock.Anything)

	adapter.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	adapter.On("AddFillLayer", mock.Anything).Return(nil)
	require.NoError(t, m.MapLoaded())
	assert.Equal(t, 1, m.Index())
	adapter.AssertNumberOfCalls(t, "AddSource", 3)
}

func TestManager_TeardownOrder(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	adapter.On("AddFillLayer", mock.Anything).Return(nil)
	adapter.On("RemoveLayer", mock.Anything).Return(nil)
	adapter.On("RemoveSource", mock.Anything).Return(nil)

	m, err := NewManager(testCatalog(), &stubTiles{}, adapter, WithStartIndex(1))
	require.NoError(t, err)
	require.NoError(t, m.MapLoaded())
	handles := m.Active()
	require.Len(t, handles, 3)

	adapter.Calls = nil
	require.NoError(t, m.LoadZone(0))
	require.Len(t, m.Active(), 6)

	var want []string
	for _, h := range handles {
		want = append(want, "RemoveLayer:"+h.LayerID, "RemoveSource:"+h.SourceID)
	}
	calls := adapter.callLog()
	require.Len(t, calls, len(want)+12)
	assert.Equal(t, want, calls[:len(want)])

	lastRemove, firstAdd := -1, -1
	for i, c := range calls {
		switch {
		case strings.HasPrefix(c, "Remove"):
			lastRemove = i
		case strings.HasPrefix(c, "AddSource") && firstAdd < 0:
			firstAdd = i
		}
	}
	require.GreaterOrEqual(t, firstAdd, 0)
	assert.Less(t, lastRemove, firstAdd, "old overlays must be gone before the next zone is added")
	assert.Equal(t, "layer-0.5/37.7599/-122.4148", handles[0].LayerID)
	assert.Equal(t, "source-0.5/37.7599/-122.4148", handles[0].SourceID)
}

func TestManager_TeardownContinuesPastMissingPrimitives(t *testing.T) {
	mm := metrics.New(nil)
	m, style, _ := newStyleManager(t, WithMetrics(mm))
	require.NoError(t, m.MapLoaded())

	gone := m.Active()[0]
	require.NoError(t, style.RemoveLayer(gone.LayerID))
	require.NoError(t, style.RemoveSource(gone.SourceID))

	require.NoError(t, m.LoadZone(2))

	assert.Empty(t, style.SourceIDs())
	assert.Empty(t, style.Layers())
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.MissingPrimitives.WithLabelValues(metrics.KindLayer)))
	assert.Equal(t, 1.0, testutil.ToFloat64(mm.MissingPrimitives.WithLabelValues(metrics.KindSource)))
	assert.Equal(t, 6.0, testutil.ToFloat64(mm.OverlaysRemoved))
	assert.Equal(t, 2.0, testutil.ToFloat64(mm.ZoneLoads))
	assert.Equal(t, 0.0, testutil.ToFloat64(mm.OverlaysActive))
}

func TestManager_TeardownContinuesPastAdapterErrors(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	adapter.On("AddFillLayer", mock.Anything).Return(nil)
	adapter.On("RemoveLayer", mock.Anything).Return(errors.New("engine offline"))
	adapter.On("RemoveSource", mock.Anything).Return(nil)

	m, err := NewManager(testCatalog(), &stubTiles{}, adapter, WithStartIndex(1))
	require.NoError(t, err)
	require.NoError(t, m.MapLoaded())

	require.NoError(t, m.LoadZone(2))
	adapter.AssertNumberOfCalls(t, "RemoveLayer", 3)
	adapter.AssertNumberOfCalls(t, "RemoveSource", 3)
	assert.Empty(t, m.Active())
}

func TestManager_LayerFailureRollsBackSource(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("AddSource", mock.Anything, mock.Anything).Return(nil)
	adapter.On("AddFillLayer", mock.MatchedBy(func(l render.FillLayer) bool {
		return l.FillOpacity == 0.25
	})).Return(errors.New("style rejected"))
	adapter.On("AddFillLayer", mock.Anything).Return(nil)
	adapter.On("RemoveSource", mock.Anything).Return(nil)

	m, err := NewManager(testCatalog(), &stubTiles{}, adapter, WithStartIndex(1))
	require.NoError(t, err)

	err = m.MapLoaded()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "style rejected")

	assert.Len(t, m.Active(), 2)
	adapter.AssertCalled(t, "RemoveSource", "source-0.25/37.7599/-122.4148")
	for _, h := range m.Active() {
		assert.NotEqual(t, 0.25, h.Key.Opacity)
	}
}

func TestManager_TileErrorsAreCollected(t *testing.T) {
	style := render.NewStyle()
	tiles := &stubTiles{err: errors.New("projection unavailable")}
	m, err := NewManager(testCatalog(), tiles, style)
	require.NoError(t, err)

	err = m.MapLoaded()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projection unavailable")
	assert.Len(t, tiles.calls, 6)
	assert.Empty(t, style.SourceIDs())
	assert.True(t, m.Loaded())
}

func TestManager_DuplicateFocusPointsSkipped(t *testing.T) {
	p := geo.GeoPoint{Lat: 37.7749, Lon: -122.4194}
	catalog := Catalog{{Name: "dup", Points: []geo.GeoPoint{p, p}}}
	style := render.NewStyle()

	m, err := NewManager(catalog, &stubTiles{}, style)
	require.NoError(t, err)
	require.NoError(t, m.MapLoaded())
	assert.Len(t, m.Active(), 3)
}

func TestManager_ReentrantTransitionIsBusy(t *testing.T) {
	tiles := &stubTiles{}
	m, err := NewManager(testCatalog(), tiles, render.NewStyle())
	require.NoError(t, err)

	var nested []error
	tiles.hook = func() {
		if len(nested) == 0 {
			nested = append(nested, m.LoadZone(2))
			_, advErr := m.Advance()
			nested = append(nested, advErr, m.MapLoaded())
		}
	}

	require.NoError(t, m.MapLoaded())
	require.Len(t, nested, 3)
	for _, e := range nested {
		assert.ErrorIs(t, e, ErrBusy)
	}
	assert.Equal(t, 0, m.Index())
	assert.Len(t, m.Active(), 6)
}

func TestManager_State(t *testing.T) {
	m, _, _ := newStyleManager(t)
	require.NoError(t, m.MapLoaded())

	st := m.State()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, "downtown", st.Zone)
	assert.Equal(t, 3, st.Zones)
	assert.True(t, st.Loaded)
	assert.Len(t, st.Overlays, 6)
}

func TestManager_DispatchEvents(t *testing.T) {
	m, _, _ := newStyleManager(t)

	require.NoError(t, m.Dispatch(EventMapLoaded))
	require.NoError(t, m.Dispatch(EventAdvance))
	assert.Equal(t, 1, m.Index())

	err := m.Dispatch(Event(42))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event event(42)")
	assert.Equal(t, "map_loaded", EventMapLoaded.String())
	assert.Equal(t, "advance", EventAdvance.String())
	assert.Equal(t, "event(42)", Event(42).String())
}

func TestLoop_SerializesEvents(t *testing.T) {
	m, _, _ := newStyleManager(t)
	loop := NewLoop(m, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.NoError(t, loop.Submit(ctx, EventMapLoaded))
	for i := 0; i < 4; i++ {
		require.NoError(t, loop.Submit(ctx, EventAdvance))
	}
	assert.Equal(t, 1, m.Index())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	err := loop.Submit(ctx, EventAdvance)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoop_CancelAnswersQueuedEvents(t *testing.T) {
	m, _, _ := newStyleManager(t)
	loop := NewLoop(m, 4)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- loop.Submit(context.Background(), EventMapLoaded) }()
	}
	require.Eventually(t, func() bool { return len(loop.requests) == 2 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, loop.Run(ctx))

	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("queued submitter never answered")
		}
	}
	assert.False(t, m.Loaded())
}
