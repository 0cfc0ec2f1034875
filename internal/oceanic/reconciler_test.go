package oceanic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/gateway"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

type fakeFeed struct {
	mu      sync.Mutex
	records []gateway.ClearanceRecord
	err     error
	calls   atomic.Int32
}

func (f *fakeFeed) Clearances(ctx context.Context) ([]gateway.ClearanceRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, f.err
}

type fixture struct {
	store *flightdata.Store
	sink  *tags.MemoryStore
	feed  *fakeFeed
	rec   *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: flightdata.NewStore(),
		sink:  tags.NewMemoryStore(),
		feed:  &fakeFeed{},
	}
	rec, err := New(Config{
		Flightplans:    f.store,
		ControllerData: f.store.ControllerData(),
		Tags:           f.sink,
		Clearances:     f.feed,
		Interval:       time.Hour,
		Tick:           time.Millisecond,
	}, logger.NewNop())
	require.NoError(t, err)
	f.rec = rec
	return f
}

func (f *fixture) entry(t *testing.T, callsign string) tags.Entry {
	t.Helper()
	e, ok := f.sink.Get(f.rec.tagID, callsign)
	require.True(t, ok, "no tag written for %s", callsign)
	return e
}

func TestNewRegistersTag(t *testing.T) {
	f := newFixture(t)
	id, def, ok := f.sink.LookupTag("oceanic_flag")
	require.True(t, ok)
	assert.Equal(t, f.rec.tagID, id)
	assert.Equal(t, "", def.DefaultValue)
	assert.Empty(t, def.AllowedActions)
}

func TestCycleWritesEveryFlightOnce(t *testing.T) {
	f := newFixture(t)
	f.feed.records = []gateway.ClearanceRecord{
		{Callsign: "AFR006", Status: "CLEARED", Level: "340"},
		{Callsign: "DLH400", Status: "CLEARED", Level: "340"},
	}

	f.store.UpsertFlightplan(transatlantic("AFR006"))
	f.store.SetControllerData(flightdata.ControllerHeldClearance{Callsign: "AFR006", ClearedFlightLevel: 34000})

	f.store.UpsertFlightplan(transatlantic("DLH400")) // planned 36000, no controller data

	f.store.UpsertFlightplan(transatlantic("BAW117")) // no record, KJFK

	domestic := transatlantic("AFR7300")
	domestic.Route = "LGL UN491 BEGAR"
	f.store.UpsertFlightplan(domestic)

	f.rec.Cycle(context.Background())

	assert.Equal(t, 4, f.sink.Writes())
	assert.Equal(t, int32(1), f.feed.calls.Load(), "feed is fetched once per cycle")

	e := f.entry(t, "AFR006")
	assert.Equal(t, "OCL", e.Value)
	assert.Equal(t, tags.ColorCleared, *e.Color)

	e = f.entry(t, "DLH400")
	assert.Equal(t, "LCHG34", e.Value)
	assert.Equal(t, tags.ColorCleared, *e.Color)

	e = f.entry(t, "BAW117")
	assert.Equal(t, "OCL", e.Value)
	assert.Equal(t, tags.ColorAwaiting, *e.Color)

	e = f.entry(t, "AFR7300")
	assert.Equal(t, "", e.Value)
	assert.Equal(t, tags.ColorDefault, *e.Color)
}

func TestFeedFailureDefaultsToNoClearance(t *testing.T) {
	f := newFixture(t)
	f.feed.err = &gateway.Error{Kind: gateway.KindServer, Op: "nattrak.clearances", StatusCode: 503}

	f.store.UpsertFlightplan(transatlantic("AFR006"))
	f.store.SetControllerData(flightdata.ControllerHeldClearance{Callsign: "AFR006", ClearedFlightLevel: 34000})

	f.rec.Cycle(context.Background())

	e := f.entry(t, "AFR006")
	assert.Equal(t, "OCL", e.Value)
	assert.Equal(t, tags.ColorAwaiting, *e.Color)
}

type failingSink struct {
	*tags.MemoryStore
	failFor string
}

func (s *failingSink) UpdateTagValue(tagID, callsign, value string, color *tags.Color) error {
	if callsign == s.failFor {
		return errors.New("sink unavailable")
	}
	return s.MemoryStore.UpdateTagValue(tagID, callsign, value, color)
}

func TestSinkFailureSkipsOnlyThatFlight(t *testing.T) {
	store := flightdata.NewStore()
	sink := &failingSink{MemoryStore: tags.NewMemoryStore(), failFor: "AFR006"}
	rec, err := New(Config{
		Flightplans:    store,
		ControllerData: store.ControllerData(),
		Tags:           sink,
		Clearances:     &fakeFeed{},
	}, logger.NewNop())
	require.NoError(t, err)

	store.UpsertFlightplan(transatlantic("AFR006"))
	store.UpsertFlightplan(transatlantic("BAW117"))
	rec.Cycle(context.Background())

	_, ok := sink.Get(rec.tagID, "AFR006")
	assert.False(t, ok)
	e, ok := sink.Get(rec.tagID, "BAW117")
	require.True(t, ok)
	assert.Equal(t, "OCL", e.Value)
}

func TestCancelledCycleWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.store.UpsertFlightplan(transatlantic("AFR006"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.rec.Cycle(ctx)

	assert.Equal(t, 0, f.sink.Writes())
}

func TestPollerAgainstClearanceService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"callsign": "AFR006", "status": "CLEARED", "level": "340"}]`))
	}))
	defer srv.Close()

	store := flightdata.NewStore()
	sink := tags.NewMemoryStore()
	client := gateway.NewClient(time.Second, "CoFrance/test", logger.NewNop())
	rec, err := New(Config{
		Flightplans:    store,
		ControllerData: store.ControllerData(),
		Tags:           sink,
		Clearances:     gateway.NewClearanceService(client, srv.URL),
		Interval:       5 * time.Millisecond,
		Tick:           time.Millisecond,
	}, logger.NewNop())
	require.NoError(t, err)

	store.UpsertFlightplan(transatlantic("AFR006"))
	store.SetControllerData(flightdata.ControllerHeldClearance{Callsign: "AFR006", ClearedFlightLevel: 36000})

	rec.StartPoller()
	rec.StartPoller()
	require.Eventually(t, func() bool {
		e, ok := sink.Get(rec.tagID, "AFR006")
		return ok && e.Value == "LCHG34"
	}, 2*time.Second, 2*time.Millisecond)
	rec.StopPoller()
	rec.StopPoller()

	writes := sink.Writes()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, writes, sink.Writes(), "no writes after StopPoller returns")
}

func TestPollerConfig(t *testing.T) {
	cfg := pollerConfig(0, 0)
	assert.Equal(t, time.Second, cfg.Tick)
	assert.Equal(t, 60, cfg.Every)

	cfg = pollerConfig(90*time.Second, 0)
	assert.Equal(t, 90, cfg.Every)
}
