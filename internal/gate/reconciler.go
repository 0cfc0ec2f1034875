// Package gate requests stand assignments for arrivals at supported
// airports and shows them in the gate tag.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/gateway"
	"github.com/yegors/co-france/internal/metrics"
	"github.com/yegors/co-france/internal/poller"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

const (
	// TagName is the registered name of the gate tag
	TagName = "gate"
	// DefaultValue is shown until a stand has been assigned
	DefaultValue = "--"
	// PollingInterval is the default time between cycles
	PollingInterval = 30 * time.Second
	// MaxAltitudeFt is the default ceiling below which a stand is requested
	MaxAltitudeFt = 3000
)

// ErrNoSupportedAirports ends the loop when the service lists no airports
var ErrNoSupportedAirports = errors.New("no supported airports")

// StandService is the gate assignment service
type StandService interface {
	SupportedAirports(ctx context.Context) ([]string, error)
	QueryStand(ctx context.Context, q gateway.StandQuery) (string, error)
}

// Config holds the collaborators and policy of a Reconciler
type Config struct {
	Flightplans flightdata.FlightplanSource
	Aircraft    flightdata.AircraftSource
	Tags        tags.Sink
	Stands      StandService
	// Zero values fall back to PollingInterval, one second and MaxAltitudeFt
	Interval      time.Duration
	Tick          time.Duration
	MaxAltitudeFt int
}

// Reconciler writes assigned stands into the gate tag
type Reconciler struct {
	flightplans flightdata.FlightplanSource
	aircraft    flightdata.AircraftSource
	tags        tags.Sink
	stands      StandService
	maxAltitude int
	tagID       string
	poller      *poller.Poller
	logger      *logger.Logger

	// owned by the loop goroutine, set by Prepare
	airports map[string]struct{}
}

// New registers the gate tag and returns a stopped reconciler
func New(cfg Config, log *logger.Logger) (*Reconciler, error) {
	log = log.Named("gate")
	log.Info("Initializing gate assigner")

	tagID, err := cfg.Tags.RegisterTagDefinition(tags.Definition{
		Name:         TagName,
		DefaultValue: DefaultValue,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register %s tag: %w", TagName, err)
	}

	maxAltitude := cfg.MaxAltitudeFt
	if maxAltitude <= 0 {
		maxAltitude = MaxAltitudeFt
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = PollingInterval
	}
	tick := cfg.Tick
	if tick <= 0 {
		tick = time.Second
	}

	r := &Reconciler{
		flightplans: cfg.Flightplans,
		aircraft:    cfg.Aircraft,
		tags:        cfg.Tags,
		stands:      cfg.Stands,
		maxAltitude: maxAltitude,
		tagID:       tagID,
		logger:      log,
	}
	r.poller = poller.New(poller.Config{
		Name:  "gate",
		Tick:  tick,
		Every: int(interval / tick),
	}, r, log)

	log.Info("Gate assigner initialized", logger.String("tag_id", tagID))
	return r, nil
}

// StartPoller starts the background loop, no-op if already running
func (r *Reconciler) StartPoller() { r.poller.Start() }

// StopPoller stops the background loop and waits for it to exit
func (r *Reconciler) StopPoller() { r.poller.Stop() }

// Prepare implements poller.Task. The airport list is fetched once per
// loop; a failed or empty list ends the loop.
func (r *Reconciler) Prepare(ctx context.Context) error {
	airports, err := r.stands.SupportedAirports(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch supported airports: %w", err)
	}
	if len(airports) == 0 {
		return ErrNoSupportedAirports
	}

	r.airports = make(map[string]struct{}, len(airports))
	for _, icao := range airports {
		r.airports[icao] = struct{}{}
	}
	r.logger.Info("Supported airports", logger.String("icaos", strings.Join(airports, ", ")))
	return nil
}

// Cycle implements poller.Task
func (r *Reconciler) Cycle(ctx context.Context) {
	start := time.Now()
	flightplans := r.flightplans.GetAll()
	assigned := 0

	for _, fp := range flightplans {
		if ctx.Err() != nil {
			return
		}
		if !r.eligible(fp) {
			continue
		}
		if r.assign(ctx, fp) {
			assigned++
		}
	}

	metrics.ObserveCycle("gate", time.Since(start))
	r.logger.Debug("Gate cycle complete",
		logger.Int("flightplans", len(flightplans)),
		logger.Int("assigned", assigned),
		logger.Duration("duration", time.Since(start)))
}

// eligible reports whether fp is an arrival at a supported airport whose
// aircraft is tracked below the altitude ceiling
func (r *Reconciler) eligible(fp flightdata.Flightplan) bool {
	if _, ok := r.airports[fp.Destination]; !ok {
		return false
	}
	pos, ok := r.aircraft.GetByCallsign(fp.Callsign)
	if !ok {
		return false
	}
	return pos.Altitude < r.maxAltitude
}

func (r *Reconciler) assign(ctx context.Context, fp flightdata.Flightplan) bool {
	r.logger.Debug("Requesting gate",
		logger.String("callsign", fp.Callsign),
		logger.String("origin", fp.Origin),
		logger.String("destination", fp.Destination),
		logger.String("wake_category", fp.WakeCategory))

	stand, err := r.stands.QueryStand(ctx, gateway.StandQuery{
		Callsign:     fp.Callsign,
		Origin:       fp.Origin,
		Destination:  fp.Destination,
		WakeCategory: fp.WakeCategory,
	})
	if err != nil {
		if gateway.KindOf(err) != gateway.KindLookupMiss && ctx.Err() == nil {
			r.logger.Error("Gate query failed, skipping flight this cycle",
				logger.String("callsign", fp.Callsign), logger.Error(err))
		}
		return false
	}

	if err := r.tags.UpdateTagValue(r.tagID, fp.Callsign, stand, nil); err != nil {
		r.logger.Error("Failed to update gate tag",
			logger.String("callsign", fp.Callsign), logger.Error(err))
		metrics.RecordTagWrite(TagName, "error")
		return false
	}
	metrics.RecordTagWrite(TagName, "stand")
	r.logger.Debug("Assigned gate",
		logger.String("callsign", fp.Callsign), logger.String("stand", stand))
	return true
}
