// Package oceanic flags flights crossing the Brest oceanic boundary with
// their oceanic clearance status.
package oceanic

import (
	"context"
	"fmt"
	"time"

	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/gateway"
	"github.com/yegors/co-france/internal/metrics"
	"github.com/yegors/co-france/internal/poller"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

const (
	// TagName is the registered name of the oceanic flag tag
	TagName = "oceanic_flag"
	// PollingInterval is the default time between cycles
	PollingInterval = 60 * time.Second
)

// ClearanceFetcher returns the current oceanic clearance feed
type ClearanceFetcher interface {
	Clearances(ctx context.Context) ([]gateway.ClearanceRecord, error)
}

// Config holds the collaborators and timing of a Reconciler
type Config struct {
	Flightplans    flightdata.FlightplanSource
	ControllerData flightdata.ControllerDataSource
	Tags           tags.Sink
	Clearances     ClearanceFetcher
	// Interval defaults to PollingInterval, Tick to one second
	Interval time.Duration
	Tick     time.Duration
}

// Reconciler writes the oceanic flag of every flight plan once per cycle
type Reconciler struct {
	flightplans    flightdata.FlightplanSource
	controllerData flightdata.ControllerDataSource
	tags           tags.Sink
	clearances     ClearanceFetcher
	tagID          string
	poller         *poller.Poller
	logger         *logger.Logger
}

// New registers the oceanic flag tag and returns a stopped reconciler
func New(cfg Config, log *logger.Logger) (*Reconciler, error) {
	log = log.Named("oceanic")
	log.Info("Initializing oceanic clearance")

	tagID, err := cfg.Tags.RegisterTagDefinition(tags.Definition{
		Name:         TagName,
		DefaultValue: "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register %s tag: %w", TagName, err)
	}

	r := &Reconciler{
		flightplans:    cfg.Flightplans,
		controllerData: cfg.ControllerData,
		tags:           cfg.Tags,
		clearances:     cfg.Clearances,
		tagID:          tagID,
		logger:         log,
	}
	r.poller = poller.New(pollerConfig(cfg.Interval, cfg.Tick), r, log)

	log.Info("Oceanic clearance initialized", logger.String("tag_id", tagID))
	return r, nil
}

func pollerConfig(interval, tick time.Duration) poller.Config {
	if interval <= 0 {
		interval = PollingInterval
	}
	if tick <= 0 {
		tick = time.Second
	}
	every := int(interval / tick)
	return poller.Config{Name: "oceanic", Tick: tick, Every: every}
}

// StartPoller starts the background loop, no-op if already running
func (r *Reconciler) StartPoller() { r.poller.Start() }

// StopPoller stops the background loop and waits for it to exit
func (r *Reconciler) StopPoller() { r.poller.Stop() }

// Prepare implements poller.Task. The oceanic loop needs no setup.
func (r *Reconciler) Prepare(ctx context.Context) error { return nil }

// Cycle implements poller.Task
func (r *Reconciler) Cycle(ctx context.Context) {
	start := time.Now()
	snapshot := r.fetchSnapshot(ctx)

	flightplans := r.flightplans.GetAll()
	written := 0
	for _, fp := range flightplans {
		if ctx.Err() != nil {
			return
		}
		data, ok := r.controllerData.GetByCallsign(fp.Callsign)
		flag := Classify(fp, HeldLevel(fp, data, ok), snapshot)
		if r.write(fp.Callsign, flag) {
			written++
		}
	}

	metrics.ObserveCycle("oceanic", time.Since(start))
	r.logger.Debug("Oceanic cycle complete",
		logger.Int("flightplans", len(flightplans)),
		logger.Int("clearances", len(snapshot)),
		logger.Int("written", written),
		logger.Duration("duration", time.Since(start)))
}

// fetchSnapshot returns an empty snapshot when the feed is unavailable so
// every flight falls through to the no-clearance branch
func (r *Reconciler) fetchSnapshot(ctx context.Context) Snapshot {
	records, err := r.clearances.Clearances(ctx)
	if err != nil {
		r.logger.Warn("Clearance feed unavailable, treating as empty", logger.Error(err))
		return Snapshot{}
	}
	return Snapshot(records)
}

func (r *Reconciler) write(callsign string, flag Flag) bool {
	color := flag.Color
	if err := r.tags.UpdateTagValue(r.tagID, callsign, flag.Value, &color); err != nil {
		r.logger.Error("Failed to update oceanic flag",
			logger.String("callsign", callsign), logger.Error(err))
		metrics.RecordTagWrite(TagName, "error")
		return false
	}
	metrics.RecordTagWrite(TagName, resultClass(flag.Value))
	r.logger.Debug("Updated oceanic flag",
		logger.String("callsign", callsign), logger.String("value", flag.Value))
	return true
}

func resultClass(value string) string {
	switch {
	case value == "":
		return "clear"
	case value == "OCL":
		return "ocl"
	default:
		return "lchg"
	}
}
