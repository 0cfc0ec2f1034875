// Package plugin owns both reconcilers and maps host connection
// transitions onto their pollers.
package plugin

import (
	"fmt"
	"sync"

	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/gate"
	"github.com/yegors/co-france/internal/oceanic"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

// Version is set at build time with -ldflags "-X .../plugin.Version=..."
var Version = "no_version"

// Metadata describes the plugin to its host
type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Author  string `json:"author"`
}

// Reconciler is the lifecycle surface both reconcilers expose
type Reconciler interface {
	StartPoller()
	StopPoller()
}

// Dependencies are the collaborators handed to the reconcilers
type Dependencies struct {
	Store   *flightdata.Store
	Tags    tags.Sink
	Stands  gate.StandService
	Feed    oceanic.ClearanceFetcher
	Gate    GateOptions
	Oceanic OceanicOptions
}

// GateOptions tunes the gate reconciler. A disabled reconciler is not built.
type GateOptions struct {
	Enabled bool
	gate.Config
}

// OceanicOptions tunes the oceanic reconciler. A disabled reconciler is
// not built.
type OceanicOptions struct {
	Enabled bool
	oceanic.Config
}

// Plugin bundles the reconcilers behind the host lifecycle
type Plugin struct {
	logger *logger.Logger

	mu          sync.Mutex
	initialized bool
	connected   bool
	reconcilers []Reconciler
}

// New returns an uninitialized plugin
func New(log *logger.Logger) *Plugin {
	return &Plugin{logger: log.Named("plugin")}
}

// Metadata returns the plugin identity
func (p *Plugin) Metadata() Metadata {
	return Metadata{Name: "CoFrance", Version: Version, Author: "French VACC"}
}

// Initialize builds the reconcilers, registering their tags. If the host
// is already connected the pollers start right away.
func (p *Plugin) Initialize(deps Dependencies, connected bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return fmt.Errorf("plugin already initialized")
	}
	p.logger.Info("Initializing CoFrance", logger.String("version", Version))

	var reconcilers []Reconciler
	if deps.Gate.Enabled {
		cfg := deps.Gate.Config
		cfg.Flightplans = deps.Store
		cfg.Aircraft = deps.Store.Aircraft()
		cfg.Tags = deps.Tags
		cfg.Stands = deps.Stands
		r, err := gate.New(cfg, p.logger)
		if err != nil {
			return err
		}
		reconcilers = append(reconcilers, r)
	}
	if deps.Oceanic.Enabled {
		cfg := deps.Oceanic.Config
		cfg.Flightplans = deps.Store
		cfg.ControllerData = deps.Store.ControllerData()
		cfg.Tags = deps.Tags
		cfg.Clearances = deps.Feed
		r, err := oceanic.New(cfg, p.logger)
		if err != nil {
			return err
		}
		reconcilers = append(reconcilers, r)
	}

	p.reconcilers = reconcilers
	p.initialized = true
	if connected {
		p.connectLocked()
	}
	p.logger.Info("CoFrance initialized successfully", logger.Int("reconcilers", len(reconcilers)))
	return nil
}

// Connect starts every poller. Repeated calls are harmless.
func (p *Plugin) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("plugin not initialized")
	}
	p.connectLocked()
	return nil
}

// Disconnect stops every poller and waits for them to exit
func (p *Plugin) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return fmt.Errorf("plugin not initialized")
	}
	p.disconnectLocked()
	return nil
}

// Shutdown stops the pollers and releases the reconcilers
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	p.disconnectLocked()
	p.reconcilers = nil
	p.initialized = false
	p.logger.Info("CoFrance shutdown complete")
}

// Connected reports the last connection transition seen by the plugin
func (p *Plugin) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *Plugin) connectLocked() {
	for _, r := range p.reconcilers {
		r.StartPoller()
	}
	if !p.connected {
		p.logger.Info("Connected, pollers started")
	}
	p.connected = true
}

func (p *Plugin) disconnectLocked() {
	for _, r := range p.reconcilers {
		r.StopPoller()
	}
	if p.connected {
		p.logger.Info("Disconnected, pollers stopped")
	}
	p.connected = false
}
