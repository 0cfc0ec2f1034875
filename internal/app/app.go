// Package app wires the configured components into a running bridge.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/co-france/internal/api"
	"github.com/yegors/co-france/internal/config"
	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/gate"
	"github.com/yegors/co-france/internal/gateway"
	"github.com/yegors/co-france/internal/metrics"
	"github.com/yegors/co-france/internal/oceanic"
	"github.com/yegors/co-france/internal/plugin"
	"github.com/yegors/co-france/internal/storage/sqlite"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// App is a configured CoFrance host bridge
type App struct {
	cfg    *config.Config
	logger *logger.Logger
	store  *flightdata.Store
	tags   tags.Store
	plugin *plugin.Plugin
	db     *sql.DB
	server *http.Server
}

// New builds every component and initializes the plugin. Pollers start
// only when plugin.connect_on_start is set.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	metrics.Register()

	a := &App{
		cfg:    cfg,
		logger: log.Named("app"),
		store:  flightdata.NewStore(),
	}

	if err := a.openTags(); err != nil {
		return nil, err
	}

	client := gateway.NewClient(cfg.Gateway.Timeout(), cfg.Gateway.UserAgent, log)
	a.plugin = plugin.New(log)
	deps := plugin.Dependencies{
		Store:  a.store,
		Tags:   a.tags,
		Stands: gateway.NewGateService(client, cfg.Gate.APIBaseURL),
		Feed:   gateway.NewClearanceService(client, cfg.Oceanic.APIBaseURL),
		Gate: plugin.GateOptions{
			Enabled: cfg.Gate.Enabled,
			Config: gate.Config{
				Interval:      time.Duration(cfg.Gate.PollingIntervalSeconds) * time.Second,
				MaxAltitudeFt: cfg.Gate.MaxAltitudeFt,
			},
		},
		Oceanic: plugin.OceanicOptions{
			Enabled: cfg.Oceanic.Enabled,
			Config: oceanic.Config{
				Interval: time.Duration(cfg.Oceanic.PollingIntervalSeconds) * time.Second,
			},
		},
	}
	if err := a.plugin.Initialize(deps, cfg.Plugin.ConnectOnStart); err != nil {
		a.closeDB()
		return nil, fmt.Errorf("failed to initialize plugin: %w", err)
	}

	router := api.NewRouter(a.store, a.tags, a.plugin, cfg.Server, log)
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) openTags() error {
	path := a.cfg.Storage.SQLitePath
	if path == "" {
		a.logger.Info("Keeping tag values in memory")
		a.tags = tags.NewMemoryStore()
		return nil
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	storage, err := sqlite.NewTagStorage(db, a.logger)
	if err != nil {
		db.Close()
		return err
	}
	a.logger.Info("Persisting tag values", logger.String("sqlite_path", path))
	a.db = db
	a.tags = storage
	return nil
}

// Handler returns the bridge HTTP handler
func (a *App) Handler() http.Handler { return a.server.Handler }

// Plugin returns the initialized plugin
func (a *App) Plugin() *plugin.Plugin { return a.plugin }

// Run serves the bridge on ln until ctx is cancelled, then shuts the
// plugin down. A nil ln listens on the configured address.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.Addr)
		if err != nil {
			a.shutdownPlugin()
			return fmt.Errorf("failed to listen on %s: %w", a.cfg.Server.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Host bridge listening", logger.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("HTTP shutdown incomplete", logger.Error(err))
		}
		return nil
	})

	err := g.Wait()
	a.shutdownPlugin()
	return err
}

func (a *App) shutdownPlugin() {
	a.plugin.Shutdown()
	a.closeDB()
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("Failed to close tag database", logger.Error(err))
	}
	a.db = nil
}
