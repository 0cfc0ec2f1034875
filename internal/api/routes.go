package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yegors/co-france/internal/config"
	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

// Router is the host bridge router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     config.ServerConfig
}

// NewRouter creates a new host bridge router
func NewRouter(store *flightdata.Store, tagReader tags.Reader, session Session, cfg config.ServerConfig, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(store, tagReader, session, log),
		middleware: NewMiddleware(log),
		config:     cfg,
	}
}

// Routes returns the HTTP handler for the bridge
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		// Host data feeds
		router.Get("/flightplans", r.handler.ListFlightplans)
		router.Put("/flightplans/{callsign}", r.handler.PutFlightplan)
		router.Delete("/flightplans/{callsign}", r.handler.DeleteFlightplan)
		router.Put("/aircraft/{callsign}", r.handler.PutAircraft)
		router.Put("/controller-data/{callsign}", r.handler.PutControllerData)

		// Tag readback
		router.Get("/tags/{name}", r.handler.GetTag)

		// Connection transitions
		router.Post("/session/connect", r.handler.Connect)
		router.Post("/session/disconnect", r.handler.Disconnect)

		router.Get("/plugin", r.handler.GetPlugin)
		router.Get("/health", r.handler.GetHealth)
	})

	router.Handle("/metrics", promhttp.Handler())

	return router
}
