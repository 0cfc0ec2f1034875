package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/plugin"
	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Session is the plugin lifecycle driven by the bridge
type Session interface {
	Connect() error
	Disconnect() error
	Connected() bool
	Metadata() plugin.Metadata
}

// Handler serves the host bridge endpoints
type Handler struct {
	store   *flightdata.Store
	tags    tags.Reader
	session Session
	logger  *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(store *flightdata.Store, tagReader tags.Reader, session Session, log *logger.Logger) *Handler {
	return &Handler{
		store:   store,
		tags:    tagReader,
		session: session,
		logger:  log.Named("api"),
	}
}

// PluginResponse is the body of GET /plugin
type PluginResponse struct {
	plugin.Metadata
	Connected bool `json:"connected"`
}

// TagResponse is the body of GET /tags/{name}
type TagResponse struct {
	TagID      string          `json:"tag_id"`
	Definition tags.Definition `json:"definition"`
	Values     []tags.Entry    `json:"values"`
}

// ListFlightplans returns every flight plan in snapshot order
func (h *Handler) ListFlightplans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.GetAll())
}

// PutFlightplan creates or replaces the flight plan of the path callsign
func (h *Handler) PutFlightplan(w http.ResponseWriter, r *http.Request) {
	var fp flightdata.Flightplan
	callsign, ok := h.decode(w, r, &fp)
	if !ok {
		return
	}
	fp.Callsign = callsign
	h.store.UpsertFlightplan(fp)
	writeJSON(w, http.StatusOK, fp)
}

// DeleteFlightplan drops a flight plan and the data attached to it
func (h *Handler) DeleteFlightplan(w http.ResponseWriter, r *http.Request) {
	callsign := pathCallsign(r)
	if !h.store.RemoveFlightplan(callsign) {
		writeError(w, http.StatusNotFound, "unknown flight plan "+callsign)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutAircraft records the latest tracked position of a callsign
func (h *Handler) PutAircraft(w http.ResponseWriter, r *http.Request) {
	var pos flightdata.AircraftPosition
	callsign, ok := h.decode(w, r, &pos)
	if !ok {
		return
	}
	pos.Callsign = callsign
	h.store.SetAircraft(pos)
	writeJSON(w, http.StatusOK, pos)
}

// PutControllerData records controller-held data for a callsign
func (h *Handler) PutControllerData(w http.ResponseWriter, r *http.Request) {
	var data flightdata.ControllerHeldClearance
	callsign, ok := h.decode(w, r, &data)
	if !ok {
		return
	}
	data.Callsign = callsign
	h.store.SetControllerData(data)
	writeJSON(w, http.StatusOK, data)
}

// GetTag returns the current values of a registered tag
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id, def, ok := h.tags.LookupTag(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tag "+name)
		return
	}
	values, err := h.tags.Values(id)
	if err != nil {
		h.logger.Error("Failed to read tag values", logger.String("tag", name), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read tag values")
		return
	}
	if values == nil {
		values = []tags.Entry{}
	}
	writeJSON(w, http.StatusOK, TagResponse{TagID: id, Definition: def, Values: values})
}

// Connect signals a host connection
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.Connect)
}

// Disconnect signals a host disconnection
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.transition(w, h.session.Disconnect)
}

// GetPlugin returns the plugin metadata and connection state
func (h *Handler) GetPlugin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PluginResponse{
		Metadata:  h.session.Metadata(),
		Connected: h.session.Connected(),
	})
}

// GetHealth is the liveness probe
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) transition(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		h.logger.Warn("Session transition rejected", logger.Error(err))
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.GetPlugin(w, nil)
}

// decode reads a JSON body into v and returns the path callsign. On
// failure the response has already been written.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) (string, bool) {
	callsign := pathCallsign(r)
	if callsign == "" {
		writeError(w, http.StatusBadRequest, "callsign is required")
		return "", false
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return "", false
	}
	return callsign, true
}

func pathCallsign(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "callsign")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
