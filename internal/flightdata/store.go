package flightdata

import (
	"sync"
)

// Store is an in-memory snapshot of host flight data. It is safe for
// concurrent use by the reconcilers and the host bridge.
//
// GetAll returns flight plans in first-insertion order.
type Store struct {
	mu         sync.RWMutex
	order      []string
	plans      map[string]Flightplan
	aircraft   map[string]AircraftPosition
	controller map[string]ControllerHeldClearance
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		plans:      make(map[string]Flightplan),
		aircraft:   make(map[string]AircraftPosition),
		controller: make(map[string]ControllerHeldClearance),
	}
}

// UpsertFlightplan adds or replaces the flight plan for fp.Callsign
func (s *Store) UpsertFlightplan(fp Flightplan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[fp.Callsign]; !exists {
		s.order = append(s.order, fp.Callsign)
	}
	s.plans[fp.Callsign] = fp
}

// RemoveFlightplan drops a flight plan along with its position and
// controller data. It reports whether a flight plan existed.
func (s *Store) RemoveFlightplan(callsign string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.aircraft, callsign)
	delete(s.controller, callsign)
	if _, exists := s.plans[callsign]; !exists {
		return false
	}
	delete(s.plans, callsign)
	for i, cs := range s.order {
		if cs == callsign {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// SetAircraft records the latest position for a callsign
func (s *Store) SetAircraft(pos AircraftPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aircraft[pos.Callsign] = pos
}

// SetControllerData records controller-held data for a callsign
func (s *Store) SetControllerData(data ControllerHeldClearance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller[data.Callsign] = data
}

// GetAll implements FlightplanSource
func (s *Store) GetAll() []Flightplan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Flightplan, 0, len(s.order))
	for _, cs := range s.order {
		out = append(out, s.plans[cs])
	}
	return out
}

// Aircraft returns the store's position lookup
func (s *Store) Aircraft() AircraftSource {
	return aircraftView{s}
}

// ControllerData returns the store's controller data lookup
func (s *Store) ControllerData() ControllerDataSource {
	return controllerView{s}
}

type aircraftView struct{ s *Store }

func (v aircraftView) GetByCallsign(callsign string) (AircraftPosition, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	pos, ok := v.s.aircraft[callsign]
	return pos, ok
}

type controllerView struct{ s *Store }

func (v controllerView) GetByCallsign(callsign string) (ControllerHeldClearance, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	data, ok := v.s.controller[callsign]
	return data, ok
}
