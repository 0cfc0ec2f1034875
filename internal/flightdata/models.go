package flightdata

// Flightplan is a filed flight plan as held by the host
type Flightplan struct {
	Callsign        string `json:"callsign"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	Route           string `json:"route"`
	WakeCategory    string `json:"wake_category"`
	PlannedAltitude int    `json:"planned_altitude"` // feet
	IsValid         bool   `json:"is_valid"`
}

// AircraftPosition is the latest tracked position of an aircraft
type AircraftPosition struct {
	Callsign string `json:"callsign"`
	Altitude int    `json:"altitude"` // feet
}

// ControllerHeldClearance is controller-entered data for a flight.
// ClearedFlightLevel is in feet, 0 when no level has been assigned.
type ControllerHeldClearance struct {
	Callsign           string `json:"callsign"`
	ClearedFlightLevel int    `json:"cleared_flight_level"`
}

// FlightplanSource returns a snapshot of every known flight plan
type FlightplanSource interface {
	GetAll() []Flightplan
}

// AircraftSource looks up the tracked position of a callsign
type AircraftSource interface {
	GetByCallsign(callsign string) (AircraftPosition, bool)
}

// ControllerDataSource looks up controller-held data for a callsign
type ControllerDataSource interface {
	GetByCallsign(callsign string) (ControllerHeldClearance, bool)
}
