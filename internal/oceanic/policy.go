package oceanic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yegors/co-france/internal/flightdata"
	"github.com/yegors/co-france/internal/gateway"
	"github.com/yegors/co-france/internal/tags"
)

// EntryPoints are the Brest oceanic entry fixes. A route mentioning any of
// them makes the flight a candidate for the oceanic flag.
var EntryPoints = []string{"REGHI", "UMLER", "LAPEX", "BUNAV", "RIVAK", "ETIKI", "SEPAL", "SIVIR", "LARLA"}

// destinationPattern matches the Americas and the French overseas
// territories served through the Brest oceanic boundary
var destinationPattern = regexp.MustCompile(`^(?:[KCPTSMN][A-Z]{3}|LFVP|LFVM)$`)

const statusCleared = "CLEARED"

// Flag is the display value and color for one flight
type Flag struct {
	Value string
	Color tags.Color
}

var flagNone = Flag{Value: "", Color: tags.ColorDefault}

// Snapshot is the clearance feed as fetched at the start of one cycle.
// It is read-only for the duration of the cycle.
type Snapshot []gateway.ClearanceRecord

// ClearedLevel returns the cleared level in feet of the first record for
// callsign with status CLEARED. Records with a missing or unparsable level
// count as no clearance.
func (s Snapshot) ClearedLevel(callsign string) (int, bool) {
	for _, rec := range s {
		if rec.Callsign != callsign || rec.Status != statusCleared {
			continue
		}
		level, err := strconv.Atoi(strings.TrimSpace(rec.Level))
		if err != nil {
			return 0, false
		}
		return level * 100, true
	}
	return 0, false
}

// HeldLevel is the controller-assigned level when one is held, the filed
// cruise level otherwise
func HeldLevel(fp flightdata.Flightplan, data flightdata.ControllerHeldClearance, ok bool) int {
	if ok && data.ClearedFlightLevel != 0 {
		return data.ClearedFlightLevel
	}
	return fp.PlannedAltitude
}

// RouteCrossesOcean reports whether route mentions an oceanic entry point
func RouteCrossesOcean(route string) bool {
	upper := strings.ToUpper(route)
	for _, fix := range EntryPoints {
		if strings.Contains(upper, fix) {
			return true
		}
	}
	return false
}

// OceanicDestination reports whether icao is a destination that requires
// an oceanic clearance
func OceanicDestination(icao string) bool {
	return destinationPattern.MatchString(icao)
}

// Classify decides the oceanic flag of one flight. held is the level in
// feet the flight is currently expected to fly.
func Classify(fp flightdata.Flightplan, held int, snapshot Snapshot) Flag {
	if !fp.IsValid || !RouteCrossesOcean(fp.Route) {
		return flagNone
	}

	if cleared, ok := snapshot.ClearedLevel(fp.Callsign); ok {
		if held == cleared {
			return Flag{Value: "OCL", Color: tags.ColorCleared}
		}
		return Flag{Value: "LCHG" + strconv.Itoa(cleared/1000), Color: tags.ColorCleared}
	}

	if OceanicDestination(fp.Destination) {
		return Flag{Value: "OCL", Color: tags.ColorAwaiting}
	}
	return flagNone
}
