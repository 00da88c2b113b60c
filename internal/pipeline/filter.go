package pipeline

import (
	"math"

	"github.com/blagnacoscope/blagnacoscope/internal/geometry"
	"github.com/blagnacoscope/blagnacoscope/internal/physics"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
)

// Filter decides which pings represent plausible runway traffic near the
// station. All thresholds come from configuration.
type Filter struct {
	zone                *geometry.Zone
	runwayAxisDeg       float64
	headingToleranceDeg float64
	maxAltitudeFt       int
	minGroundSpeedKts   int
}

// NewFilter creates a filter for the given zone and runway axis
func NewFilter(zone *geometry.Zone, runwayAzimuthDeg, headingToleranceDeg float64, maxAltitudeFt, minGroundSpeedKts int) *Filter {
	return &Filter{
		zone:                zone,
		runwayAxisDeg:       physics.FoldHeading(runwayAzimuthDeg),
		headingToleranceDeg: headingToleranceDeg,
		maxAltitudeFt:       maxAltitudeFt,
		minGroundSpeedKts:   minGroundSpeedKts,
	}
}

// IsAirborne reports whether a ping shows the aircraft actually flying,
// excluding taxi traffic that the feed occasionally marks as airborne.
func (f *Filter) IsAirborne(p tracker.Ping) bool {
	return !p.OnGround && p.GroundSpeed >= f.minGroundSpeedKts
}

// IsRunwayCandidate reports whether an airborne ping is aligned with the
// runway axis (either direction) below the altitude ceiling.
func (f *Filter) IsRunwayCandidate(p tracker.Ping) bool {
	if !f.IsAirborne(p) {
		return false
	}
	if p.Altitude >= f.maxAltitudeFt {
		return false
	}
	folded := physics.FoldHeading(float64(p.Heading))
	return math.Abs(folded-f.runwayAxisDeg) < f.headingToleranceDeg
}

// InZone reports whether the ping lies inside the airport zone, boundary
// included.
func (f *Filter) InZone(p tracker.Ping) bool {
	return f.zone.Contains(p.Lat, p.Lon)
}

// Apply returns the pings that are runway candidates inside the zone,
// preserving input order.
func (f *Filter) Apply(pings []tracker.Ping) []tracker.Ping {
	var out []tracker.Ping
	for _, p := range pings {
		if f.IsRunwayCandidate(p) && f.InZone(p) {
			out = append(out, p)
		}
	}
	return out
}
