// Package geometry computes the geodesic runway corridor zone and point
// membership tests. All projections use the WGS84 ellipsoid: at the 15 km
// scale of the corridor a spherical or flat-plane approximation drifts by
// more than the runway width.
package geometry

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"

	"github.com/blagnacoscope/blagnacoscope/internal/physics"
)

// Point is a geographic coordinate in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Polygon is a closed ring of vertices. The ring is implicit: the last
// vertex connects back to the first.
type Polygon []Point

// Zone is the runway corridor polygon together with the parameters it was
// built from
type Zone struct {
	Center     Point   `json:"center"`
	AzimuthDeg float64 `json:"azimuth_deg"`
	LongAxisM  float64 `json:"long_axis_m"`
	ShortAxisM float64 `json:"short_axis_m"`
	Polygon    Polygon `json:"polygon"`
}

// forward projects a point along an azimuth for a distance on the WGS84
// ellipsoid
func forward(p Point, azimuthDeg, distM float64) Point {
	var lat, lon float64
	geodesic.WGS84.Direct(p.Lat, p.Lon, azimuthDeg, distM, &lat, &lon, nil)
	return Point{Lat: lat, Lon: lon}
}

// ComputeZone builds the rectangle-like corridor polygon: the two ends are
// projected from the center along the azimuth and its reciprocal at
// longAxisM, then each end is offset perpendicularly by shortAxisM/2 on both
// sides. The two ends' offsets are traversed in mirrored order so the quad
// does not self-intersect.
func ComputeZone(centerLat, centerLon, azimuthDeg, longAxisM, shortAxisM float64) (*Zone, error) {
	if longAxisM <= 0 {
		return nil, fmt.Errorf("zone long axis must be positive, got %f", longAxisM)
	}
	if shortAxisM <= 0 {
		return nil, fmt.Errorf("zone short axis must be positive, got %f", shortAxisM)
	}
	if azimuthDeg < 0 || azimuthDeg >= 360 {
		return nil, fmt.Errorf("azimuth must be in [0, 360), got %f", azimuthDeg)
	}

	center := Point{Lat: centerLat, Lon: centerLon}
	oppAzimuth := physics.ReciprocalHeading(azimuthDeg)
	half := shortAxisM / 2

	a := forward(center, oppAzimuth, longAxisM)
	a1 := forward(a, oppAzimuth+90, half)
	a2 := forward(a, oppAzimuth-90, half)

	b := forward(center, azimuthDeg, longAxisM)
	b1 := forward(b, azimuthDeg+90, half)
	b2 := forward(b, azimuthDeg-90, half)

	// a1 and b2 sit on the same side of the axis (opp+90 == az-90), so the
	// ring a1 -> a2 -> b1 -> b2 walks the perimeter without crossing itself.
	return &Zone{
		Center:     center,
		AzimuthDeg: azimuthDeg,
		LongAxisM:  longAxisM,
		ShortAxisM: shortAxisM,
		Polygon:    Polygon{a1, a2, b1, b2},
	}, nil
}

// Contains reports whether the point is inside the zone polygon. Points on
// the boundary are inside.
func (z *Zone) Contains(lat, lon float64) bool {
	return z.Polygon.Contains(Point{Lat: lat, Lon: lon})
}

// Contains reports whether the point is inside the polygon, boundary
// inclusive, using a ray cast with an explicit on-segment check.
func (p Polygon) Contains(pt Point) bool {
	n := len(p)
	if n < 3 {
		return false
	}

	inside := false
	for i := 0; i < n; i++ {
		a := p[i]
		b := p[(i+1)%n]

		if onSegment(a, b, pt) {
			return true
		}

		if (a.Lat > pt.Lat) != (b.Lat > pt.Lat) {
			lonAtLat := a.Lon + (pt.Lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
			if pt.Lon < lonAtLat {
				inside = !inside
			}
		}
	}
	return inside
}

// segEpsilon bounds the collinearity cross product for the on-segment test.
// In degrees squared; ~1e-12 corresponds to sub-meter slack at mid-latitudes.
const segEpsilon = 1e-12

// onSegment reports whether pt lies on the segment a-b
func onSegment(a, b, pt Point) bool {
	cross := (b.Lon-a.Lon)*(pt.Lat-a.Lat) - (b.Lat-a.Lat)*(pt.Lon-a.Lon)
	if math.Abs(cross) > segEpsilon {
		return false
	}
	return pt.Lat >= math.Min(a.Lat, b.Lat) && pt.Lat <= math.Max(a.Lat, b.Lat) &&
		pt.Lon >= math.Min(a.Lon, b.Lon) && pt.Lon <= math.Max(a.Lon, b.Lon)
}

// BoundingBox returns the south, north, west, east extents of a square box
// of the given radius around a center point, computed by projecting to the
// box corners along the 315 and 135 azimuths. Used to build feed queries.
func BoundingBox(centerLat, centerLon, radiusM float64) (south, north, west, east float64) {
	diag := radiusM * math.Sqrt2
	nw := forward(Point{Lat: centerLat, Lon: centerLon}, 315, diag)
	se := forward(Point{Lat: centerLat, Lon: centerLon}, 135, diag)
	return se.Lat, nw.Lat, nw.Lon, se.Lon
}

// Distance returns the geodesic distance in meters between two points
func Distance(a, b Point) float64 {
	var s12 float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &s12, nil, nil)
	return s12
}
