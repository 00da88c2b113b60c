package physics

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	KnotsToMs   = 0.514444 // Conversion factor from Knots to m/s
	MsToKnots   = 1.94384  // Conversion factor from m/s to Knots
	MetersPerNM = 1852.0   // Meters in one nautical mile
	FeetToM     = 0.3048   // Conversion factor from feet to meters
)

// NormalizeHeading wraps a heading into [0, 360)
func NormalizeHeading(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// FoldHeading folds a heading onto the [0, 180) half-circle, so both
// reciprocal runway directions map to the same axis value. The result is
// always non-negative, including for inputs just below 0 or 360.
func FoldHeading(deg float64) float64 {
	m := math.Mod(deg, 180)
	if m < 0 {
		m += 180
	}
	return m
}

// ReciprocalHeading returns the opposite runway direction
func ReciprocalHeading(deg float64) float64 {
	return NormalizeHeading(deg + 180)
}

// MetersToNM converts meters to nautical miles
func MetersToNM(meters float64) float64 {
	return meters / MetersPerNM
}

// NMToMeters converts nautical miles to meters
func NMToMeters(nm float64) float64 {
	return nm * MetersPerNM
}

// MagneticVariation calculates the magnetic declination for a given position
// and time. Returns declination in degrees (+East, -West).
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * FeetToM

	loc := egm96.NewLocationGeodetic(lat, lon, altM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		// Return 0 for safety if calculation fails
		return 0.0
	}

	return mag.D()
}

// MagneticToTrue converts a magnetic heading at the given position to a true
// heading using the current WMM declination.
func MagneticToTrue(magHeading, lat, lon, altFt float64, date time.Time) float64 {
	return NormalizeHeading(magHeading + MagneticVariation(lat, lon, altFt, date))
}
