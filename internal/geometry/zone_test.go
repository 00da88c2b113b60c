package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lfboLat = 43.6287
	lfboLon = 1.3642
)

func lfboZone(t *testing.T) *Zone {
	t.Helper()
	zone, err := ComputeZone(lfboLat, lfboLon, 142.8, 15000, 800)
	require.NoError(t, err)
	return zone
}

func TestComputeZoneCorners(t *testing.T) {
	zone := lfboZone(t)
	require.Len(t, zone.Polygon, 4)

	center := Point{Lat: lfboLat, Lon: lfboLon}
	expected := Distance(center, forward(forward(center, 142.8, 15000), 142.8+90, 400))

	for i, corner := range zone.Polygon {
		d := Distance(center, corner)
		assert.InDelta(t, expected, d, 5.0, "corner %d distance", i)
	}

	// Opposite ends of the long axis are ~30km apart
	endToEnd := Distance(zone.Polygon[0], zone.Polygon[3])
	assert.InDelta(t, 30000, endToEnd, 50)
}

func TestComputeZoneValidation(t *testing.T) {
	_, err := ComputeZone(lfboLat, lfboLon, 142.8, 0, 800)
	assert.Error(t, err)

	_, err = ComputeZone(lfboLat, lfboLon, 142.8, 15000, -1)
	assert.Error(t, err)

	_, err = ComputeZone(lfboLat, lfboLon, 360, 15000, 800)
	assert.Error(t, err)
}

func TestZoneContains(t *testing.T) {
	zone := lfboZone(t)

	// Center and points along the runway axis are inside
	assert.True(t, zone.Contains(lfboLat, lfboLon))

	onAxis := forward(Point{Lat: lfboLat, Lon: lfboLon}, 142.8, 10000)
	assert.True(t, zone.Contains(onAxis.Lat, onAxis.Lon))

	reciprocal := forward(Point{Lat: lfboLat, Lon: lfboLon}, 322.8, 10000)
	assert.True(t, zone.Contains(reciprocal.Lat, reciprocal.Lon))

	// Beyond the corridor end
	beyond := forward(Point{Lat: lfboLat, Lon: lfboLon}, 142.8, 20000)
	assert.False(t, zone.Contains(beyond.Lat, beyond.Lon))

	// Abeam the corridor, past the half width
	abeam := forward(Point{Lat: lfboLat, Lon: lfboLon}, 142.8+90, 1000)
	assert.False(t, zone.Contains(abeam.Lat, abeam.Lon))

	inWidth := forward(Point{Lat: lfboLat, Lon: lfboLon}, 142.8+90, 300)
	assert.True(t, zone.Contains(inWidth.Lat, inWidth.Lon))
}

func TestPolygonContainsBoundary(t *testing.T) {
	square := Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 0},
	}

	assert.True(t, square.Contains(Point{Lat: 0.5, Lon: 0.5}))

	// Vertices and edges are inside
	assert.True(t, square.Contains(Point{Lat: 0, Lon: 0}))
	assert.True(t, square.Contains(Point{Lat: 0, Lon: 0.5}))
	assert.True(t, square.Contains(Point{Lat: 0.5, Lon: 1}))

	assert.False(t, square.Contains(Point{Lat: 1.5, Lon: 0.5}))
	assert.False(t, square.Contains(Point{Lat: 0.5, Lon: -0.1}))
}

func TestPolygonContainsDegenerate(t *testing.T) {
	assert.False(t, Polygon{}.Contains(Point{}))
	assert.False(t, Polygon{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}.Contains(Point{Lat: 0.5, Lon: 0.5}))
}

func TestBoundingBox(t *testing.T) {
	south, north, west, east := BoundingBox(lfboLat, lfboLon, 15000)

	assert.Less(t, south, lfboLat)
	assert.Greater(t, north, lfboLat)
	assert.Less(t, west, lfboLon)
	assert.Greater(t, east, lfboLon)

	// The box edge sits one radius from the center
	edge := Distance(Point{Lat: lfboLat, Lon: lfboLon}, Point{Lat: north, Lon: lfboLon})
	assert.InDelta(t, 15000, edge, 100)
}

func TestDistance(t *testing.T) {
	a := Point{Lat: lfboLat, Lon: lfboLon}
	b := forward(a, 90, 5000)
	assert.InDelta(t, 5000, Distance(a, b), 0.01)
	assert.InDelta(t, 0, Distance(a, a), 1e-9)
}
