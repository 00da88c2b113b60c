package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blagnacoscope/blagnacoscope/internal/geometry"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
)

func testFilter(t *testing.T) *Filter {
	t.Helper()
	zone, err := geometry.ComputeZone(43.6287, 1.3642, 142.8, 15000, 800)
	require.NoError(t, err)
	return NewFilter(zone, 142.8, 5, 10000, 20)
}

func airbornePing() tracker.Ping {
	return tracker.Ping{
		FRID:        "abc123",
		Lat:         43.6287,
		Lon:         1.3642,
		Heading:     142,
		Altitude:    1500,
		GroundSpeed: 160,
		OnGround:    false,
	}
}

func TestIsAirborne(t *testing.T) {
	f := testFilter(t)

	assert.True(t, f.IsAirborne(airbornePing()))

	taxiing := airbornePing()
	taxiing.OnGround = true
	assert.False(t, f.IsAirborne(taxiing))

	slow := airbornePing()
	slow.GroundSpeed = 19
	assert.False(t, f.IsAirborne(slow))

	atThreshold := airbornePing()
	atThreshold.GroundSpeed = 20
	assert.True(t, f.IsAirborne(atThreshold))
}

func TestIsRunwayCandidate(t *testing.T) {
	f := testFilter(t)

	assert.True(t, f.IsRunwayCandidate(airbornePing()))

	reciprocal := airbornePing()
	reciprocal.Heading = 322
	assert.True(t, f.IsRunwayCandidate(reciprocal), "reciprocal runway heading should match")

	crossing := airbornePing()
	crossing.Heading = 90
	assert.False(t, f.IsRunwayCandidate(crossing))

	overflying := airbornePing()
	overflying.Altitude = 10000
	assert.False(t, f.IsRunwayCandidate(overflying), "altitude ceiling is exclusive")
}

func TestInZone(t *testing.T) {
	f := testFilter(t)

	assert.True(t, f.InZone(airbornePing()))

	far := airbornePing()
	far.Lat = 44.5
	far.Lon = 2.5
	assert.False(t, f.InZone(far))
}

func TestApplyPreservesOrder(t *testing.T) {
	f := testFilter(t)

	p1 := airbornePing()
	p1.Time = 1000
	p2 := airbornePing()
	p2.Time = 1030
	outOfZone := airbornePing()
	outOfZone.Lat = 44.5

	got := f.Apply([]tracker.Ping{p1, outOfZone, p2})
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].Time)
	assert.Equal(t, int64(1030), got[1].Time)
}
