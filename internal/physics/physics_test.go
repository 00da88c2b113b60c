package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeading(t *testing.T) {
	assert.InDelta(t, 0, NormalizeHeading(0), 1e-9)
	assert.InDelta(t, 0, NormalizeHeading(360), 1e-9)
	assert.InDelta(t, 5, NormalizeHeading(365), 1e-9)
	assert.InDelta(t, 350, NormalizeHeading(-10), 1e-9)
	assert.InDelta(t, 142.8, NormalizeHeading(142.8), 1e-9)
}

func TestFoldHeading(t *testing.T) {
	assert.InDelta(t, 142.8, FoldHeading(142.8), 1e-9)
	assert.InDelta(t, 142.8, FoldHeading(322.8), 1e-9)
	assert.InDelta(t, 0, FoldHeading(180), 1e-9)
	assert.InDelta(t, 0, FoldHeading(360), 1e-9)
	assert.InDelta(t, 170, FoldHeading(-10), 1e-9)
	assert.GreaterOrEqual(t, FoldHeading(-0.0001), 0.0)
}

func TestReciprocalHeading(t *testing.T) {
	assert.InDelta(t, 322.8, ReciprocalHeading(142.8), 1e-9)
	assert.InDelta(t, 142.8, ReciprocalHeading(322.8), 1e-9)
	assert.InDelta(t, 180, ReciprocalHeading(0), 1e-9)
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 1, MetersToNM(1852), 1e-9)
	assert.InDelta(t, 1852, NMToMeters(1), 1e-9)
	assert.InDelta(t, 10, MetersToNM(NMToMeters(10)), 1e-9)
}
