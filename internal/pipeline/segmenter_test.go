package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
)

func ping(frID string, ts int64) tracker.Ping {
	return tracker.Ping{FRID: frID, Lat: 43.63, Lon: 1.36, Heading: 142, Time: ts}
}

func TestSegmentSplitsOnGap(t *testing.T) {
	seg := NewSegmenter(3 * time.Minute)

	subFlights := seg.Segment([]tracker.Ping{
		ping("abc123", 1000),
		ping("abc123", 1185),
		ping("abc123", 1190),
	})

	require.Len(t, subFlights, 2)
	assert.Equal(t, "abc123_0", subFlights[0].ID)
	assert.Len(t, subFlights[0].Pings, 1)
	assert.Equal(t, "abc123_1", subFlights[1].ID)
	assert.Len(t, subFlights[1].Pings, 2)
}

func TestSegmentExactGapStaysTogether(t *testing.T) {
	seg := NewSegmenter(3 * time.Minute)

	subFlights := seg.Segment([]tracker.Ping{
		ping("abc123", 1000),
		ping("abc123", 1180),
	})

	require.Len(t, subFlights, 1)
	assert.Equal(t, "abc123_0", subFlights[0].ID)
	assert.Len(t, subFlights[0].Pings, 2)
}

func TestSegmentSortsWithinAircraft(t *testing.T) {
	seg := NewSegmenter(3 * time.Minute)

	subFlights := seg.Segment([]tracker.Ping{
		ping("abc123", 1100),
		ping("abc123", 1000),
		ping("abc123", 1050),
	})

	require.Len(t, subFlights, 1)
	times := []int64{
		subFlights[0].Pings[0].Time,
		subFlights[0].Pings[1].Time,
		subFlights[0].Pings[2].Time,
	}
	assert.Equal(t, []int64{1000, 1050, 1100}, times)
}

func TestSegmentSeparatesAircraft(t *testing.T) {
	seg := NewSegmenter(3 * time.Minute)

	subFlights := seg.Segment([]tracker.Ping{
		ping("zzz999", 1000),
		ping("abc123", 1000),
		ping("zzz999", 5000),
	})

	require.Len(t, subFlights, 3)
	assert.Equal(t, "abc123_0", subFlights[0].ID)
	assert.Equal(t, "zzz999_0", subFlights[1].ID)
	assert.Equal(t, "zzz999_1", subFlights[2].ID)
}

func TestSegmentEmpty(t *testing.T) {
	seg := NewSegmenter(3 * time.Minute)
	assert.Empty(t, seg.Segment(nil))
}
