package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blagnacoscope/blagnacoscope/internal/storage/sqlite"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

type fakeStore struct {
	pings []tracker.Ping
	gaps  []sqlite.CoverageGap
}

func (f *fakeStore) RunwayCandidates(from, to time.Time, minGS int, axis, tol float64, maxAlt int) ([]tracker.Ping, error) {
	var out []tracker.Ping
	for _, p := range f.pings {
		if p.Time >= from.Unix() && p.Time <= to.Unix() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Gaps(from, to time.Time, maxGap time.Duration) ([]sqlite.CoverageGap, error) {
	return f.gaps, nil
}

func testService(t *testing.T, store EventStore) *Service {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	filter := testFilter(t)
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	return NewService(store, filter, agg, ServiceConfig{
		RunwayAzimuthDeg:    142.8,
		HeadingToleranceDeg: 5,
		MaxAltitudeFt:       10000,
		MinGroundSpeedKts:   20,
		SubFlightGap:        3 * time.Minute,
	}, nil, log)
}

func candidatePing(frID string, ts int64, vs int) tracker.Ping {
	return tracker.Ping{
		FRID:            frID,
		Lat:             43.6287,
		Lon:             1.3642,
		Heading:         142,
		Altitude:        1500,
		GroundSpeed:     160,
		VerticalSpeed:   vs,
		Time:            ts,
		AircraftCode:    "A320",
		AirlineIATA:     "AF",
		OriginIATA:      "TLS",
		DestinationIATA: "ORY",
	}
}

func TestEvents(t *testing.T) {
	store := &fakeStore{pings: []tracker.Ping{
		// One climbing pass, then a later descending pass by the same aircraft
		candidatePing("abc123", 1000, 10),
		candidatePing("abc123", 1030, 12),
		candidatePing("abc123", 9000, -8),
		candidatePing("abc123", 9030, -6),
	}}
	svc := testService(t, store)

	events, err := svc.Events(context.Background(), time.Unix(0, 0), time.Unix(10000, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "abc123_0", events[0].SubFlightID)
	assert.Equal(t, EventKindTakeoff, events[0].EventKind)
	assert.Equal(t, "Paris Orly Airport (ORY)", events[0].ConnectingAirport)

	assert.Equal(t, "abc123_1", events[1].SubFlightID)
	assert.Equal(t, EventKindLanding, events[1].EventKind)
	assert.Equal(t, "Toulouse Blagnac Airport (TLS)", events[1].ConnectingAirport)

	assert.True(t, events[0].Time.Before(events[1].Time))
}

func TestEventsExcludesOutOfZone(t *testing.T) {
	far := candidatePing("far001", 1000, 5)
	far.Lat = 44.5

	store := &fakeStore{pings: []tracker.Ping{
		candidatePing("abc123", 1000, 5),
		far,
	}}
	svc := testService(t, store)

	events, err := svc.Events(context.Background(), time.Unix(0, 0), time.Unix(2000, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "abc123", events[0].FRID)
}

func TestEventsTruncated(t *testing.T) {
	store := &fakeStore{
		pings: []tracker.Ping{
			candidatePing("abc123", 1000, 5),
			candidatePing("abc123", 1030, 5),
		},
		gaps: []sqlite.CoverageGap{
			{Start: time.Unix(1060, 0), End: time.Unix(1500, 0)},
		},
	}
	svc := testService(t, store)

	events, err := svc.Events(context.Background(), time.Unix(0, 0), time.Unix(2000, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Truncated)
}

func TestEventsNotTruncatedWhenGapFar(t *testing.T) {
	store := &fakeStore{
		pings: []tracker.Ping{
			candidatePing("abc123", 1000, 5),
		},
		gaps: []sqlite.CoverageGap{
			{Start: time.Unix(5000, 0), End: time.Unix(6000, 0)},
		},
	}
	svc := testService(t, store)

	events, err := svc.Events(context.Background(), time.Unix(0, 0), time.Unix(10000, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Truncated)
}

func TestEventsEmpty(t *testing.T) {
	svc := testService(t, &fakeStore{})

	events, err := svc.Events(context.Background(), time.Unix(0, 0), time.Unix(2000, 0))
	require.NoError(t, err)
	assert.Empty(t, events)
}
