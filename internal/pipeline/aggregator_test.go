package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blagnacoscope/blagnacoscope/internal/refdata"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

func testTables(t *testing.T) *refdata.Tables {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	airlines := write("airlines.json", `{"AFR": "Air France"}`)
	airports := write("airports.json", `{
		"TLS": {"name": "Toulouse Blagnac Airport", "latitude": 43.6287, "longitude": 1.3642, "country": "France"},
		"ORY": {"name": "Paris Orly Airport", "latitude": 48.7262, "longitude": 2.3652, "country": "France"}
	}`)
	aircraft := write("aircraft.json", `{"A320": {"model": "Airbus A320", "type": "Jet"}}`)

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	tables, err := refdata.Load(airlines, airports, aircraft, log)
	require.NoError(t, err)
	return tables
}

func testSubFlight(vs []int, headings []int) SubFlight {
	pings := make([]tracker.Ping, len(vs))
	for i := range vs {
		h := 142
		if i < len(headings) {
			h = headings[i]
		}
		pings[i] = tracker.Ping{
			FRID:            "abc123",
			Heading:         h,
			VerticalSpeed:   vs[i],
			Time:            int64(1000 + 30*i),
			Registration:    "F-HBNK",
			Callsign:        "AFR123",
			Number:          "AF6123",
			AircraftCode:    "A320",
			AirlineIATA:     "AF",
			AirlineICAO:     "AFR",
			OriginIATA:      "TLS",
			DestinationIATA: "ORY",
		}
	}
	return SubFlight{ID: "abc123_0", AircraftID: "abc123", Seq: 0, Pings: pings}
}

func TestAggregateEventKind(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	takeoff := agg.Aggregate(testSubFlight([]int{2, 3, 4, 5}, nil))
	assert.Equal(t, EventKindTakeoff, takeoff.EventKind)
	assert.InDelta(t, 3.5, takeoff.VerticalSpeedMean, 1e-9)

	landing := agg.Aggregate(testSubFlight([]int{-2, -1, 0}, nil))
	assert.Equal(t, EventKindLanding, landing.EventKind)

	// Zero mean counts as a takeoff
	flat := agg.Aggregate(testSubFlight([]int{0, 0}, nil))
	assert.Equal(t, EventKindTakeoff, flat.EventKind)
}

func TestAggregateModalHeadingAndDirection(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	ev := agg.Aggregate(testSubFlight([]int{1, 1, 1, 1}, []int{140, 142, 142, 320}))
	assert.Equal(t, 142, ev.Heading)
	assert.Equal(t, "14", ev.RunwayDirection)

	reciprocal := agg.Aggregate(testSubFlight([]int{1, 1}, []int{322, 322}))
	assert.Equal(t, "32", reciprocal.RunwayDirection)
}

func TestAggregateModalHeadingTieBreak(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	// 140 and 322 tie at two each; the earlier one wins
	ev := agg.Aggregate(testSubFlight([]int{1, 1, 1, 1}, []int{140, 322, 140, 322}))
	assert.Equal(t, 140, ev.Heading)
}

func TestAggregateEnrichment(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	ev := agg.Aggregate(testSubFlight([]int{5}, nil))
	assert.Equal(t, "Air France (AFR)", ev.Airline)
	assert.Equal(t, "Airbus A320 (A320)", ev.Aircraft)
	assert.Equal(t, "Jet", ev.AircraftType)
	assert.Equal(t, "Toulouse Blagnac Airport (TLS)", ev.OriginAirport)
	assert.Equal(t, "Paris Orly Airport (ORY)", ev.DestinationAirport)
}

func TestAggregateUnknownCodes(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	sf := testSubFlight([]int{5}, nil)
	sf.Pings[0].AirlineICAO = "EZY"
	sf.Pings[0].AircraftCode = "B738"
	sf.Pings[0].OriginIATA = ""

	ev := agg.Aggregate(sf)
	assert.Equal(t, " (EZY)", ev.Airline)
	assert.Equal(t, " (B738)", ev.Aircraft)
	assert.Equal(t, "Unknown", ev.AircraftType)
	assert.Equal(t, " (N/A)", ev.OriginAirport)
}

func TestAggregateConnectingAirport(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	takeoff := agg.Aggregate(testSubFlight([]int{5}, nil))
	assert.Equal(t, "Paris Orly Airport (ORY)", takeoff.ConnectingAirport)

	landing := agg.Aggregate(testSubFlight([]int{-5}, nil))
	assert.Equal(t, "Toulouse Blagnac Airport (TLS)", landing.ConnectingAirport)

	blank := testSubFlight([]int{5}, nil)
	blank.Pings[0].DestinationIATA = ""
	ev := agg.Aggregate(blank)
	assert.Equal(t, " (N/A)", ev.ConnectingAirport)
}

func TestAggregateAirlineUsesICAOCode(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	// The airlines table is ICAO-keyed; the IATA code must not leak into
	// the lookup even when both are present.
	sf := testSubFlight([]int{5}, nil)
	sf.Pings[0].AirlineIATA = "AF"
	sf.Pings[0].AirlineICAO = "AFR"

	ev := agg.Aggregate(sf)
	assert.Equal(t, "Air France (AFR)", ev.Airline)
	assert.Equal(t, "AF", ev.AirlineIATA)
	assert.Equal(t, "AFR", ev.AirlineICAO)
}

func TestAggregateHourInStationTimezone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	agg := NewAggregator(142.8, testTables(t), paris)

	sf := testSubFlight([]int{5}, nil)
	// 21:30 UTC on a summer day is 23:30 in Paris (CEST, UTC+2)
	sf.Pings[0].Time = time.Date(2026, 7, 15, 21, 30, 0, 0, time.UTC).Unix()

	ev := agg.Aggregate(sf)
	assert.Equal(t, "2026-07-15 23:00", ev.Hour)

	// A nil location falls back to UTC
	utcAgg := NewAggregator(142.8, testTables(t), nil)
	ev = utcAgg.Aggregate(sf)
	assert.Equal(t, "2026-07-15 21:00", ev.Hour)
}

func TestAggregateMetadataFromFirstPing(t *testing.T) {
	agg := NewAggregator(142.8, testTables(t), time.UTC)

	sf := testSubFlight([]int{5, 5}, nil)
	sf.Pings[1].Callsign = "CHANGED"

	ev := agg.Aggregate(sf)
	assert.Equal(t, "AFR123", ev.Callsign)
	assert.Equal(t, "abc123_0", ev.SubFlightID)
	assert.Equal(t, sf.Pings[0].Timestamp(), ev.Time)
	assert.Equal(t, sf.Pings[0].Timestamp().Format("2006-01-02 15:00"), ev.Hour)
}
