package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/physics"
	"github.com/blagnacoscope/blagnacoscope/internal/refdata"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
)

// Aggregator folds one sub-flight into a single runway event
type Aggregator struct {
	runwayAzimuthDeg float64
	lowLabel         string
	highLabel        string
	directionCutoff  float64
	tables           *refdata.Tables
	location         *time.Location
}

// NewAggregator creates an aggregator for the given runway azimuth. The two
// direction labels come from the azimuth and its reciprocal rounded to tens,
// e.g. 142.8 yields "14" and "32". The hour bucket is formatted in the
// station's local timezone; a nil location means UTC.
func NewAggregator(runwayAzimuthDeg float64, tables *refdata.Tables, location *time.Location) *Aggregator {
	if location == nil {
		location = time.UTC
	}
	reciprocal := physics.ReciprocalHeading(runwayAzimuthDeg)
	return &Aggregator{
		runwayAzimuthDeg: runwayAzimuthDeg,
		lowLabel:         fmt.Sprintf("%02d", int(math.Round(runwayAzimuthDeg/10))),
		highLabel:        fmt.Sprintf("%02d", int(math.Round(reciprocal/10))),
		directionCutoff:  (runwayAzimuthDeg + 180) / 2,
		tables:           tables,
		location:         location,
	}
}

// Aggregate reduces a sub-flight to its runway event. The sub-flight must
// have at least one ping; the first ping in time order supplies the aircraft
// metadata.
func (a *Aggregator) Aggregate(sf SubFlight) RunwayEvent {
	first := sf.Pings[0]

	meanVS := meanVerticalSpeed(sf.Pings)
	heading := modalHeading(sf.Pings)

	kind := EventKindLanding
	if meanVS >= 0 {
		kind = EventKindTakeoff
	}

	direction := a.highLabel
	if float64(heading) <= a.directionCutoff {
		direction = a.lowLabel
	}

	// The connecting airport is the far end of the flight relative to the
	// station: where a takeoff is headed, where a landing came from.
	connecting := "N/A"
	switch kind {
	case EventKindTakeoff:
		connecting = a.tables.AirportDisplay(first.DestinationIATA)
	case EventKindLanding:
		connecting = a.tables.AirportDisplay(first.OriginIATA)
	}

	eventTime := first.Timestamp()

	return RunwayEvent{
		Time:        eventTime,
		SubFlightID: sf.ID,
		FRID:        sf.AircraftID,

		Registration: first.Registration,
		Callsign:     first.Callsign,
		Number:       first.Number,
		AircraftCode: first.AircraftCode,
		AirlineIATA:  first.AirlineIATA,
		AirlineICAO:  first.AirlineICAO,
		OriginIATA:   first.OriginIATA,
		DestIATA:     first.DestinationIATA,

		Airline:            a.tables.AirlineDisplay(first.AirlineICAO),
		Aircraft:           a.tables.AircraftDisplay(first.AircraftCode),
		AircraftType:       a.tables.AircraftType(first.AircraftCode),
		OriginAirport:      a.tables.AirportDisplay(first.OriginIATA),
		DestinationAirport: a.tables.AirportDisplay(first.DestinationIATA),
		ConnectingAirport:  connecting,

		EventKind:         kind,
		RunwayDirection:   direction,
		Heading:           heading,
		VerticalSpeedMean: meanVS,
		Hour:              eventTime.In(a.location).Format("2006-01-02 15:00"),
	}
}

func meanVerticalSpeed(pings []tracker.Ping) float64 {
	sum := 0.0
	for _, p := range pings {
		sum += float64(p.VerticalSpeed)
	}
	return sum / float64(len(pings))
}

// modalHeading returns the most frequent heading in the sub-flight. Ties go
// to the heading seen earliest, so reruns over the same pings are stable.
func modalHeading(pings []tracker.Ping) int {
	counts := make(map[int]int, len(pings))
	for _, p := range pings {
		counts[p.Heading]++
	}

	best := 0
	bestCount := 0
	for _, p := range pings {
		if c := counts[p.Heading]; c > bestCount {
			best = p.Heading
			bestCount = c
		}
	}
	return best
}
