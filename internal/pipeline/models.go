package pipeline

import (
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
)

// Event kinds for a runway movement
const (
	EventKindTakeoff = "takeoff"
	EventKindLanding = "landing"
)

// SubFlight is one contiguous run of pings from a single aircraft. A new
// sub-flight starts whenever the gap between consecutive pings exceeds the
// configured threshold, so an aircraft flying the same rotation twice in a
// day produces two sub-flights.
type SubFlight struct {
	ID         string
	AircraftID string
	Seq        int
	Pings      []tracker.Ping
}

// Start returns the time of the first ping
func (sf *SubFlight) Start() time.Time {
	return sf.Pings[0].Timestamp()
}

// RunwayEvent is one aggregated takeoff or landing
type RunwayEvent struct {
	Time        time.Time `json:"time"`
	SubFlightID string    `json:"sub_flight_id"`
	FRID        string    `json:"fr_id"`

	Registration string `json:"registration"`
	Callsign     string `json:"callsign"`
	Number       string `json:"number"`
	AircraftCode string `json:"aircraft_code"`
	AirlineIATA  string `json:"airline_iata"`
	AirlineICAO  string `json:"airline_icao"`
	OriginIATA   string `json:"origin_airport_iata"`
	DestIATA     string `json:"destination_airport_iata"`

	Airline            string `json:"airline"`
	Aircraft           string `json:"aircraft"`
	AircraftType       string `json:"aircraft_type"`
	OriginAirport      string `json:"origin_airport"`
	DestinationAirport string `json:"destination_airport"`
	ConnectingAirport  string `json:"connecting_airport"`

	EventKind         string  `json:"event_kind"`
	RunwayDirection   string  `json:"runway_direction"`
	Heading           int     `json:"heading"`
	VerticalSpeedMean float64 `json:"vertical_speed_mean"`
	Hour              string  `json:"hour"`
	Truncated         bool    `json:"truncated"`
}
