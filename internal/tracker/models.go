package tracker

import (
	"math"
	"time"
)

// Ping is one recorded position/state report for an aircraft. Pings are
// append-only: once stored they are never mutated.
type Ping struct {
	ID              int64   `json:"id,omitempty"`
	FRID            string  `json:"fr_id"`
	ICAO24          string  `json:"icao_24bit,omitempty"`
	Lat             float64 `json:"latitude"`
	Lon             float64 `json:"longitude"`
	Heading         int     `json:"heading"`
	Altitude        int     `json:"altitude"`
	GroundSpeed     int     `json:"ground_speed"`
	VerticalSpeed   int     `json:"vertical_speed"`
	OnGround        bool    `json:"on_ground"`
	Squawk          string  `json:"squawk,omitempty"`
	AircraftCode    string  `json:"aircraft_code"`
	Registration    string  `json:"registration"`
	Time            int64   `json:"time"`
	OriginIATA      string  `json:"origin_airport_iata"`
	DestinationIATA string  `json:"destination_airport_iata"`
	Number          string  `json:"number"`
	AirlineIATA     string  `json:"airline_iata"`
	AirlineICAO     string  `json:"airline_icao"`
	Callsign        string  `json:"callsign"`
}

// Timestamp returns the ping time as a time.Time in UTC
func (p Ping) Timestamp() time.Time {
	return time.Unix(p.Time, 0).UTC()
}

// Valid reports whether the ping carries the minimum viable fields. Invalid
// pings are excluded at ingestion, never fatal to a batch.
func (p Ping) Valid() bool {
	if p.FRID == "" || p.Time <= 0 {
		return false
	}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return false
	}
	return true
}

// RawFeedData represents the raw JSON payload from the live feed source
type RawFeedData struct {
	Now     int64        `json:"now"`
	Flights []FeedFlight `json:"flights"`
}

// FeedFlight is a single aircraft entry in the raw feed payload. The feed
// reports on_ground as a 0/1 integer.
type FeedFlight struct {
	ID              string  `json:"id"`
	ICAO24          string  `json:"icao_24bit"`
	Lat             float64 `json:"latitude"`
	Lon             float64 `json:"longitude"`
	Heading         int     `json:"heading"`
	Altitude        int     `json:"altitude"`
	GroundSpeed     int     `json:"ground_speed"`
	VerticalSpeed   int     `json:"vertical_speed"`
	OnGround        int     `json:"on_ground"`
	Squawk          string  `json:"squawk"`
	AircraftCode    string  `json:"aircraft_code"`
	Registration    string  `json:"registration"`
	Time            int64   `json:"time"`
	OriginIATA      string  `json:"origin_airport_iata"`
	DestinationIATA string  `json:"destination_airport_iata"`
	Number          string  `json:"number"`
	AirlineIATA     string  `json:"airline_iata"`
	AirlineICAO     string  `json:"airline_icao"`
	Callsign        string  `json:"callsign"`
}

// ToPing converts a feed entry into a stored ping
func (f FeedFlight) ToPing() Ping {
	heading := f.Heading % 360
	if heading < 0 {
		heading += 360
	}
	return Ping{
		FRID:            f.ID,
		ICAO24:          f.ICAO24,
		Lat:             f.Lat,
		Lon:             f.Lon,
		Heading:         heading,
		Altitude:        f.Altitude,
		GroundSpeed:     f.GroundSpeed,
		VerticalSpeed:   f.VerticalSpeed,
		OnGround:        f.OnGround != 0,
		Squawk:          f.Squawk,
		AircraftCode:    f.AircraftCode,
		Registration:    f.Registration,
		Time:            f.Time,
		OriginIATA:      f.OriginIATA,
		DestinationIATA: f.DestinationIATA,
		Number:          f.Number,
		AirlineIATA:     f.AirlineIATA,
		AirlineICAO:     f.AirlineICAO,
		Callsign:        f.Callsign,
	}
}

// FetchWindow records one attempted acquisition window. The coverage log is
// what lets downstream consumers tell "never retrieved" apart from
// "legitimately empty".
type FetchWindow struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"` // "ok" or "error"
	PingCount int       `json:"ping_count"`
}

// Fetch window statuses
const (
	FetchStatusOK    = "ok"
	FetchStatusError = "error"
)

// Storage is the record store interface the tracker writes to
type Storage interface {
	InsertPings(pings []Ping) (int, error)
	RecordFetchWindow(w FetchWindow) error
}
