package refdata

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// Airport holds reference data for one airport keyed by IATA code
type Airport struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
}

// Aircraft holds reference data for one airframe keyed by ICAO type code
type Aircraft struct {
	Model string `json:"model"`
	Type  string `json:"type"`
}

// Tables holds the in-memory reference tables. Lookups never fail: a code
// absent from the tables falls back to a readable placeholder so enrichment
// stays total.
type Tables struct {
	airlines map[string]string
	airports map[string]Airport
	aircraft map[string]Aircraft
	logger   *logger.Logger
}

// Load reads the three reference tables from their JSON files. A missing or
// unreadable file is an error: serving with silently empty tables would make
// every event look unenriched.
func Load(airlinesPath, airportsPath, aircraftPath string, log *logger.Logger) (*Tables, error) {
	t := &Tables{
		airlines: make(map[string]string),
		airports: make(map[string]Airport),
		aircraft: make(map[string]Aircraft),
		logger:   log.Named("refdata"),
	}

	if err := loadJSON(airlinesPath, &t.airlines); err != nil {
		return nil, fmt.Errorf("failed to load airlines table: %w", err)
	}
	if err := loadJSON(airportsPath, &t.airports); err != nil {
		return nil, fmt.Errorf("failed to load airports table: %w", err)
	}
	if err := loadJSON(aircraftPath, &t.aircraft); err != nil {
		return nil, fmt.Errorf("failed to load aircraft table: %w", err)
	}

	t.logger.Info("Loaded reference tables",
		logger.Int("airlines", len(t.airlines)),
		logger.Int("airports", len(t.airports)),
		logger.Int("aircraft", len(t.aircraft)))

	return t, nil
}

func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Airline returns the airline name for an ICAO code
func (t *Tables) Airline(code string) (string, bool) {
	name, ok := t.airlines[code]
	return name, ok
}

// Airport returns the airport record for an IATA code
func (t *Tables) Airport(code string) (Airport, bool) {
	a, ok := t.airports[code]
	return a, ok
}

// Aircraft returns the aircraft record for an ICAO type code
func (t *Tables) Aircraft(code string) (Aircraft, bool) {
	a, ok := t.aircraft[code]
	return a, ok
}

// AirlineDisplay formats an airline as "Name (CODE)". Unknown codes yield
// " (CODE)" so the code is still visible downstream.
func (t *Tables) AirlineDisplay(code string) string {
	name := t.airlines[code]
	return fmt.Sprintf("%s (%s)", name, code)
}

// AirportDisplay formats an airport as "Name (CODE)". An empty code means
// the feed had no airport at all, shown as "N/A".
func (t *Tables) AirportDisplay(code string) string {
	if code == "" {
		code = "N/A"
	}
	name := t.airports[code].Name
	return fmt.Sprintf("%s (%s)", name, code)
}

// AircraftDisplay formats an aircraft as "Model (CODE)"
func (t *Tables) AircraftDisplay(code string) string {
	model := t.aircraft[code].Model
	return fmt.Sprintf("%s (%s)", model, code)
}

// AircraftType returns the broad airframe category, "Unknown" when the code
// is not in the table or carries no type.
func (t *Tables) AircraftType(code string) string {
	if a, ok := t.aircraft[code]; ok && a.Type != "" {
		return a.Type
	}
	return "Unknown"
}
