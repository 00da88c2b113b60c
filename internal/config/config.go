package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig   `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig  `toml:"logging"`  // Application logging settings
	Storage  StorageConfig  `toml:"storage"`  // Data persistence settings
	Station  StationConfig  `toml:"station"`  // Monitored airport reference point
	Geometry GeometryConfig `toml:"geometry"` // Runway corridor geometry settings
	Pipeline PipelineConfig `toml:"pipeline"` // Event pipeline thresholds
	Tracker  TrackerConfig  `toml:"tracker"`  // Live feed polling settings
	Wind     WindConfig     `toml:"wind"`     // Wind observation series settings
	RefData  RefDataConfig  `toml:"refdata"`  // Reference table paths
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // Origins allowed for CORS requests (["*"] for all)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Keep-alive idle timeout
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type       string `toml:"type"`        // Storage backend type (currently only "sqlite" is supported)
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite database file
}

// StationConfig describes the monitored airport's reference point
type StationConfig struct {
	AirportCode string  `toml:"airport_code"` // ICAO code of the airport (e.g., "LFBO")
	CenterLat   float64 `toml:"center_lat"`   // Latitude of the airport reference point, decimal degrees
	CenterLon   float64 `toml:"center_lon"`   // Longitude of the airport reference point, decimal degrees
	Timezone    string  `toml:"timezone"`     // IANA timezone for local-time bucketing (e.g., "Europe/Paris"; default "UTC")
}

// GeometryConfig describes the runway corridor zone
type GeometryConfig struct {
	RunwayAzimuthDeg float64 `toml:"runway_azimuth_deg"` // Runway axis heading in degrees (e.g., 142.8)
	MagneticAzimuth  bool    `toml:"magnetic_azimuth"`   // Treat runway_azimuth_deg as magnetic; correct to true at startup
	ZoneLongAxisM    float64 `toml:"zone_long_axis_m"`   // Corridor half-length along the runway axis, meters
	ZoneShortAxisM   float64 `toml:"zone_short_axis_m"`  // Corridor full width across the runway axis, meters
}

// PipelineConfig contains the event pipeline thresholds
type PipelineConfig struct {
	SubFlightGapSeconds       int64   `toml:"sub_flight_gap_seconds"`       // Gap above which a ping sequence splits into a new sub-flight
	RunwayHeadingToleranceDeg float64 `toml:"runway_heading_tolerance_deg"` // Max deviation from the folded runway axis, degrees
	MaxRunwayAltitudeFt       int     `toml:"max_runway_altitude_ft"`       // Pings at or above this altitude are never runway candidates
	MinGroundSpeedKts         int     `toml:"min_ground_speed_kts"`         // Minimum ground speed to be considered airborne
	RefreshIntervalSecs       int     `toml:"refresh_interval_seconds"`     // Periodic re-aggregation interval for the event stream (0 = disabled)
	RefreshWindowSecs         int64   `toml:"refresh_window_seconds"`       // Trailing window re-aggregated on each refresh
}

// TrackerConfig contains the live feed polling settings
type TrackerConfig struct {
	Enabled            bool    `toml:"enabled"`                 // Enable the ingest loop (disable for offline/batch-only use)
	FeedURL            string  `toml:"feed_url"`                // URL template for the live feed with a %s placeholder for bounds
	FetchIntervalSecs  int     `toml:"fetch_interval_seconds"`  // How often to poll the feed
	BoundsRadiusM      float64 `toml:"bounds_radius_m"`         // Radius of the square bounding box around the station, meters
	RequestTimeoutSecs int     `toml:"request_timeout_seconds"` // HTTP timeout per feed request
	MaxRetries         int     `toml:"max_retries"`             // Retry attempts per fetch window (429s honor Retry-After)
}

// WindConfig contains wind observation series settings
type WindConfig struct {
	Enabled            bool   `toml:"enabled"`                 // Enable wind correlation
	BaseURL            string `toml:"base_url"`                // ASOS/METAR CSV endpoint (IEM request format)
	Station            string `toml:"station"`                 // Reporting station identifier (e.g., "LFBO")
	CachePath          string `toml:"cache_path"`              // Local CSV cache for fetched observations
	RequestTimeoutSecs int    `toml:"request_timeout_seconds"` // HTTP timeout per request
	MaxRetries         int    `toml:"max_retries"`             // Retry attempts with exponential backoff
}

// RefDataConfig contains paths to the static reference tables
type RefDataConfig struct {
	AirlinesPath string `toml:"airlines_path"` // Path to airlines JSON (ICAO code -> name)
	AirportsPath string `toml:"airports_path"` // Path to airports JSON (IATA code -> record)
	AircraftPath string `toml:"aircraft_path"` // Path to aircraft JSON (ICAO type code -> record)
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration, applying defaults where a section
// allows them. Geometry errors are configuration errors and must fail here,
// at startup, not during per-ping processing.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required when storage type is sqlite")
	}

	if err := c.ValidateStation(); err != nil {
		return err
	}
	if err := c.ValidateGeometry(); err != nil {
		return err
	}
	if err := c.ValidatePipeline(); err != nil {
		return err
	}
	if err := c.ValidateTracker(); err != nil {
		return err
	}
	if err := c.ValidateWind(); err != nil {
		return err
	}

	if c.RefData.AirlinesPath == "" || c.RefData.AirportsPath == "" || c.RefData.AircraftPath == "" {
		return fmt.Errorf("refdata airlines_path, airports_path and aircraft_path are all required")
	}

	return nil
}

// ValidateStation validates the station configuration
func (c *Config) ValidateStation() error {
	if c.Station.CenterLat < -90 || c.Station.CenterLat > 90 {
		return fmt.Errorf("invalid station latitude: %f", c.Station.CenterLat)
	}
	if c.Station.CenterLon < -180 || c.Station.CenterLon > 180 {
		return fmt.Errorf("invalid station longitude: %f", c.Station.CenterLon)
	}
	if c.Station.AirportCode == "" {
		return fmt.Errorf("airport_code is required")
	}
	if c.Station.Timezone == "" {
		c.Station.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Station.Timezone); err != nil {
		return fmt.Errorf("invalid station timezone %q: %w", c.Station.Timezone, err)
	}
	return nil
}

// ValidateGeometry validates the runway corridor geometry. Degenerate axes
// would produce a self-degenerate polygon, so they are fatal here.
func (c *Config) ValidateGeometry() error {
	if c.Geometry.RunwayAzimuthDeg < 0 || c.Geometry.RunwayAzimuthDeg >= 360 {
		return fmt.Errorf("invalid runway azimuth: %f (must be in [0, 360))", c.Geometry.RunwayAzimuthDeg)
	}
	if c.Geometry.ZoneLongAxisM <= 0 {
		return fmt.Errorf("invalid zone_long_axis_m: %f (must be positive)", c.Geometry.ZoneLongAxisM)
	}
	if c.Geometry.ZoneShortAxisM <= 0 {
		return fmt.Errorf("invalid zone_short_axis_m: %f (must be positive)", c.Geometry.ZoneShortAxisM)
	}
	return nil
}

// ValidatePipeline validates pipeline thresholds and applies defaults
func (c *Config) ValidatePipeline() error {
	if c.Pipeline.SubFlightGapSeconds == 0 {
		c.Pipeline.SubFlightGapSeconds = 180
	}
	if c.Pipeline.SubFlightGapSeconds < 0 {
		return fmt.Errorf("invalid sub_flight_gap_seconds: %d", c.Pipeline.SubFlightGapSeconds)
	}
	if c.Pipeline.RunwayHeadingToleranceDeg == 0 {
		c.Pipeline.RunwayHeadingToleranceDeg = 5
	}
	if c.Pipeline.RunwayHeadingToleranceDeg < 0 || c.Pipeline.RunwayHeadingToleranceDeg >= 90 {
		return fmt.Errorf("invalid runway_heading_tolerance_deg: %f", c.Pipeline.RunwayHeadingToleranceDeg)
	}
	if c.Pipeline.MaxRunwayAltitudeFt == 0 {
		c.Pipeline.MaxRunwayAltitudeFt = 10000
	}
	if c.Pipeline.MaxRunwayAltitudeFt < 0 {
		return fmt.Errorf("invalid max_runway_altitude_ft: %d", c.Pipeline.MaxRunwayAltitudeFt)
	}
	if c.Pipeline.MinGroundSpeedKts == 0 {
		c.Pipeline.MinGroundSpeedKts = 20
	}
	if c.Pipeline.MinGroundSpeedKts < 0 {
		return fmt.Errorf("invalid min_ground_speed_kts: %d", c.Pipeline.MinGroundSpeedKts)
	}
	if c.Pipeline.RefreshIntervalSecs < 0 {
		return fmt.Errorf("invalid refresh_interval_seconds: %d", c.Pipeline.RefreshIntervalSecs)
	}
	if c.Pipeline.RefreshWindowSecs == 0 {
		c.Pipeline.RefreshWindowSecs = 3600
	}
	return nil
}

// ValidateTracker validates the live feed polling settings
func (c *Config) ValidateTracker() error {
	if !c.Tracker.Enabled {
		return nil
	}
	if c.Tracker.FeedURL == "" {
		return fmt.Errorf("tracker feed_url is required when tracker is enabled")
	}
	if c.Tracker.FetchIntervalSecs <= 0 {
		c.Tracker.FetchIntervalSecs = 30
	}
	if c.Tracker.BoundsRadiusM <= 0 {
		c.Tracker.BoundsRadiusM = 15000
	}
	if c.Tracker.RequestTimeoutSecs <= 0 {
		c.Tracker.RequestTimeoutSecs = 10
	}
	if c.Tracker.MaxRetries < 0 {
		return fmt.Errorf("tracker max_retries must be 0 or greater")
	}
	return nil
}

// ValidateWind validates the wind series settings
func (c *Config) ValidateWind() error {
	if !c.Wind.Enabled {
		return nil
	}
	if c.Wind.BaseURL == "" {
		return fmt.Errorf("wind base_url is required when wind is enabled")
	}
	if c.Wind.Station == "" {
		c.Wind.Station = c.Station.AirportCode
	}
	if c.Wind.RequestTimeoutSecs <= 0 {
		c.Wind.RequestTimeoutSecs = 30
	}
	if c.Wind.MaxRetries < 0 {
		return fmt.Errorf("wind max_retries must be 0 or greater")
	}
	return nil
}
