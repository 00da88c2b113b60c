package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// PingStorage is a SQLite-backed store for feed pings and fetch windows.
type PingStorage struct {
	db     *sql.DB
	dbPath string
	logger *logger.Logger
	mu     sync.Mutex
}

// PeriodCount is one bucket of the ping count aggregation
type PeriodCount struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// CoverageGap is a span of time with no successful fetch window
type CoverageGap struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPingStorage creates a new SQLite storage at the given path. Use
// ":memory:" for an ephemeral database.
func NewPingStorage(dbPath string, log *logger.Logger) (*PingStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite is not safe for concurrent writers on one handle
	db.SetMaxOpenConns(1)

	s := &PingStorage{
		db:     db,
		dbPath: dbPath,
		logger: log.Named("sqlite"),
	}

	if err := s.initDatabase(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// initDatabase sets pragmas and creates the schema
func (s *PingStorage) initDatabase() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA cache_size = 10000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS pings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fr_id TEXT NOT NULL,
		icao_24bit TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		heading INTEGER NOT NULL,
		altitude INTEGER NOT NULL,
		ground_speed INTEGER NOT NULL,
		vertical_speed INTEGER NOT NULL,
		on_ground INTEGER NOT NULL,
		squawk TEXT,
		aircraft_code TEXT,
		registration TEXT,
		time INTEGER NOT NULL,
		origin_airport_iata TEXT,
		destination_airport_iata TEXT,
		number TEXT,
		airline_iata TEXT,
		airline_icao TEXT,
		callsign TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pings_fr_id_time ON pings(fr_id, time);
	CREATE INDEX IF NOT EXISTS idx_pings_time ON pings(time);

	CREATE TABLE IF NOT EXISTS fetch_windows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		status TEXT NOT NULL,
		ping_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_fetch_windows_start ON fetch_windows(start_time);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// InsertPings appends a batch of pings in a single transaction and returns
// the number of rows written.
func (s *PingStorage) InsertPings(pings []tracker.Ping) (int, error) {
	if len(pings) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO pings (
			fr_id, icao_24bit, latitude, longitude, heading, altitude,
			ground_speed, vertical_speed, on_ground, squawk, aircraft_code,
			registration, time, origin_airport_iata, destination_airport_iata,
			number, airline_iata, airline_icao, callsign
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range pings {
		onGround := 0
		if p.OnGround {
			onGround = 1
		}
		if _, err := stmt.Exec(
			p.FRID, p.ICAO24, p.Lat, p.Lon, p.Heading, p.Altitude,
			p.GroundSpeed, p.VerticalSpeed, onGround, p.Squawk, p.AircraftCode,
			p.Registration, p.Time, p.OriginIATA, p.DestinationIATA,
			p.Number, p.AirlineIATA, p.AirlineICAO, p.Callsign,
		); err != nil {
			return 0, fmt.Errorf("failed to insert ping: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// RecordFetchWindow logs one acquisition attempt into the coverage log
func (s *PingStorage) RecordFetchWindow(w tracker.FetchWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO fetch_windows (start_time, end_time, status, ping_count)
		VALUES (?, ?, ?, ?)
	`, w.Start.Unix(), w.End.Unix(), w.Status, w.PingCount)
	if err != nil {
		return fmt.Errorf("failed to record fetch window: %w", err)
	}
	return nil
}

// RunwayCandidates returns pings in the time range that look like runway
// traffic: airborne, fast enough, heading within tolerance of the runway
// axis folded to [0,180), and below the altitude ceiling. Results are
// ordered by aircraft then time so downstream segmentation is stable.
func (s *PingStorage) RunwayCandidates(
	from, to time.Time,
	minGroundSpeed int,
	headingAxisDeg, toleranceDeg float64,
	maxAltitudeFt int,
) ([]tracker.Ping, error) {
	rows, err := s.db.Query(`
		SELECT fr_id, icao_24bit, latitude, longitude, heading, altitude,
		       ground_speed, vertical_speed, on_ground, squawk, aircraft_code,
		       registration, time, origin_airport_iata, destination_airport_iata,
		       number, airline_iata, airline_icao, callsign
		FROM pings
		WHERE time >= ? AND time <= ?
		  AND on_ground = 0
		  AND ground_speed >= ?
		  AND abs((heading % 180) - ?) < ?
		  AND altitude < ?
		ORDER BY fr_id, time
	`, from.Unix(), to.Unix(), minGroundSpeed, headingAxisDeg, toleranceDeg, maxAltitudeFt)
	if err != nil {
		return nil, fmt.Errorf("failed to query runway candidates: %w", err)
	}
	defer rows.Close()

	return scanPings(rows)
}

// PingsByTimeRange returns all pings in the range ordered by aircraft then time
func (s *PingStorage) PingsByTimeRange(from, to time.Time) ([]tracker.Ping, error) {
	rows, err := s.db.Query(`
		SELECT fr_id, icao_24bit, latitude, longitude, heading, altitude,
		       ground_speed, vertical_speed, on_ground, squawk, aircraft_code,
		       registration, time, origin_airport_iata, destination_airport_iata,
		       number, airline_iata, airline_icao, callsign
		FROM pings
		WHERE time >= ? AND time <= ?
		ORDER BY fr_id, time
	`, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	return scanPings(rows)
}

func scanPings(rows *sql.Rows) ([]tracker.Ping, error) {
	var pings []tracker.Ping
	for rows.Next() {
		var p tracker.Ping
		var onGround int
		if err := rows.Scan(
			&p.FRID, &p.ICAO24, &p.Lat, &p.Lon, &p.Heading, &p.Altitude,
			&p.GroundSpeed, &p.VerticalSpeed, &onGround, &p.Squawk, &p.AircraftCode,
			&p.Registration, &p.Time, &p.OriginIATA, &p.DestinationIATA,
			&p.Number, &p.AirlineIATA, &p.AirlineICAO, &p.Callsign,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}
		p.OnGround = onGround != 0
		pings = append(pings, p)
	}
	return pings, rows.Err()
}

// CountsByPeriod aggregates ping counts by hour or minute buckets
func (s *PingStorage) CountsByPeriod(period string) ([]PeriodCount, error) {
	var format string
	switch period {
	case "hour":
		format = "%Y-%m-%d %H:00"
	case "minute":
		format = "%Y-%m-%d %H:%M"
	default:
		return nil, fmt.Errorf("unsupported period %q", period)
	}

	rows, err := s.db.Query(`
		SELECT strftime(?, time, 'unixepoch') AS period, COUNT(*) AS count
		FROM pings
		GROUP BY period
		ORDER BY period
	`, format)
	if err != nil {
		return nil, fmt.Errorf("failed to query ping counts: %w", err)
	}
	defer rows.Close()

	var counts []PeriodCount
	for rows.Next() {
		var c PeriodCount
		if err := rows.Scan(&c.Period, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TotalPings returns the total number of stored pings
func (s *PingStorage) TotalPings() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM pings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pings: %w", err)
	}
	return count, nil
}

// FetchWindows returns the coverage log entries overlapping the time range
func (s *PingStorage) FetchWindows(from, to time.Time) ([]tracker.FetchWindow, error) {
	rows, err := s.db.Query(`
		SELECT start_time, end_time, status, ping_count
		FROM fetch_windows
		WHERE end_time >= ? AND start_time <= ?
		ORDER BY start_time
	`, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch windows: %w", err)
	}
	defer rows.Close()

	var windows []tracker.FetchWindow
	for rows.Next() {
		var w tracker.FetchWindow
		var start, end int64
		if err := rows.Scan(&start, &end, &w.Status, &w.PingCount); err != nil {
			return nil, fmt.Errorf("failed to scan fetch window: %w", err)
		}
		w.Start = time.Unix(start, 0).UTC()
		w.End = time.Unix(end, 0).UTC()
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Gaps returns the spans inside [from, to] not covered by any successful
// fetch window, merging adjacent windows closer than maxGap.
func (s *PingStorage) Gaps(from, to time.Time, maxGap time.Duration) ([]CoverageGap, error) {
	windows, err := s.FetchWindows(from, to)
	if err != nil {
		return nil, err
	}

	var gaps []CoverageGap
	cursor := from
	for _, w := range windows {
		if w.Status != tracker.FetchStatusOK {
			continue
		}
		if w.Start.Sub(cursor) > maxGap {
			gaps = append(gaps, CoverageGap{Start: cursor, End: w.Start})
		}
		if w.End.After(cursor) {
			cursor = w.End
		}
	}
	if to.Sub(cursor) > maxGap {
		gaps = append(gaps, CoverageGap{Start: cursor, End: to})
	}
	return gaps, nil
}

// Close closes the underlying database
func (s *PingStorage) Close() error {
	return s.db.Close()
}
