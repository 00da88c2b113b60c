package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/geometry"
	"github.com/blagnacoscope/blagnacoscope/internal/websocket"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// Service periodically polls the live feed and appends pings to the record
// store, logging every attempted window into the coverage log.
type Service struct {
	client        *Client
	storage       Storage
	fetchInterval time.Duration
	bounds        string
	wsServer      *websocket.Server
	logger        *logger.Logger

	mu            sync.RWMutex
	lastFetchTime time.Time
	lastFetchOK   bool

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewService creates a new ingest service. The feed bounding box is derived
// once from the station point and radius.
func NewService(
	client *Client,
	storage Storage,
	fetchInterval time.Duration,
	stationLat, stationLon, boundsRadiusM float64,
	wsServer *websocket.Server,
	log *logger.Logger,
) *Service {
	south, north, west, east := geometry.BoundingBox(stationLat, stationLon, boundsRadiusM)
	bounds := fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", north, south, west, east)

	return &Service{
		client:        client,
		storage:       storage,
		fetchInterval: fetchInterval,
		bounds:        bounds,
		wsServer:      wsServer,
		logger:        log.Named("tracker-service"),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the polling loop
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting tracker service",
		logger.String("bounds", s.bounds),
		logger.Duration("fetch_interval", s.fetchInterval))

	s.wg.Add(1)
	go s.fetchLoop(ctx)
	return nil
}

// Stop gracefully shuts down the polling loop
func (s *Service) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Tracker service stopped")
}

// GetStatus returns the last fetch time and whether it succeeded
func (s *Service) GetStatus() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchTime, s.lastFetchOK
}

// fetchLoop periodically fetches and stores feed snapshots
func (s *Service) fetchLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.fetchInterval)
	defer ticker.Stop()

	// Initial fetch so the store is not empty until the first tick
	s.fetchAndStore(ctx)

	for {
		select {
		case <-ticker.C:
			s.fetchAndStore(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fetchAndStore performs one acquisition window: fetch, validate, insert,
// and record the window in the coverage log whatever the outcome.
func (s *Service) fetchAndStore(ctx context.Context) {
	windowStart := time.Now().UTC()

	pings, err := s.client.FetchPings(ctx, s.bounds)
	windowEnd := time.Now().UTC()

	if err != nil {
		s.logger.Error("Failed to fetch feed snapshot", logger.Error(err))
		s.setStatus(windowEnd, false)
		if werr := s.storage.RecordFetchWindow(FetchWindow{
			Start:  windowStart,
			End:    windowEnd,
			Status: FetchStatusError,
		}); werr != nil {
			s.logger.Error("Failed to record fetch window", logger.Error(werr))
		}
		return
	}

	valid := make([]Ping, 0, len(pings))
	dropped := 0
	for _, p := range pings {
		if !p.Valid() {
			dropped++
			continue
		}
		valid = append(valid, p)
	}
	if dropped > 0 {
		s.logger.Warn("Excluded malformed pings from batch",
			logger.Int("dropped", dropped),
			logger.Int("kept", len(valid)))
	}

	inserted, err := s.storage.InsertPings(valid)
	if err != nil {
		s.logger.Error("Failed to insert pings", logger.Error(err))
		s.setStatus(windowEnd, false)
		_ = s.storage.RecordFetchWindow(FetchWindow{
			Start:  windowStart,
			End:    windowEnd,
			Status: FetchStatusError,
		})
		return
	}

	if err := s.storage.RecordFetchWindow(FetchWindow{
		Start:     windowStart,
		End:       windowEnd,
		Status:    FetchStatusOK,
		PingCount: inserted,
	}); err != nil {
		s.logger.Error("Failed to record fetch window", logger.Error(err))
	}

	s.setStatus(windowEnd, true)
	s.logger.Info("Stored feed snapshot",
		logger.Int("pings", inserted),
		logger.Int("dropped", dropped))

	if s.wsServer != nil {
		s.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypePingsIngested,
			Data: map[string]any{
				"timestamp": windowEnd,
				"pings":     inserted,
				"dropped":   dropped,
			},
		})
	}
}

func (s *Service) setStatus(t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetchTime = t
	s.lastFetchOK = ok
}
