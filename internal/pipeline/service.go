package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/physics"
	"github.com/blagnacoscope/blagnacoscope/internal/storage/sqlite"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
	"github.com/blagnacoscope/blagnacoscope/internal/websocket"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// EventStore is the slice of the record store the pipeline reads from
type EventStore interface {
	RunwayCandidates(from, to time.Time, minGroundSpeed int, headingAxisDeg, toleranceDeg float64, maxAltitudeFt int) ([]tracker.Ping, error)
	Gaps(from, to time.Time, maxGap time.Duration) ([]sqlite.CoverageGap, error)
}

// Service turns stored pings into runway events on demand and on a periodic
// refresh that pushes newly seen events to WebSocket clients.
type Service struct {
	store      EventStore
	filter     *Filter
	segmenter  *Segmenter
	aggregator *Aggregator

	minGroundSpeedKts int
	runwayAxisDeg     float64
	toleranceDeg      float64
	maxAltitudeFt     int
	gap               time.Duration

	refreshInterval time.Duration
	refreshWindow   time.Duration

	wsServer *websocket.Server
	logger   *logger.Logger

	mu    sync.Mutex
	known map[string]bool

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// ServiceConfig bundles the pipeline thresholds
type ServiceConfig struct {
	RunwayAzimuthDeg    float64
	HeadingToleranceDeg float64
	MaxAltitudeFt       int
	MinGroundSpeedKts   int
	SubFlightGap        time.Duration
	RefreshInterval     time.Duration
	RefreshWindow       time.Duration
}

// NewService creates the event pipeline
func NewService(
	store EventStore,
	filter *Filter,
	aggregator *Aggregator,
	cfg ServiceConfig,
	wsServer *websocket.Server,
	log *logger.Logger,
) *Service {
	return &Service{
		store:             store,
		filter:            filter,
		segmenter:         NewSegmenter(cfg.SubFlightGap),
		aggregator:        aggregator,
		minGroundSpeedKts: cfg.MinGroundSpeedKts,
		runwayAxisDeg:     physics.FoldHeading(cfg.RunwayAzimuthDeg),
		toleranceDeg:      cfg.HeadingToleranceDeg,
		maxAltitudeFt:     cfg.MaxAltitudeFt,
		gap:               cfg.SubFlightGap,
		refreshInterval:   cfg.RefreshInterval,
		refreshWindow:     cfg.RefreshWindow,
		wsServer:          wsServer,
		logger:            log.Named("pipeline"),
		known:             make(map[string]bool),
		stopCh:            make(chan struct{}),
	}
}

// Events computes the runway events for a time range. The store does the
// coarse candidate cut in SQL; the filter re-checks each ping and applies
// the zone test before segmentation.
func (s *Service) Events(ctx context.Context, from, to time.Time) ([]RunwayEvent, error) {
	candidates, err := s.store.RunwayCandidates(from, to, s.minGroundSpeedKts, s.runwayAxisDeg, s.toleranceDeg, s.maxAltitudeFt)
	if err != nil {
		return nil, fmt.Errorf("failed to load runway candidates: %w", err)
	}

	inZone := s.filter.Apply(candidates)
	subFlights := s.segmenter.Segment(inZone)

	gaps, err := s.store.Gaps(from, to, s.gap)
	if err != nil {
		return nil, fmt.Errorf("failed to load coverage gaps: %w", err)
	}

	events := make([]RunwayEvent, 0, len(subFlights))
	for _, sf := range subFlights {
		ev := s.aggregator.Aggregate(sf)
		ev.Truncated = s.isTruncated(sf, gaps)
		events = append(events, ev)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})

	return events, nil
}

// isTruncated reports whether a coverage gap touches the sub-flight's span
// expanded by the segmentation gap. Such a sub-flight may have been cut
// short by missing data rather than by the aircraft leaving the zone.
func (s *Service) isTruncated(sf SubFlight, gaps []sqlite.CoverageGap) bool {
	start := sf.Pings[0].Timestamp().Add(-s.gap)
	end := sf.Pings[len(sf.Pings)-1].Timestamp().Add(s.gap)
	for _, g := range gaps {
		if g.Start.Before(end) && g.End.After(start) {
			return true
		}
	}
	return false
}

// Start begins the periodic refresh loop
func (s *Service) Start(ctx context.Context) error {
	if s.refreshInterval <= 0 {
		s.logger.Info("Refresh loop disabled")
		return nil
	}

	s.logger.Info("Starting pipeline service",
		logger.Duration("refresh_interval", s.refreshInterval),
		logger.Duration("refresh_window", s.refreshWindow))

	s.wg.Add(1)
	go s.refreshLoop(ctx)
	return nil
}

// Stop shuts down the refresh loop
func (s *Service) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Pipeline service stopped")
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// refresh recomputes recent events and broadcasts the ones not seen before
func (s *Service) refresh(ctx context.Context) {
	to := time.Now().UTC()
	from := to.Add(-s.refreshWindow)

	events, err := s.Events(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to refresh events", logger.Error(err))
		return
	}

	var fresh []RunwayEvent
	s.mu.Lock()
	for _, ev := range events {
		if !s.known[ev.SubFlightID] {
			s.known[ev.SubFlightID] = true
			fresh = append(fresh, ev)
		}
	}
	s.mu.Unlock()

	if len(fresh) == 0 {
		return
	}

	s.logger.Info("New runway events", logger.Int("count", len(fresh)))
	if s.wsServer != nil {
		for _, ev := range fresh {
			s.wsServer.Broadcast(&websocket.Message{
				Type: websocket.MessageTypeRunwayEvent,
				Data: ev,
			})
		}
	}
}
