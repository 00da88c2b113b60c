package wind

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// Service keeps an in-memory wind series backed by a CSV cache on disk, and
// extends the series from the archive on demand.
type Service struct {
	client    *Client
	cachePath string
	logger    *logger.Logger

	mu       sync.RWMutex
	series   []Observation
	from, to time.Time
}

// NewService creates the wind service and loads the cache if present
func NewService(client *Client, cachePath string, log *logger.Logger) (*Service, error) {
	s := &Service{
		client:    client,
		cachePath: cachePath,
		logger:    log.Named("wind-service"),
	}

	if cachePath != "" {
		if err := s.loadCache(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load wind cache: %w", err)
			}
		}
	}

	return s, nil
}

// EnsureRange extends the in-memory series so it covers [from, to]. Already
// covered ranges cost nothing; each uncovered end is fetched separately and
// merged into the cached series, so an extension never refetches what the
// cache already holds.
func (s *Service) EnsureRange(ctx context.Context, from, to time.Time) error {
	from = from.UTC().Truncate(24 * time.Hour)
	to = to.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	s.mu.RLock()
	covered := !s.from.IsZero() && !from.Before(s.from) && !to.After(s.to)
	s.mu.RUnlock()
	if covered {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The archive serves whole days, so a fetch can spill past its coverage
	// bound; every batch is clipped to the window it covers to keep the
	// series duplicate-free across extensions.
	if s.from.IsZero() {
		obs, err := s.client.FetchRange(ctx, from, to)
		if err != nil {
			return err
		}
		s.series = clip(obs, from, to)
		s.from = from
		s.to = to
	} else {
		if from.Before(s.from) {
			obs, err := s.client.FetchRange(ctx, from, s.from)
			if err != nil {
				return err
			}
			s.series = append(clip(obs, from, s.from), s.series...)
			s.from = from
		}
		if to.After(s.to) {
			obs, err := s.client.FetchRange(ctx, s.to, to)
			if err != nil {
				return err
			}
			s.series = append(s.series, clip(obs, s.to, to)...)
			s.to = to
		}
	}

	sort.Slice(s.series, func(i, j int) bool { return s.series[i].Time.Before(s.series[j].Time) })

	s.logger.Info("Extended wind series",
		logger.Time("from", s.from),
		logger.Time("to", s.to),
		logger.Int("observations", len(s.series)))

	if s.cachePath != "" {
		if err := s.saveCache(); err != nil {
			s.logger.Warn("Failed to save wind cache", logger.Error(err))
		}
	}

	return nil
}

// clip keeps the observations with from <= t < to
func clip(obs []Observation, from, to time.Time) []Observation {
	var out []Observation
	for _, o := range obs {
		if o.Time.Before(from) || !o.Time.Before(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// WindFor returns the latest observation at or before t
func (s *Service) WindFor(t time.Time) (Observation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AsOf(s.series, t)
}

// Observations returns a copy of the series inside [from, to]
func (s *Service) Observations(from, to time.Time) []Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Observation
	for _, o := range s.series {
		if o.Time.Before(from) || o.Time.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// loadCache reads the CSV cache: from,to header comment then time,drct,sknt
func (s *Service) loadCache() error {
	f, err := os.Open(s.cachePath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	// First row holds the covered range
	if len(records[0]) == 2 {
		from, err1 := time.Parse(time.RFC3339, records[0][0])
		to, err2 := time.Parse(time.RFC3339, records[0][1])
		if err1 == nil && err2 == nil {
			s.from = from
			s.to = to
		}
	}

	for _, rec := range records[1:] {
		if len(rec) != 3 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			continue
		}
		drct, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		sknt, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		s.series = append(s.series, Observation{Time: ts, DirectionDeg: drct, SpeedKts: sknt})
	}

	sort.Slice(s.series, func(i, j int) bool { return s.series[i].Time.Before(s.series[j].Time) })
	s.logger.Info("Loaded wind cache", logger.Int("observations", len(s.series)))
	return nil
}

func (s *Service) saveCache() error {
	if err := os.MkdirAll(filepath.Dir(s.cachePath), 0o755); err != nil {
		return err
	}

	tmp := s.cachePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{s.from.Format(time.RFC3339), s.to.Format(time.RFC3339)}); err != nil {
		f.Close()
		return err
	}
	for _, o := range s.series {
		rec := []string{
			o.Time.Format(time.RFC3339),
			strconv.FormatFloat(o.DirectionDeg, 'f', -1, 64),
			strconv.FormatFloat(o.SpeedKts, 'f', -1, 64),
		}
		if err := writer.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, s.cachePath)
}
