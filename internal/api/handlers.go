package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/config"
	"github.com/blagnacoscope/blagnacoscope/internal/geometry"
	"github.com/blagnacoscope/blagnacoscope/internal/pipeline"
	"github.com/blagnacoscope/blagnacoscope/internal/storage/sqlite"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
	"github.com/blagnacoscope/blagnacoscope/internal/websocket"
	"github.com/blagnacoscope/blagnacoscope/internal/wind"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// Handlers holds the services the API surfaces
type Handlers struct {
	cfg         *config.Config
	zone        *geometry.Zone
	pipelineSvc *pipeline.Service
	windSvc     *wind.Service
	storage     *sqlite.PingStorage
	trackerSvc  *tracker.Service
	wsServer    *websocket.Server
	logger      *logger.Logger
	startTime   time.Time
}

// NewHandlers creates the API handler set. windSvc and trackerSvc may be nil
// when their services are disabled.
func NewHandlers(
	cfg *config.Config,
	zone *geometry.Zone,
	pipelineSvc *pipeline.Service,
	windSvc *wind.Service,
	storage *sqlite.PingStorage,
	trackerSvc *tracker.Service,
	wsServer *websocket.Server,
	log *logger.Logger,
) *Handlers {
	return &Handlers{
		cfg:         cfg,
		zone:        zone,
		pipelineSvc: pipelineSvc,
		windSvc:     windSvc,
		storage:     storage,
		trackerSvc:  trackerSvc,
		wsServer:    wsServer,
		logger:      log.Named("api"),
		startTime:   time.Now(),
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError writes a JSON error body
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// timeRange parses from/to query parameters as RFC3339 or unix seconds,
// defaulting to the last 24 hours.
func timeRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), nil
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
			return time.Unix(secs, 0).UTC(), nil
		}
		return time.Time{}, &time.ParseError{Layout: time.RFC3339, Value: s}
	}

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := parse(s)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := parse(s)
		if err != nil {
			return from, to, err
		}
		to = t
	}

	return from, to, nil
}

// handleEvents returns runway events for a time range
func (h *Handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid time range, expected RFC3339 or unix seconds")
		return
	}

	events, err := h.pipelineSvc.Events(r.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to compute events", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to compute events")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

// eventWind is a runway event joined with the wind at its time
type eventWind struct {
	pipeline.RunwayEvent
	Wind *wind.Observation `json:"wind"`
}

// handleEventsWind returns runway events with the wind observation in effect
// at each event's time.
func (h *Handlers) handleEventsWind(w http.ResponseWriter, r *http.Request) {
	if h.windSvc == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Wind service is disabled")
		return
	}

	from, to, err := timeRange(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid time range, expected RFC3339 or unix seconds")
		return
	}

	events, err := h.pipelineSvc.Events(r.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to compute events", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to compute events")
		return
	}

	if err := h.windSvc.EnsureRange(r.Context(), from, to); err != nil {
		h.logger.Error("Failed to fetch wind data", logger.Error(err))
		h.writeError(w, http.StatusBadGateway, "Failed to fetch wind data")
		return
	}

	out := make([]eventWind, 0, len(events))
	for _, ev := range events {
		ew := eventWind{RunwayEvent: ev}
		if obs, ok := h.windSvc.WindFor(ev.Time); ok {
			ew.Wind = &obs
		}
		out = append(out, ew)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":  len(out),
		"events": out,
	})
}

// handlePingStats returns ping counts bucketed by hour or minute
func (h *Handlers) handlePingStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "hour"
	}

	counts, err := h.storage.CountsByPeriod(period)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Unsupported period, expected hour or minute")
		return
	}

	total, err := h.storage.TotalPings()
	if err != nil {
		h.logger.Error("Failed to count pings", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to count pings")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"total":  total,
		"counts": counts,
	})
}

// handleCoverage returns fetch windows and gaps for a time range
func (h *Handlers) handleCoverage(w http.ResponseWriter, r *http.Request) {
	from, to, err := timeRange(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid time range, expected RFC3339 or unix seconds")
		return
	}

	windows, err := h.storage.FetchWindows(from, to)
	if err != nil {
		h.logger.Error("Failed to load fetch windows", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to load fetch windows")
		return
	}

	maxGap := time.Duration(h.cfg.Pipeline.SubFlightGapSeconds) * time.Second
	gaps, err := h.storage.Gaps(from, to, maxGap)
	if err != nil {
		h.logger.Error("Failed to compute gaps", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to compute gaps")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"from":    from,
		"to":      to,
		"windows": windows,
		"gaps":    gaps,
	})
}

// handleZone returns the computed airport zone polygon
func (h *Handlers) handleZone(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.zone)
}

// handleStation returns the station identification
func (h *Handlers) handleStation(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"airport_code":       h.cfg.Station.AirportCode,
		"center_lat":         h.cfg.Station.CenterLat,
		"center_lon":         h.cfg.Station.CenterLon,
		"runway_azimuth_deg": h.cfg.Geometry.RunwayAzimuthDeg,
	})
}

// handleConfig returns the effective configuration
func (h *Handlers) handleConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.cfg)
}

// handleHealth returns service liveness and last fetch status
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":     "ok",
		"uptime_sec": int(time.Since(h.startTime).Seconds()),
		"ws_clients": h.wsServer.ClientCount(),
	}
	if h.trackerSvc != nil {
		lastFetch, ok := h.trackerSvc.GetStatus()
		resp["last_fetch_time"] = lastFetch
		resp["last_fetch_ok"] = ok
	}
	WriteJSON(w, http.StatusOK, resp)
}
