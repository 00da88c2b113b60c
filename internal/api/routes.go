package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

// NewRouter builds the HTTP router
func NewRouter(h *Handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.handleEvents)
		r.Get("/events/wind", h.handleEventsWind)
		r.Get("/stats/pings", h.handlePingStats)
		r.Get("/coverage", h.handleCoverage)
		r.Get("/zone", h.handleZone)
		r.Get("/station", h.handleStation)
		r.Get("/config", h.handleConfig)
		r.Get("/health", h.handleHealth)
	})

	r.Get("/ws", h.wsServer.HandleWebSocket)

	return r
}
