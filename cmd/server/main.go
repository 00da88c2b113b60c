package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/api"
	"github.com/blagnacoscope/blagnacoscope/internal/config"
	"github.com/blagnacoscope/blagnacoscope/internal/geometry"
	"github.com/blagnacoscope/blagnacoscope/internal/physics"
	"github.com/blagnacoscope/blagnacoscope/internal/pipeline"
	"github.com/blagnacoscope/blagnacoscope/internal/refdata"
	"github.com/blagnacoscope/blagnacoscope/internal/storage/sqlite"
	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
	"github.com/blagnacoscope/blagnacoscope/internal/websocket"
	"github.com/blagnacoscope/blagnacoscope/internal/wind"
	"github.com/blagnacoscope/blagnacoscope/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting blagnacoscope",
		logger.String("airport", cfg.Station.AirportCode),
		logger.Float64("center_lat", cfg.Station.CenterLat),
		logger.Float64("center_lon", cfg.Station.CenterLon))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Runway azimuth may be given as magnetic; correct it to true north once
	azimuth := cfg.Geometry.RunwayAzimuthDeg
	if cfg.Geometry.MagneticAzimuth {
		azimuth = physics.MagneticToTrue(azimuth, cfg.Station.CenterLat, cfg.Station.CenterLon, 0, time.Now())
		log.Info("Corrected magnetic runway azimuth",
			logger.Float64("magnetic", cfg.Geometry.RunwayAzimuthDeg),
			logger.Float64("true", azimuth))
	}

	zone, err := geometry.ComputeZone(
		cfg.Station.CenterLat, cfg.Station.CenterLon,
		azimuth, cfg.Geometry.ZoneLongAxisM, cfg.Geometry.ZoneShortAxisM,
	)
	if err != nil {
		log.Error("Failed to compute airport zone", logger.Error(err))
		os.Exit(1)
	}

	storage, err := sqlite.NewPingStorage(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to open storage", logger.Error(err))
		os.Exit(1)
	}
	defer storage.Close()

	tables, err := refdata.Load(
		cfg.RefData.AirlinesPath, cfg.RefData.AirportsPath, cfg.RefData.AircraftPath, log,
	)
	if err != nil {
		log.Error("Failed to load reference tables", logger.Error(err))
		os.Exit(1)
	}

	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	var trackerSvc *tracker.Service
	if cfg.Tracker.Enabled {
		client := tracker.NewClient(
			cfg.Tracker.FeedURL,
			time.Duration(cfg.Tracker.RequestTimeoutSecs)*time.Second,
			cfg.Tracker.MaxRetries,
			log,
		)
		trackerSvc = tracker.NewService(
			client, storage,
			time.Duration(cfg.Tracker.FetchIntervalSecs)*time.Second,
			cfg.Station.CenterLat, cfg.Station.CenterLon, cfg.Tracker.BoundsRadiusM,
			wsServer, log,
		)
		if err := trackerSvc.Start(ctx); err != nil {
			log.Error("Failed to start tracker service", logger.Error(err))
			os.Exit(1)
		}
		defer trackerSvc.Stop()
	}

	var windSvc *wind.Service
	if cfg.Wind.Enabled {
		windClient := wind.NewClient(
			cfg.Wind.BaseURL, cfg.Wind.Station,
			time.Duration(cfg.Wind.RequestTimeoutSecs)*time.Second,
			cfg.Wind.MaxRetries, log,
		)
		windSvc, err = wind.NewService(windClient, cfg.Wind.CachePath, log)
		if err != nil {
			log.Error("Failed to start wind service", logger.Error(err))
			os.Exit(1)
		}
	}

	filter := pipeline.NewFilter(
		zone, azimuth,
		cfg.Pipeline.RunwayHeadingToleranceDeg,
		cfg.Pipeline.MaxRunwayAltitudeFt,
		cfg.Pipeline.MinGroundSpeedKts,
	)
	location, err := time.LoadLocation(cfg.Station.Timezone)
	if err != nil {
		log.Error("Failed to load station timezone", logger.Error(err))
		os.Exit(1)
	}

	aggregator := pipeline.NewAggregator(azimuth, tables, location)
	pipelineSvc := pipeline.NewService(storage, filter, aggregator, pipeline.ServiceConfig{
		RunwayAzimuthDeg:    azimuth,
		HeadingToleranceDeg: cfg.Pipeline.RunwayHeadingToleranceDeg,
		MaxAltitudeFt:       cfg.Pipeline.MaxRunwayAltitudeFt,
		MinGroundSpeedKts:   cfg.Pipeline.MinGroundSpeedKts,
		SubFlightGap:        time.Duration(cfg.Pipeline.SubFlightGapSeconds) * time.Second,
		RefreshInterval:     time.Duration(cfg.Pipeline.RefreshIntervalSecs) * time.Second,
		RefreshWindow:       time.Duration(cfg.Pipeline.RefreshWindowSecs) * time.Second,
	}, wsServer, log)
	if err := pipelineSvc.Start(ctx); err != nil {
		log.Error("Failed to start pipeline service", logger.Error(err))
		os.Exit(1)
	}
	defer pipelineSvc.Stop()

	handlers := api.NewHandlers(cfg, zone, pipelineSvc, windSvc, storage, trackerSvc, wsServer, log)
	router := api.NewRouter(handlers, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server failed", logger.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", logger.Error(err))
	}

	log.Info("Shutdown complete")
}
