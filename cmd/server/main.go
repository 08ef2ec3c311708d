package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/anilist"
	"github.com/pokerjest/stamper/internal/api"
	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/event"
	"github.com/pokerjest/stamper/internal/logger"
	"github.com/pokerjest/stamper/internal/scheduler"
	"github.com/pokerjest/stamper/internal/service"
	"github.com/pokerjest/stamper/internal/snapshot"
	"github.com/pokerjest/stamper/internal/store"
	"github.com/pokerjest/stamper/internal/tmdb"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	// 1. Load Config
	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	log := logger.New("stamper", cfg.Log.Level, cfg.Log.JSON)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log hclog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Stores
	absPath, _ := filepath.Abs(cfg.Database.MediaPath)
	log.Info("opening media store", "path", absPath)
	media, err := store.OpenMediaStore(cfg.Database.MediaPath, log.Named("store"))
	if err != nil {
		return err
	}
	defer media.Close()

	site, err := store.OpenSiteStore(cfg.Database.SitePath)
	if err != nil {
		return err
	}
	defer site.Close()

	// 3. Provider clients
	tmdbClient := tmdb.NewClient(cfg.TMDB)
	anilistClient := anilist.NewClient(cfg.AniList, nil)
	imageBase := tmdbClient.ImageBaseURL()

	// 4. Services
	bus := event.NewInMemoryBus()
	refresh := service.NewRefreshService(media, tmdbClient, anilistClient, imageBase, cfg.Refresh, bus, log.Named("refresh"))

	if cfg.Snapshot.Enabled {
		client, err := snapshot.NewClient(ctx, cfg.Snapshot)
		if err != nil {
			return fmt.Errorf("snapshot storage: %w", err)
		}
		snapshot.NewUploader(client, media, cfg.Snapshot, log.Named("snapshot")).Subscribe(bus)
	}

	h := api.NewHandler(ctx, api.Services{
		Cache:     service.NewCacheFiller(media, tmdbClient, imageBase, bus, log.Named("cache")),
		Catalogue: service.NewCatalogueService(media),
		Search:    service.NewSearchService(media, tmdbClient, log.Named("search")),
		Library:   service.NewLibraryService(site),
		Refresh:   refresh,
		Bus:       bus,
	}, log.Named("api"))

	// 5. Routes
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(log.Named("http")))
	api.InitRoutes(r, h)

	// 6. Scheduler
	sch, err := scheduler.NewManager(cfg.Refresh.Schedule, refresh.RunFullRefresh, service.ErrRefreshRunning, log.Named("scheduler"))
	if err != nil {
		return err
	}
	if sch != nil {
		sch.Start()
		defer sch.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
