// Command refresh runs one full refresh of the media store and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/anilist"
	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/logger"
	"github.com/pokerjest/stamper/internal/service"
	"github.com/pokerjest/stamper/internal/snapshot"
	"github.com/pokerjest/stamper/internal/store"
	"github.com/pokerjest/stamper/internal/tmdb"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	upload := flag.Bool("snapshot", false, "upload the rebuilt store even when snapshot.enabled is off")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	log := logger.New("stamper-refresh", cfg.Log.Level, cfg.Log.JSON)

	if err := run(cfg, *upload, log); err != nil {
		log.Error("refresh failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, upload bool, log hclog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	media, err := store.OpenMediaStore(cfg.Database.MediaPath, log.Named("store"))
	if err != nil {
		return err
	}
	defer media.Close()

	tmdbClient := tmdb.NewClient(cfg.TMDB)
	anilistClient := anilist.NewClient(cfg.AniList, nil)

	refresh := service.NewRefreshService(media, tmdbClient, anilistClient, tmdbClient.ImageBaseURL(),
		cfg.Refresh, nil, log.Named("refresh"))
	if err := refresh.RunFullRefresh(ctx); err != nil {
		return err
	}
	status := refresh.Status()
	log.Info("refresh done", "rows", status.Rows, "took", status.FinishedAt.Sub(status.StartedAt))

	if !cfg.Snapshot.Enabled && !upload {
		return nil
	}
	client, err := snapshot.NewClient(ctx, cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("snapshot storage: %w", err)
	}
	key, err := snapshot.NewUploader(client, media, cfg.Snapshot, log.Named("snapshot")).Upload(ctx)
	if err != nil {
		return err
	}
	log.Info("snapshot stored", "key", key)
	return nil
}
