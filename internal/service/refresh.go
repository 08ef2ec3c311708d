package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/anilist"
	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/event"
	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/parser"
	"github.com/pokerjest/stamper/internal/store"
	"github.com/pokerjest/stamper/internal/tmdb"
	"golang.org/x/sync/errgroup"
)

// ErrRefreshRunning is returned when a refresh is requested while one runs.
var ErrRefreshRunning = errors.New("refresh already running")

// CatalogSource is the part of the TMDB client a full refresh reads from.
type CatalogSource interface {
	FetchFeatured(ctx context.Context, kind string, pages, perPage int) ([]tmdb.ListItem, error)
	FetchPopular(ctx context.Context, kind string, pages int) ([]tmdb.ListItem, error)
	FetchSeasons(ctx context.Context, tvID int) ([]tmdb.Season, error)
	FetchEpisodes(ctx context.Context, tvID, seasonNumber int) ([]tmdb.Episode, error)
	MovieRuntime(ctx context.Context, id int) (*int, error)
}

// AnimeSource is the part of the AniList client a full refresh reads from.
type AnimeSource interface {
	FetchAnimePage(ctx context.Context, pages, perPage int) ([]anilist.Media, error)
	FetchEpisodeLists(ctx context.Context, ids []int) ([]*anilist.EpisodeList, error)
}

type RefreshStatus struct {
	IsRunning  bool      `json:"is_running"`
	Stage      string    `json:"stage"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	LastResult string    `json:"last_result"`
	Rows       int       `json:"rows"`
}

// RefreshService rebuilds the whole media store from the providers. Every
// fetch and normalization finishes before the store is touched, so a failed
// run leaves the previous store in place.
type RefreshService struct {
	store  *store.MediaStore
	tmdb   CatalogSource
	anime  AnimeSource
	parser *parser.ItemParser
	cfg    config.RefreshConfig
	bus    event.Bus
	log    hclog.Logger

	Retries    int
	RetryDelay time.Duration

	run    sync.Mutex
	mu     sync.RWMutex
	status RefreshStatus
}

func NewRefreshService(st *store.MediaStore, catalog CatalogSource, anime AnimeSource, imageBase string,
	cfg config.RefreshConfig, bus event.Bus, log hclog.Logger) *RefreshService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if bus == nil {
		bus = event.NopBus{}
	}
	retries, delay := cfg.Retries, cfg.RetryDelay
	if retries <= 0 {
		retries = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &RefreshService{
		store:      st,
		tmdb:       catalog,
		anime:      anime,
		parser:     parser.NewItemParser(imageBase, catalog, log),
		cfg:        cfg,
		bus:        bus,
		log:        log,
		Retries:    retries,
		RetryDelay: delay,
		status:     RefreshStatus{LastResult: "never run"},
	}
}

func (s *RefreshService) Status() RefreshStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// RunFullRefresh fetches everything, normalizes it in memory and replaces
// the media store in one rebuild. Only one run may be active at a time.
func (s *RefreshService) RunFullRefresh(ctx context.Context) error {
	if !s.run.TryLock() {
		return ErrRefreshRunning
	}
	defer s.run.Unlock()

	start := time.Now()
	s.setStatus(func(st *RefreshStatus) {
		st.IsRunning = true
		st.Stage = "fetching"
		st.StartedAt = start
		st.FinishedAt = time.Time{}
	})
	s.bus.Publish(event.EventRefreshStarted, nil)
	s.log.Info("full refresh started")

	rows, err := s.refresh(ctx)

	result := event.RefreshResult{Path: s.store.Path(), Rows: rows, Duration: time.Since(start), Err: err}
	s.setStatus(func(st *RefreshStatus) {
		st.IsRunning = false
		st.Stage = ""
		st.FinishedAt = time.Now()
		st.Rows = rows
		if err != nil {
			st.LastResult = "failed: " + err.Error()
		} else {
			st.LastResult = "ok"
		}
	})

	if err != nil {
		s.log.Error("full refresh failed, store left unchanged", "error", err)
		s.bus.Publish(event.EventRefreshFailed, result)
		return err
	}
	s.log.Info("full refresh complete", "rows", rows, "duration", result.Duration)
	s.bus.Publish(event.EventRefreshComplete, result)
	return nil
}

func (s *RefreshService) refresh(ctx context.Context) (int, error) {
	ds, err := s.collect(ctx)
	if err != nil {
		return 0, err
	}
	s.setStatus(func(st *RefreshStatus) { st.Stage = "rebuilding" })
	if err := s.store.Rebuild(ctx, ds); err != nil {
		return 0, err
	}
	return ds.Rows(), nil
}

// collect gathers the full dataset. The TMDB and AniList halves run
// concurrently; the first error cancels the other.
func (s *RefreshService) collect(ctx context.Context) (*store.Dataset, error) {
	ds := &store.Dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.collectTMDB(gctx, ds)
	})
	g.Go(func() error {
		return s.collectAnime(gctx, ds)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *RefreshService) collectTMDB(ctx context.Context, ds *store.Dataset) error {
	featuredMovies, err := s.featured(ctx, tmdb.KindMovie)
	if err != nil {
		return err
	}
	featuredTV, err := s.featured(ctx, tmdb.KindTV)
	if err != nil {
		return err
	}

	movies, err := s.popular(ctx, tmdb.KindMovie)
	if err != nil {
		return err
	}
	shows, err := s.popular(ctx, tmdb.KindTV)
	if err != nil {
		return err
	}

	var seasons []model.Season
	var episodes []model.Episode
	for _, show := range shows {
		sr, er, err := s.seriesGraph(ctx, show)
		if err != nil {
			return err
		}
		seasons = append(seasons, sr...)
		episodes = append(episodes, er...)
	}

	for _, e := range featuredMovies {
		ds.FeaturedMovies = append(ds.FeaturedMovies, model.FeaturedMovie{FeaturedEntry: e})
	}
	for _, e := range featuredTV {
		ds.FeaturedTV = append(ds.FeaturedTV, model.FeaturedTV{FeaturedEntry: e})
	}
	ds.Media = append(movies, shows...)
	ds.Seasons = seasons
	ds.Episodes = episodes
	return nil
}

func (s *RefreshService) featured(ctx context.Context, kind string) ([]model.FeaturedEntry, error) {
	items, err := performWithRetry(ctx, s.Retries, s.RetryDelay, func() ([]tmdb.ListItem, error) {
		return s.tmdb.FetchFeatured(ctx, kind, s.cfg.FeaturedPages, s.cfg.FeaturedLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("featured %s: %w", kind, err)
	}
	return s.parser.ParseFeatured(items)
}

func (s *RefreshService) popular(ctx context.Context, kind string) ([]model.Media, error) {
	items, err := performWithRetry(ctx, s.Retries, s.RetryDelay, func() ([]tmdb.ListItem, error) {
		return s.tmdb.FetchPopular(ctx, kind, s.cfg.PopularPages)
	})
	if err != nil {
		return nil, fmt.Errorf("popular %s: %w", kind, err)
	}
	return s.parser.ParseItems(ctx, items, kind)
}

func (s *RefreshService) seriesGraph(ctx context.Context, show model.Media) ([]model.Season, []model.Episode, error) {
	raw, err := performWithRetry(ctx, s.Retries, s.RetryDelay, func() ([]tmdb.Season, error) {
		return s.tmdb.FetchSeasons(ctx, show.TMDBID)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("seasons of %d: %w", show.TMDBID, err)
	}
	seasons, err := s.parser.ParseSeasons(show.TMDBID, show.Title, raw)
	if err != nil {
		return nil, nil, err
	}

	var episodes []model.Episode
	for _, season := range seasons {
		rawEps, err := performWithRetry(ctx, s.Retries, s.RetryDelay, func() ([]tmdb.Episode, error) {
			return s.tmdb.FetchEpisodes(ctx, show.TMDBID, season.SeasonNumber)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("episodes of %s: %w", season.SeasonID, err)
		}
		eps, err := s.parser.ParseEpisodes(show.TMDBID, season.SeasonNumber, season.SeasonID, rawEps)
		if err != nil {
			return nil, nil, err
		}
		episodes = append(episodes, eps...)
	}
	return seasons, episodes, nil
}

func (s *RefreshService) collectAnime(ctx context.Context, ds *store.Dataset) error {
	if s.cfg.AnimePages <= 0 {
		return nil
	}
	items, err := performWithRetry(ctx, s.Retries, s.RetryDelay, func() ([]anilist.Media, error) {
		return s.anime.FetchAnimePage(ctx, s.cfg.AnimePages, s.cfg.AnimePerPage)
	})
	if err != nil {
		return fmt.Errorf("anime page: %w", err)
	}
	anime, err := parser.ParseAnime(items)
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(anime))
	for _, a := range anime {
		ids = append(ids, a.AniListID)
	}
	lists, err := s.anime.FetchEpisodeLists(ctx, ids)
	if err != nil {
		return fmt.Errorf("anime episodes: %w", err)
	}

	byID := make(map[int]*anilist.EpisodeList, len(lists))
	var episodes []model.AnimeEpisode
	for _, list := range lists {
		byID[list.AniListID] = list
		episodes = append(episodes, parser.ParseAnimeEpisodes(list)...)
	}
	// the episode query reports duration for titles the page left empty
	for i := range anime {
		if list, ok := byID[anime[i].AniListID]; ok && anime[i].Duration == nil {
			anime[i].Duration = list.Duration
		}
	}

	ds.Anime = anime
	ds.AnimeEpisodes = episodes
	return nil
}

func (s *RefreshService) setStatus(fn func(st *RefreshStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}
