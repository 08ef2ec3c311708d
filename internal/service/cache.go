package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/event"
	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/parser"
	"github.com/pokerjest/stamper/internal/store"
	"github.com/pokerjest/stamper/internal/tmdb"
	"github.com/pokerjest/stamper/internal/upstream"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound means neither the store nor the provider knows the id.
	ErrNotFound = store.ErrNotFound
	// ErrUnknownKind is returned for media kinds other than movie and tv.
	ErrUnknownKind = errors.New("unknown media kind")
)

// DetailSource is the part of the TMDB client the cache filler reads from.
type DetailSource interface {
	GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	GetTV(ctx context.Context, id int) (*tmdb.TVDetails, error)
	FetchEpisodes(ctx context.Context, tvID, seasonNumber int) ([]tmdb.Episode, error)
}

// SeriesDetail is a media row with its seasons. Seasons is empty for movies.
type SeriesDetail struct {
	Media   model.Media          `json:"media"`
	Seasons []model.SeasonDetail `json:"seasons"`
}

// CacheFiller is the read-through path over the media store. A miss fetches
// exactly the rows needed to answer the read, upserts them and reads back.
// Concurrent misses on the same id share one upstream fetch.
type CacheFiller struct {
	store  *store.MediaStore
	source DetailSource
	parser *parser.ItemParser
	bus    event.Bus
	log    hclog.Logger

	group singleflight.Group
}

func NewCacheFiller(st *store.MediaStore, source DetailSource, imageBase string, bus event.Bus, log hclog.Logger) *CacheFiller {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if bus == nil {
		bus = event.NopBus{}
	}
	return &CacheFiller{
		store:  st,
		source: source,
		parser: parser.NewItemParser(imageBase, nil, log),
		bus:    bus,
		log:    log,
	}
}

// GetOrFetchMedia returns the movie or series row for id, filling the store
// on a miss. A movie read only hits rows stored as movies.
func (f *CacheFiller) GetOrFetchMedia(ctx context.Context, kind string, id int) (*model.Media, error) {
	switch kind {
	case model.MediaTypeMovie, model.MediaTypeTV:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	m, err := f.store.GetMediaOfType(ctx, id, kind)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if kind == model.MediaTypeMovie {
		if err := f.fill(ctx, kind, id, f.fillMovie); err != nil {
			return nil, err
		}
	} else {
		if err := f.fill(ctx, kind, id, f.fillSeries); err != nil {
			return nil, err
		}
	}
	return f.store.GetMediaOfType(ctx, id, kind)
}

// GetOrFetchSeriesDetail returns the media row for id together with its
// seasons and their episodes. Any stored row counts as a hit; a miss is
// filled as a series.
func (f *CacheFiller) GetOrFetchSeriesDetail(ctx context.Context, id int) (*SeriesDetail, error) {
	m, err := f.store.GetMedia(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if err := f.fill(ctx, model.MediaTypeTV, id, f.fillSeries); err != nil {
			return nil, err
		}
		m, err = f.store.GetMedia(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	detail := &SeriesDetail{Media: *m, Seasons: []model.SeasonDetail{}}
	if m.MediaType != model.MediaTypeTV {
		return detail, nil
	}
	seasons, err := f.store.SeasonsWithEpisodes(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Seasons = seasons
	return detail, nil
}

func (f *CacheFiller) fill(ctx context.Context, kind string, id int, fn func(context.Context, int) error) error {
	key := fmt.Sprintf("%s:%d", kind, id)
	_, err, shared := f.group.Do(key, func() (interface{}, error) {
		return nil, fn(ctx, id)
	})
	if shared {
		f.log.Debug("joined in-flight fill", "key", key)
	}
	return err
}

func (f *CacheFiller) fillMovie(ctx context.Context, id int) error {
	f.log.Info("cache miss, fetching movie", "tmdb_id", id)

	movie, err := f.source.GetMovie(ctx, id)
	if err != nil {
		return f.fetchError("movie", id, err)
	}
	row, err := f.parser.ParseMovie(movie)
	if err != nil {
		return err
	}
	row.TMDBID = id
	if err := f.store.Save(ctx, &store.Dataset{Media: []model.Media{row}}); err != nil {
		return err
	}

	f.bus.Publish(event.EventMediaCached, row)
	return nil
}

// fillSeries writes the series row, then each season row followed by that
// season's episodes. A failed episode fetch is logged and skipped; rows
// already written stay.
func (f *CacheFiller) fillSeries(ctx context.Context, id int) error {
	f.log.Info("cache miss, fetching series", "tmdb_id", id)

	show, err := f.source.GetTV(ctx, id)
	if err != nil {
		return f.fetchError("series", id, err)
	}
	row, err := f.parser.ParseTV(show)
	if err != nil {
		return err
	}
	row.TMDBID = id
	if err := f.store.Save(ctx, &store.Dataset{Media: []model.Media{row}}); err != nil {
		return err
	}

	seasons, err := f.parser.ParseSeasons(id, row.Title, show.Seasons)
	if err != nil {
		return err
	}
	for _, season := range seasons {
		if err := f.store.Save(ctx, &store.Dataset{Seasons: []model.Season{season}}); err != nil {
			return err
		}

		raw, err := f.source.FetchEpisodes(ctx, id, season.SeasonNumber)
		if err != nil {
			f.log.Warn("episode fetch failed, keeping season without episodes",
				"tmdb_id", id, "season", season.SeasonNumber, "error", err)
			continue
		}
		episodes, err := f.parser.ParseEpisodes(id, season.SeasonNumber, season.SeasonID, raw)
		if err != nil {
			f.log.Warn("episode payload rejected", "tmdb_id", id, "season", season.SeasonNumber, "error", err)
			continue
		}
		if err := f.store.Save(ctx, &store.Dataset{Episodes: episodes}); err != nil {
			return err
		}
	}

	f.bus.Publish(event.EventMediaCached, row)
	return nil
}

func (f *CacheFiller) fetchError(what string, id int, err error) error {
	if upstream.IsNotFound(err) {
		f.log.Info(what+" not found upstream", "tmdb_id", id)
		return ErrNotFound
	}
	return fmt.Errorf("fetch %s %d: %w", what, id, err)
}
