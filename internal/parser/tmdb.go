package parser

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/tmdb"
)

// RuntimeSource supplies the runtime of a movie, which list endpoints omit.
type RuntimeSource interface {
	MovieRuntime(ctx context.Context, id int) (*int, error)
}

// ItemParser turns TMDB list and detail payloads into media rows.
type ItemParser struct {
	imageBase string
	runtimes  RuntimeSource
	log       hclog.Logger
}

// NewItemParser builds a parser joining poster paths to imageBase. runtimes
// may be nil, in which case movie runtimes stay unknown.
func NewItemParser(imageBase string, runtimes RuntimeSource, log hclog.Logger) *ItemParser {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &ItemParser{imageBase: imageBase, runtimes: runtimes, log: log}
}

// ParseItems normalizes list items of one kind. For movies each item costs
// one extra detail request for the runtime; a failed lookup leaves it nil.
func (p *ItemParser) ParseItems(ctx context.Context, items []tmdb.ListItem, kind string) ([]model.Media, error) {
	rows := make([]model.Media, 0, len(items))
	for _, item := range items {
		row, err := p.media(item, kind)
		if err != nil {
			return nil, err
		}
		if kind == model.MediaTypeMovie {
			row.Runtime = p.runtime(ctx, item.ID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseFeatured normalizes a ranked list. Rank is the 1-based input position.
func (p *ItemParser) ParseFeatured(items []tmdb.ListItem) ([]model.FeaturedEntry, error) {
	rows := make([]model.FeaturedEntry, 0, len(items))
	for i, item := range items {
		if item.ID == 0 {
			return nil, &NormalizationError{Entity: "featured", Field: "id"}
		}
		rows = append(rows, model.FeaturedEntry{
			TMDBID:    item.ID,
			Title:     itemTitle(item),
			PosterURL: ImageURL(p.imageBase, item.PosterPath),
			Rank:      i + 1,
		})
	}
	return rows, nil
}

// ParseMovie normalizes a movie detail payload, which already carries runtime.
func (p *ItemParser) ParseMovie(movie *tmdb.MovieDetails) (model.Media, error) {
	row, err := p.media(movie.ListItem, model.MediaTypeMovie)
	if err != nil {
		return model.Media{}, err
	}
	row.Runtime = movie.Runtime
	return row, nil
}

func (p *ItemParser) ParseTV(show *tmdb.TVDetails) (model.Media, error) {
	return p.media(show.ListItem, model.MediaTypeTV)
}

// ParseSeasons normalizes the season list of one series. title is the
// parent series title, denormalized onto each season.
func (p *ItemParser) ParseSeasons(tvID int, title string, seasons []tmdb.Season) ([]model.Season, error) {
	rows := make([]model.Season, 0, len(seasons))
	for _, s := range seasons {
		if s.SeasonNumber == nil {
			return nil, &NormalizationError{Entity: "season", Field: "season_number"}
		}
		rows = append(rows, model.Season{
			SeasonID:     model.SeasonID(tvID, *s.SeasonNumber),
			TVID:         tvID,
			Title:        title,
			SeasonNumber: *s.SeasonNumber,
			Name:         s.Name,
			Overview:     s.Overview,
			PosterURL:    ImageURL(p.imageBase, s.PosterPath),
			AirDate:      s.AirDate,
			EpisodeCount: s.EpisodeCount,
			VoteAverage:  s.VoteAverage,
		})
	}
	return rows, nil
}

// ParseEpisodes normalizes the episodes of one season.
func (p *ItemParser) ParseEpisodes(tvID, seasonNumber int, seasonID string, episodes []tmdb.Episode) ([]model.Episode, error) {
	rows := make([]model.Episode, 0, len(episodes))
	for _, e := range episodes {
		if e.ID == 0 {
			return nil, &NormalizationError{Entity: "episode", Field: "id"}
		}
		number := 0
		if e.EpisodeNumber != nil {
			number = *e.EpisodeNumber
		}
		rows = append(rows, model.Episode{
			EpisodeID:     e.ID,
			SeasonID:      seasonID,
			TVID:          tvID,
			SeasonNumber:  seasonNumber,
			EpisodeNumber: number,
			Name:          e.Name,
			Overview:      e.Overview,
			AirDate:       e.AirDate,
			Runtime:       e.Runtime,
			VoteAverage:   e.VoteAverage,
			StillURL:      ImageURL(p.imageBase, e.StillPath),
		})
	}
	return rows, nil
}

func (p *ItemParser) media(item tmdb.ListItem, kind string) (model.Media, error) {
	if item.ID == 0 {
		return model.Media{}, &NormalizationError{Entity: kind, Field: "id"}
	}
	release := item.ReleaseDate
	if release == "" {
		release = item.FirstAirDate
	}
	return model.Media{
		TMDBID:      item.ID,
		Title:       itemTitle(item),
		MediaType:   kind,
		PosterURL:   ImageURL(p.imageBase, item.PosterPath),
		Overview:    item.Overview,
		ReleaseDate: release,
		VoteAverage: item.VoteAverage,
	}, nil
}

func (p *ItemParser) runtime(ctx context.Context, id int) *int {
	if p.runtimes == nil {
		return nil
	}
	rt, err := p.runtimes.MovieRuntime(ctx, id)
	if err != nil {
		p.log.Warn("runtime lookup failed", "tmdb_id", id, "error", err)
		return nil
	}
	return rt
}

func itemTitle(item tmdb.ListItem) string {
	if item.Title != "" {
		return item.Title
	}
	return item.Name
}
