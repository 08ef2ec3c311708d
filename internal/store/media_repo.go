package store

import (
	"context"
	"errors"
	"strings"

	"github.com/pokerjest/stamper/internal/model"
	"gorm.io/gorm"
)

func (s *MediaStore) GetMedia(ctx context.Context, id int) (*model.Media, error) {
	var m model.Media
	err := s.view(func(gdb *gorm.DB) error {
		return first(gdb.WithContext(ctx).Where("tmdb_id = ?", id), &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMediaOfType matches only rows of the given media type.
func (s *MediaStore) GetMediaOfType(ctx context.Context, id int, mediaType string) (*model.Media, error) {
	var m model.Media
	err := s.view(func(gdb *gorm.DB) error {
		return first(gdb.WithContext(ctx).Where("tmdb_id = ? AND media_type = ?", id, mediaType), &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SeasonsWithEpisodes returns every season of a series ordered by season
// number, each carrying its episodes ordered by episode number.
func (s *MediaStore) SeasonsWithEpisodes(ctx context.Context, tvID int) ([]model.SeasonDetail, error) {
	var seasons []model.Season
	var episodes []model.Episode
	err := s.view(func(gdb *gorm.DB) error {
		q := gdb.WithContext(ctx)
		if err := q.Where("tv_id = ?", tvID).Order("season_number").Find(&seasons).Error; err != nil {
			return err
		}
		return q.Where("tv_id = ?", tvID).Order("season_number, episode_number").Find(&episodes).Error
	})
	if err != nil {
		return nil, err
	}

	bySeason := make(map[string][]model.Episode, len(seasons))
	for _, e := range episodes {
		bySeason[e.SeasonID] = append(bySeason[e.SeasonID], e)
	}
	details := make([]model.SeasonDetail, 0, len(seasons))
	for _, season := range seasons {
		eps := bySeason[season.SeasonID]
		if eps == nil {
			eps = []model.Episode{}
		}
		details = append(details, model.SeasonDetail{Season: season, Episodes: eps})
	}
	return details, nil
}

func (s *MediaStore) GetEpisode(ctx context.Context, id int) (*model.Episode, error) {
	var e model.Episode
	err := s.view(func(gdb *gorm.DB) error {
		return first(gdb.WithContext(ctx).Where("episode_id = ?", id), &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *MediaStore) GetAnime(ctx context.Context, id int) (*model.Anime, error) {
	var a model.Anime
	err := s.view(func(gdb *gorm.DB) error {
		return first(gdb.WithContext(ctx).Where("anilist_id = ?", id), &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AnimeEpisodes lists the episodes of one anime in id order, which is the
// order they were numbered in.
func (s *MediaStore) AnimeEpisodes(ctx context.Context, anilistID int) ([]model.AnimeEpisode, error) {
	eps := []model.AnimeEpisode{}
	err := s.view(func(gdb *gorm.DB) error {
		return gdb.WithContext(ctx).Where("anilist_id = ?", anilistID).Order("episode_id").Find(&eps).Error
	})
	return eps, err
}

func (s *MediaStore) GetAnimeEpisode(ctx context.Context, id int) (*model.AnimeEpisode, error) {
	var e model.AnimeEpisode
	err := s.view(func(gdb *gorm.DB) error {
		return first(gdb.WithContext(ctx).Where("episode_id = ?", id), &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *MediaStore) FeaturedMovies(ctx context.Context, limit int) ([]model.FeaturedMovie, error) {
	rows := []model.FeaturedMovie{}
	err := s.view(func(gdb *gorm.DB) error {
		return gdb.WithContext(ctx).Order("rank").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

func (s *MediaStore) FeaturedTV(ctx context.Context, limit int) ([]model.FeaturedTV, error) {
	rows := []model.FeaturedTV{}
	err := s.view(func(gdb *gorm.DB) error {
		return gdb.WithContext(ctx).Order("rank").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

func (s *MediaStore) TrendingAnime(ctx context.Context, limit int) ([]model.Anime, error) {
	rows := []model.Anime{}
	err := s.view(func(gdb *gorm.DB) error {
		return gdb.WithContext(ctx).Order("trending DESC").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

// SearchMedia matches titles containing query, case-insensitively, ordered by title.
func (s *MediaStore) SearchMedia(ctx context.Context, query string, limit int) ([]model.Media, error) {
	rows := []model.Media{}
	pattern := "%" + escapeLike(query) + "%"
	err := s.view(func(gdb *gorm.DB) error {
		return gdb.WithContext(ctx).
			Where("title LIKE ? ESCAPE '\\'", pattern).
			Order("title").
			Limit(limit).
			Find(&rows).Error
	})
	return rows, err
}

func first(q *gorm.DB, dest interface{}) error {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
