package service

import (
	"context"
	"errors"

	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	featuredMovieLimit = 50
	featuredTVLimit    = 10
	trendingAnimeLimit = 10
)

type Catalogue struct {
	Movies []model.FeaturedMovie `json:"movies"`
	TV     []model.FeaturedTV    `json:"tv"`
	Anime  []model.Anime         `json:"anime"`
}

type AnimeDetail struct {
	Anime    model.Anime          `json:"anime"`
	Episodes []model.AnimeEpisode `json:"episodes"`
}

type AnimeEpisodeDetail struct {
	Episode model.AnimeEpisode `json:"episode"`
	Anime   *model.Anime       `json:"anime"`
}

// CatalogueService serves reads that never fill from upstream.
type CatalogueService struct {
	store *store.MediaStore
}

func NewCatalogueService(st *store.MediaStore) *CatalogueService {
	return &CatalogueService{store: st}
}

func (s *CatalogueService) Catalogue(ctx context.Context) (*Catalogue, error) {
	c := &Catalogue{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.Movies, err = s.store.FeaturedMovies(gctx, featuredMovieLimit)
		return err
	})
	g.Go(func() (err error) {
		c.TV, err = s.store.FeaturedTV(gctx, featuredTVLimit)
		return err
	})
	g.Go(func() (err error) {
		c.Anime, err = s.store.TrendingAnime(gctx, trendingAnimeLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogueService) Episode(ctx context.Context, id int) (*model.Episode, error) {
	return s.store.GetEpisode(ctx, id)
}

func (s *CatalogueService) Anime(ctx context.Context, id int) (*AnimeDetail, error) {
	a, err := s.store.GetAnime(ctx, id)
	if err != nil {
		return nil, err
	}
	eps, err := s.store.AnimeEpisodes(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AnimeDetail{Anime: *a, Episodes: eps}, nil
}

// AnimeEpisode returns the episode and, when still stored, its anime.
func (s *CatalogueService) AnimeEpisode(ctx context.Context, id int) (*AnimeEpisodeDetail, error) {
	ep, err := s.store.GetAnimeEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &AnimeEpisodeDetail{Episode: *ep}
	a, err := s.store.GetAnime(ctx, ep.AniListID)
	switch {
	case err == nil:
		detail.Anime = a
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return detail, nil
}
