package service

import (
	"context"
	"time"

	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/store"
)

// LibraryService keeps per-user history and favorites in the site store.
type LibraryService struct {
	site *store.SiteStore
	now  func() time.Time
}

func NewLibraryService(site *store.SiteStore) *LibraryService {
	return &LibraryService{site: site, now: time.Now}
}

// RecordView adds m to the user's history or bumps its timestamp.
func (s *LibraryService) RecordView(ctx context.Context, userID uint, m *model.Media) error {
	return s.site.TouchHistory(ctx, model.History{
		UserID:    userID,
		MediaType: m.MediaType,
		MediaID:   m.TMDBID,
		Title:     m.Title,
		PosterURL: m.PosterURL,
		WatchedAt: s.now(),
	})
}

func (s *LibraryService) History(ctx context.Context, userID uint, limit int) ([]model.History, error) {
	return s.site.History(ctx, userID, limit)
}

func (s *LibraryService) AddFavorite(ctx context.Context, userID uint, mediaID int) error {
	return s.site.AddFavorite(ctx, userID, mediaID)
}

// RemoveFavorite returns ErrNotFound when the media was not a favorite.
func (s *LibraryService) RemoveFavorite(ctx context.Context, userID uint, mediaID int) error {
	removed, err := s.site.RemoveFavorite(ctx, userID, mediaID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func (s *LibraryService) Favorites(ctx context.Context, userID uint) ([]model.Favorite, error) {
	return s.site.Favorites(ctx, userID)
}
