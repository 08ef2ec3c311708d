package store

import (
	"context"
	"time"

	"github.com/pokerjest/stamper/internal/db"
	"github.com/pokerjest/stamper/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SiteStore holds per-user data. It lives in its own file so rebuilding the
// media store never touches it.
type SiteStore struct {
	db *gorm.DB
}

func OpenSiteStore(path string) (*SiteStore, error) {
	gdb, err := db.OpenSite(path)
	if err != nil {
		return nil, err
	}
	return &SiteStore{db: gdb}, nil
}

func (s *SiteStore) Close() error {
	return db.Close(s.db)
}

// TouchHistory records a view. Viewing the same media again only moves the
// entry to the top.
func (s *SiteStore) TouchHistory(ctx context.Context, h model.History) error {
	if h.WatchedAt.IsZero() {
		h.WatchedAt = time.Now()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_type"}, {Name: "media_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched_at", "title", "poster_url"}),
	}).Create(&h).Error
}

// History lists a user's entries, most recent first.
func (s *SiteStore) History(ctx context.Context, userID uint, limit int) ([]model.History, error) {
	rows := []model.History{}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("watched_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return rows, q.Find(&rows).Error
}

// AddFavorite is idempotent per (user, media).
func (s *SiteStore) AddFavorite(ctx context.Context, userID uint, mediaID int) error {
	fav := model.Favorite{UserID: userID, MediaID: mediaID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
}

// RemoveFavorite reports whether an entry was deleted.
func (s *SiteStore) RemoveFavorite(ctx context.Context, userID uint, mediaID int) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND media_id = ?", userID, mediaID).
		Delete(&model.Favorite{})
	return res.RowsAffected > 0, res.Error
}

func (s *SiteStore) Favorites(ctx context.Context, userID uint) ([]model.Favorite, error) {
	rows := []model.Favorite{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (s *SiteStore) IsFavorite(ctx context.Context, userID uint, mediaID int) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND media_id = ?", userID, mediaID).
		Count(&n).Error
	return n > 0, err
}
