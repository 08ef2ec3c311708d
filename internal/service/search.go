package service

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/store"
	"github.com/pokerjest/stamper/internal/tmdb"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// SearchResult is the shape shared by local and upstream matches.
// PosterURL is "" rather than null when there is no poster.
type SearchResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MediaType   string `json:"media_type"`
	PosterURL   string `json:"poster_url"`
}

type SearchSource interface {
	SearchMulti(ctx context.Context, query string) ([]tmdb.ListItem, error)
}

// SearchService matches titles in the media store and falls back to a TMDB
// multi search when nothing local matches.
type SearchService struct {
	store  *store.MediaStore
	source SearchSource
	log    hclog.Logger
}

func NewSearchService(st *store.MediaStore, source SearchSource, log hclog.Logger) *SearchService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &SearchService{store: st, source: source, log: log}
}

// Search clamps limit to [1, MaxSearchLimit]; zero or less selects the default.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	results := []SearchResult{}
	if query == "" {
		return results, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	rows, err := s.store.SearchMedia(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		for _, m := range rows {
			poster := ""
			if m.PosterURL != nil {
				poster = *m.PosterURL
			}
			results = append(results, SearchResult{
				ID:          m.TMDBID,
				Title:       m.Title,
				Description: m.Overview,
				MediaType:   m.MediaType,
				PosterURL:   poster,
			})
		}
		return results, nil
	}

	if s.source == nil {
		return results, nil
	}
	items, err := s.source.SearchMulti(ctx, query)
	if err != nil {
		s.log.Warn("upstream search failed", "query", query, "error", err)
		return results, nil
	}
	if len(items) > limit {
		items = items[:limit]
	}
	for _, item := range items {
		if item.MediaType != model.MediaTypeMovie && item.MediaType != model.MediaTypeTV {
			continue
		}
		title := item.Title
		if title == "" {
			title = item.Name
		}
		poster := ""
		if item.PosterPath != "" {
			poster = tmdb.ThumbBaseURL + item.PosterPath
		}
		results = append(results, SearchResult{
			ID:          item.ID,
			Title:       title,
			Description: item.Overview,
			MediaType:   item.MediaType,
			PosterURL:   poster,
		})
	}
	return results, nil
}
