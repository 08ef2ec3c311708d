package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return nil
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func newTestClient(t *testing.T, pacer upstream.Pacer, h func(req gqlRequest, w http.ResponseWriter)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		h(req, w)
	}))
	t.Cleanup(srv.Close)
	return NewClient(config.AniListConfig{Endpoint: srv.URL, Timeout: 2 * time.Second}, pacer)
}

func TestFetchAnimePage(t *testing.T) {
	var pages []float64
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		pages = append(pages, req.Variables["page"].(float64))
		assert.Equal(t, float64(50), req.Variables["perPage"])
		_, _ = w.Write([]byte(`{"data":{"Page":{"media":[{
			"id": 11111,
			"title": {"romaji": "Test Anime", "english": "Test Anime EN"},
			"episodes": 24,
			"averageScore": 85,
			"trending": 100,
			"genres": ["Action", "Drama"],
			"description": "Test anime description",
			"coverImage": {"large": "https://example.com/cover.jpg"},
			"startDate": {"year": 2023, "month": 4, "day": 15}
		}]}}}`))
	})

	media, err := c.FetchAnimePage(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, pages)
	require.Len(t, media, 2)
	assert.Equal(t, 11111, media[0].ID)
	assert.Equal(t, "Test Anime", media[0].Title.Romaji)
	require.NotNil(t, media[0].Title.English)
	assert.Equal(t, "Test Anime EN", *media[0].Title.English)
	assert.Equal(t, 85, *media[0].AverageScore)
	assert.Equal(t, 2023, *media[0].StartDate.Year)
}

func TestFetchAnimePage_StatusError(t *testing.T) {
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchAnimePage(context.Background(), 1, 50)
	var ue *upstream.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
}

func TestFetchAnimePage_GraphQLError(t *testing.T) {
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Invalid query","status":400}]}`))
	})

	_, err := c.FetchAnimePage(context.Background(), 1, 50)
	var ue *upstream.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 400, ue.StatusCode)
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestFetchAnimeEpisodes(t *testing.T) {
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		assert.Equal(t, float64(11111), req.Variables["id"])
		_, _ = w.Write([]byte(`{"data":{"Media":{
			"id": 11111,
			"duration": 24,
			"streamingEpisodes": [
				{"title": "Episode 1", "thumbnail": "https://example.com/ep1.jpg"},
				{"title": "Episode 2", "thumbnail": "https://example.com/ep2.jpg"}
			],
			"airingSchedule": {"nodes": [{"episode": 1, "airingAt": 1681516800}]}
		}}}`))
	})

	list, err := c.FetchAnimeEpisodes(context.Background(), 11111)
	require.NoError(t, err)
	require.NotNil(t, list.Duration)
	assert.Equal(t, 24, *list.Duration)
	require.Len(t, list.Episodes, 2)
	assert.Equal(t, "Episode 1", *list.Episodes[0].Title)
	require.Len(t, list.Airing, 1)
}

func TestFetchAnimeEpisodes_NoMedia(t *testing.T) {
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"data":{"Media":null}}`))
	})

	list, err := c.FetchAnimeEpisodes(context.Background(), 11111)
	require.NoError(t, err)
	assert.Nil(t, list.Duration)
	assert.Empty(t, list.Episodes)
}

func TestFetchAnimeEpisodes_NotFoundStatus(t *testing.T) {
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"data":{"Media":null},"errors":[{"message":"Not Found.","status":404}]}`))
	})

	list, err := c.FetchAnimeEpisodes(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, list.Episodes)
}

func TestFetchEpisodeLists_PacesEveryCall(t *testing.T) {
	pacer := &countingPacer{}
	c := newTestClient(t, pacer, func(req gqlRequest, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"data":{"Media":{"streamingEpisodes":[]}}}`))
	})

	lists, err := c.FetchEpisodeLists(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, 1, lists[0].AniListID)
	assert.Equal(t, 2, lists[1].AniListID)
	assert.Equal(t, 2, pacer.waits)
}

func TestFetchEpisodeLists_StopsOnError(t *testing.T) {
	calls := 0
	c := newTestClient(t, upstream.NoPacer{}, func(req gqlRequest, w http.ResponseWriter) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchEpisodeLists(context.Background(), []int{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
