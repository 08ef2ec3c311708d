package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/service"
	"github.com/pokerjest/stamper/internal/store"
	"github.com/pokerjest/stamper/internal/tmdb"
	"github.com/pokerjest/stamper/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

type fakeTMDB struct {
	movieErr error
	search   []tmdb.ListItem
}

func (f *fakeTMDB) GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	if f.movieErr != nil {
		return nil, f.movieErr
	}
	if id != 550 {
		return nil, upstream.StatusError(tmdb.Provider, 404)
	}
	return &tmdb.MovieDetails{
		ListItem: tmdb.ListItem{ID: 550, Title: "Fight Club", PosterPath: "/fc.jpg", ReleaseDate: "1999-10-15"},
		Runtime:  intp(139),
	}, nil
}

func (f *fakeTMDB) GetTV(ctx context.Context, id int) (*tmdb.TVDetails, error) {
	if id != 1399 {
		return nil, upstream.StatusError(tmdb.Provider, 404)
	}
	return &tmdb.TVDetails{
		ListItem: tmdb.ListItem{ID: 1399, Name: "Game of Thrones"},
		Seasons:  []tmdb.Season{{SeasonNumber: intp(1), Name: "Season 1"}},
	}, nil
}

func (f *fakeTMDB) FetchEpisodes(ctx context.Context, tvID, seasonNumber int) ([]tmdb.Episode, error) {
	return []tmdb.Episode{{ID: 63056, EpisodeNumber: intp(1), Name: "Winter Is Coming"}}, nil
}

func (f *fakeTMDB) SearchMulti(ctx context.Context, query string) ([]tmdb.ListItem, error) {
	return f.search, nil
}

type fakeRefresher struct {
	mu      sync.Mutex
	running bool
	runs    int
	done    chan struct{}
}

func (f *fakeRefresher) RunFullRefresh(ctx context.Context) error {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return nil
}

func (f *fakeRefresher) Status() service.RefreshStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return service.RefreshStatus{IsRunning: f.running, LastResult: "ok"}
}

type testEnv struct {
	router  *gin.Engine
	media   *store.MediaStore
	site    *store.SiteStore
	tmdb    *fakeTMDB
	refresh *fakeRefresher
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	media, err := store.OpenMediaStore(filepath.Join(dir, "media.db"), nil)
	require.NoError(t, err)
	site, err := store.OpenSiteStore(filepath.Join(dir, "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = media.Close()
		_ = site.Close()
	})

	fake := &fakeTMDB{}
	refresher := &fakeRefresher{}
	h := NewHandler(context.Background(), Services{
		Cache:     service.NewCacheFiller(media, fake, "https://img", nil, nil),
		Catalogue: service.NewCatalogueService(media),
		Search:    service.NewSearchService(media, fake, nil),
		Library:   service.NewLibraryService(site),
		Refresh:   refresher,
	}, nil)

	r := gin.New()
	InitRoutes(r, h)
	return &testEnv{router: r, media: media, site: site, tmdb: fake, refresh: refresher}
}

func (e *testEnv) do(method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetMovie(t *testing.T) {
	env := setupRouter(t)

	w := env.do("GET", "/api/movie/550", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var m model.Media
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "Fight Club", m.Title)
	assert.Equal(t, model.MediaTypeMovie, m.MediaType)
	require.NotNil(t, m.PosterURL)
	assert.Equal(t, "https://img/fc.jpg", *m.PosterURL)
}

func TestGetMovie_Errors(t *testing.T) {
	env := setupRouter(t)

	assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/movie/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/movie/abc", nil).Code)

	env.tmdb.movieErr = upstream.StatusError(tmdb.Provider, 503)
	assert.Equal(t, http.StatusBadGateway, env.do("GET", "/api/movie/550", nil).Code)
}

func TestGetMedia_SeriesWithSeasons(t *testing.T) {
	env := setupRouter(t)

	w := env.do("GET", "/api/media/1399", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail service.SeriesDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Game of Thrones", detail.Media.Title)
	require.Len(t, detail.Seasons, 1)
	assert.Equal(t, "1399-1", detail.Seasons[0].SeasonID)
	require.Len(t, detail.Seasons[0].Episodes, 1)
	assert.Equal(t, "Winter Is Coming", detail.Seasons[0].Episodes[0].Name)

	// the fill stored the episode for direct reads
	assert.Equal(t, http.StatusOK, env.do("GET", "/api/episode/63056", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/episode/1", nil).Code)
}

func TestHistoryRecordedWithUserHeader(t *testing.T) {
	env := setupRouter(t)

	assert.Equal(t, http.StatusOK, env.do("GET", "/api/movie/550", nil).Code)
	assert.Equal(t, http.StatusOK, env.do("GET", "/api/movie/550", http.Header{"X-User-Id": {"7"}}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/movie/550", http.Header{"X-User-Id": {"nope"}}).Code)

	w := env.do("GET", "/api/users/7/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []model.History
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 550, items[0].MediaID)
	assert.Equal(t, "Fight Club", items[0].Title)
}

func TestFavorites(t *testing.T) {
	env := setupRouter(t)

	assert.Equal(t, http.StatusCreated, env.do("POST", "/api/users/3/favorites/550", nil).Code)
	assert.Equal(t, http.StatusCreated, env.do("POST", "/api/users/3/favorites/550", nil).Code)

	w := env.do("GET", "/api/users/3/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var favs []model.Favorite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favs))
	assert.Len(t, favs, 1)

	assert.Equal(t, http.StatusNoContent, env.do("DELETE", "/api/users/3/favorites/550", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/users/3/favorites/550", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/users/zero/favorites", nil).Code)
}

func TestSearch(t *testing.T) {
	env := setupRouter(t)
	env.tmdb.search = []tmdb.ListItem{
		{ID: 1, Title: "Remote Movie", MediaType: "movie", PosterPath: "/r.jpg"},
		{ID: 2, Name: "Some Person", MediaType: "person"},
	}

	w := env.do("GET", "/api/search?q=remote", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results []service.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, tmdb.ThumbBaseURL+"/r.jpg", results[0].PosterURL)

	w = env.do("GET", "/api/search", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCatalogueAndAnime(t *testing.T) {
	env := setupRouter(t)
	ctx := context.Background()
	require.NoError(t, env.media.Save(ctx, &store.Dataset{
		FeaturedMovies: []model.FeaturedMovie{{FeaturedEntry: model.FeaturedEntry{TMDBID: 1, Title: "A", Rank: 1}}},
		Anime:          []model.Anime{{AniListID: 11111, TitleRomaji: "Test Anime", Trending: 5}},
		AnimeEpisodes:  []model.AnimeEpisode{{EpisodeID: 111110001, AniListID: 11111, EpisodeTitle: "Episode 1"}},
	}))

	w := env.do("GET", "/api/catalogue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cat service.Catalogue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	assert.Len(t, cat.Movies, 1)
	assert.Len(t, cat.Anime, 1)

	w = env.do("GET", "/api/anime/11111", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail service.AnimeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Episodes, 1)

	w = env.do("GET", "/api/anime-episode/111110001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var epDetail service.AnimeEpisodeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &epDetail))
	require.NotNil(t, epDetail.Anime)
	assert.Equal(t, "Test Anime", epDetail.Anime.TitleRomaji)

	assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/anime/2", nil).Code)
}

func TestTriggerRefresh(t *testing.T) {
	env := setupRouter(t)
	env.refresh.done = make(chan struct{})

	w := env.do("POST", "/update_server", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-env.refresh.done:
	case <-time.After(time.Second):
		t.Fatal("refresh not started")
	}

	env.refresh.mu.Lock()
	env.refresh.running = true
	env.refresh.mu.Unlock()
	assert.Equal(t, http.StatusConflict, env.do("POST", "/update_server", nil).Code)

	w = env.do("GET", "/api/refresh/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status service.RefreshStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.IsRunning)
}
