package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/upstream"
)

const (
	Provider     = "tmdb"
	BaseURL      = "https://api.themoviedb.org/3"
	ImageBaseURL = "https://image.tmdb.org/t/p/w780"
	// ThumbBaseURL is used for search results.
	ThumbBaseURL = "https://image.tmdb.org/t/p/w200"
)

const (
	KindMovie = "movie"
	KindTV    = "tv"
)

type Client struct {
	client       *resty.Client
	imageBaseURL string
}

// NewClient builds a client with credentials fixed at construction.
// The v3 key is sent as api_key on every request; a v4 token, when set,
// is sent as a bearer header.
func NewClient(cfg config.TMDBConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	imageBase := cfg.ImageBaseURL
	if imageBase == "" {
		imageBase = ImageBaseURL
	}

	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	if cfg.Proxy != "" {
		c.SetProxy(cfg.Proxy)
	}
	if cfg.APIKey != "" {
		c.SetQueryParam("api_key", cfg.APIKey)
	}
	if cfg.Token != "" {
		c.SetHeader("Authorization", "Bearer "+cfg.Token)
	}
	c.SetHeader("Accept", "application/json")

	return &Client{
		client:       c,
		imageBaseURL: imageBase,
	}
}

// ImageBaseURL is the CDN prefix poster paths are joined to.
func (c *Client) ImageBaseURL() string {
	return c.imageBaseURL
}

// FetchPopular issues one request per page and concatenates results in page order.
func (c *Client) FetchPopular(ctx context.Context, kind string, pages int) ([]ListItem, error) {
	var results []ListItem
	for page := 1; page <= pages; page++ {
		var resp pageResponse
		if err := c.get(ctx, "/"+kind+"/popular", map[string]string{"page": strconv.Itoa(page)}, &resp); err != nil {
			return nil, fmt.Errorf("fetch popular %s page %d: %w", kind, page, err)
		}
		results = append(results, resp.Results...)
	}
	return results, nil
}

// FetchFeatured reads the daily trending list, keeping at most perPage items of each page.
func (c *Client) FetchFeatured(ctx context.Context, kind string, pages, perPage int) ([]ListItem, error) {
	var results []ListItem
	for page := 1; page <= pages; page++ {
		var resp pageResponse
		if err := c.get(ctx, "/trending/"+kind+"/day", map[string]string{"page": strconv.Itoa(page)}, &resp); err != nil {
			return nil, fmt.Errorf("fetch featured %s page %d: %w", kind, page, err)
		}
		items := resp.Results
		if perPage > 0 && len(items) > perPage {
			items = items[:perPage]
		}
		results = append(results, items...)
	}
	return results, nil
}

func (c *Client) GetMovie(ctx context.Context, id int) (*MovieDetails, error) {
	var movie MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// MovieRuntime returns the runtime in minutes, nil when TMDB has none.
func (c *Client) MovieRuntime(ctx context.Context, id int) (*int, error) {
	movie, err := c.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	return movie.Runtime, nil
}

// GetTV fetches series details including the season list.
func (c *Client) GetTV(ctx context.Context, id int) (*TVDetails, error) {
	var show TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

func (c *Client) FetchSeasons(ctx context.Context, tvID int) ([]Season, error) {
	show, err := c.GetTV(ctx, tvID)
	if err != nil {
		return nil, err
	}
	return show.Seasons, nil
}

func (c *Client) FetchEpisodes(ctx context.Context, tvID, seasonNumber int) ([]Episode, error) {
	var season SeasonDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", tvID, seasonNumber), nil, &season); err != nil {
		return nil, err
	}
	return season.Episodes, nil
}

// SearchMulti queries movies, series and people at once; callers filter by MediaType.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]ListItem, error) {
	var resp pageResponse
	params := map[string]string{
		"query":         query,
		"include_adult": "false",
		"page":          "1",
	}
	if err := c.get(ctx, "/search/multi", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	req := c.client.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return upstream.TransportError(Provider, err)
	}
	if !resp.IsSuccess() {
		return upstream.StatusError(Provider, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return nil
}
