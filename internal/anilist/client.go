package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pokerjest/stamper/internal/config"
	"github.com/pokerjest/stamper/internal/upstream"
)

const (
	Provider        = "anilist"
	GraphQLEndpoint = "https://graphql.anilist.co"
)

const pageQuery = `
query ($page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(type: ANIME, sort: TRENDING_DESC) {
      id
      title {
        romaji
        english
      }
      episodes
      duration
      averageScore
      trending
      genres
      description(asHtml: false)
      coverImage {
        large
      }
      startDate {
        year
        month
        day
      }
    }
  }
}
`

const episodesQuery = `
query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    duration
    streamingEpisodes {
      title
      thumbnail
      url
      site
    }
    airingSchedule(notYetAired: false, perPage: 50) {
      nodes {
        episode
        airingAt
      }
    }
  }
}
`

type Client struct {
	client   *resty.Client
	endpoint string
	pacer    upstream.Pacer
}

// NewClient builds a client. pacer gates the per-anime episode calls; nil
// selects a fixed-interval pacer of cfg.Pace.
func NewClient(cfg config.AniListConfig, pacer upstream.Pacer) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = GraphQLEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if pacer == nil {
		pacer = upstream.NewIntervalPacer(cfg.Pace)
	}

	c := resty.New()
	c.SetTimeout(timeout)
	if cfg.Proxy != "" {
		c.SetProxy(cfg.Proxy)
	}
	if cfg.Token != "" {
		c.SetHeader("Authorization", "Bearer "+cfg.Token)
	}
	c.SetHeader("Content-Type", "application/json")
	c.SetHeader("Accept", "application/json")

	return &Client{
		client:   c,
		endpoint: endpoint,
		pacer:    pacer,
	}
}

// FetchAnimePage reads `pages` pages of trending anime and concatenates them in page order.
func (c *Client) FetchAnimePage(ctx context.Context, pages, perPage int) ([]Media, error) {
	var results []Media
	for page := 1; page <= pages; page++ {
		var resp pageResponse
		vars := map[string]interface{}{"page": page, "perPage": perPage}
		if err := c.post(ctx, pageQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("fetch anime page %d: %w", page, err)
		}
		if len(resp.Errors) > 0 {
			return nil, graphQLFailure(resp.Errors)
		}
		results = append(results, resp.Data.Page.Media...)
	}
	return results, nil
}

// FetchAnimeEpisodes returns the streaming episode list and duration of one anime.
// An unknown id yields an empty list rather than an error.
func (c *Client) FetchAnimeEpisodes(ctx context.Context, id int) (*EpisodeList, error) {
	var resp episodesResponse
	list := &EpisodeList{AniListID: id, Episodes: []StreamingEpisode{}}

	if err := c.post(ctx, episodesQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		if upstream.IsNotFound(err) {
			return list, nil
		}
		return nil, fmt.Errorf("fetch anime %d episodes: %w", id, err)
	}
	if len(resp.Errors) > 0 {
		if resp.Errors[0].Status == http.StatusNotFound {
			return list, nil
		}
		return nil, graphQLFailure(resp.Errors)
	}
	if resp.Data.Media == nil {
		return list, nil
	}

	m := resp.Data.Media
	list.Duration = m.Duration
	if m.StreamingEpisodes != nil {
		list.Episodes = m.StreamingEpisodes
	}
	list.Airing = m.AiringSchedule.Nodes
	return list, nil
}

// FetchEpisodeLists fetches episode lists for each id in order, waiting on
// the pacer before every call.
func (c *Client) FetchEpisodeLists(ctx context.Context, ids []int) ([]*EpisodeList, error) {
	lists := make([]*EpisodeList, 0, len(ids))
	for _, id := range ids {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		list, err := c.FetchAnimeEpisodes(ctx, id)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

func (c *Client) post(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	payload := map[string]interface{}{
		"query":     query,
		"variables": vars,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.endpoint)
	if err != nil {
		return upstream.TransportError(Provider, err)
	}
	if !resp.IsSuccess() {
		return upstream.StatusError(Provider, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("anilist: decode response: %w", err)
	}
	return nil
}

func graphQLFailure(errs []graphQLError) error {
	status := errs[0].Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &upstream.UpstreamError{
		Provider:   Provider,
		StatusCode: status,
		Err:        fmt.Errorf("graphql: %s", errs[0].Message),
	}
}
