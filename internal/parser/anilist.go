package parser

import (
	"sort"
	"time"

	"github.com/pokerjest/stamper/internal/anilist"
	"github.com/pokerjest/stamper/internal/model"
)

// episodeIDBase spaces the derived episode ids of consecutive anime apart.
// AniList streaming episodes carry no id of their own.
const episodeIDBase = 10000

// ParseAnime normalizes one page of AniList media.
func ParseAnime(items []anilist.Media) ([]model.Anime, error) {
	rows := make([]model.Anime, 0, len(items))
	for _, m := range items {
		if m.ID == 0 {
			return nil, &NormalizationError{Entity: "anime", Field: "id"}
		}
		var cover *string
		if url := coverURL(m.CoverImage); url != "" {
			cover = &url
		}
		var score *float64
		if m.AverageScore != nil {
			s := float64(*m.AverageScore) / 10
			score = &s
		}
		rows = append(rows, model.Anime{
			AniListID:    m.ID,
			TitleRomaji:  m.Title.Romaji,
			TitleEnglish: m.Title.English,
			EpisodeCount: m.Episodes,
			Duration:     m.Duration,
			AverageScore: score,
			Trending:     m.Trending,
			Genres:       JoinGenres(m.Genres),
			Description:  CleanDescription(m.Description),
			CoverURL:     cover,
			StartDate:    FormatStartDate(m.StartDate.Year, m.StartDate.Month, m.StartDate.Day),
		})
	}
	return rows, nil
}

// ParseAnimeEpisodes orders a streaming episode list by the number found in
// each title (stable for ties) and assigns ids derived from the anime id and
// the resulting position.
func ParseAnimeEpisodes(list *anilist.EpisodeList) []model.AnimeEpisode {
	if list == nil || len(list.Episodes) == 0 {
		return nil
	}

	eps := make([]anilist.StreamingEpisode, len(list.Episodes))
	copy(eps, list.Episodes)
	sort.SliceStable(eps, func(i, j int) bool {
		return ExtractEpisodeNumber(eps[i].Title) < ExtractEpisodeNumber(eps[j].Title)
	})

	aired := make(map[int]string, len(list.Airing))
	for _, node := range list.Airing {
		if node.AiringAt > 0 {
			aired[node.Episode] = time.Unix(node.AiringAt, 0).UTC().Format("2006-01-02")
		}
	}

	rows := make([]model.AnimeEpisode, 0, len(eps))
	for i, ep := range eps {
		title := ""
		if ep.Title != nil {
			title = *ep.Title
		}
		rows = append(rows, model.AnimeEpisode{
			EpisodeID:    list.AniListID*episodeIDBase + i + 1,
			AniListID:    list.AniListID,
			EpisodeTitle: title,
			AirDate:      aired[ExtractEpisodeNumber(ep.Title)],
		})
	}
	return rows
}

func coverURL(c anilist.CoverImage) string {
	switch {
	case c.Large != "":
		return c.Large
	case c.ExtraLarge != "":
		return c.ExtraLarge
	default:
		return c.Medium
	}
}
