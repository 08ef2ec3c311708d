package parser

import (
	"testing"

	"github.com/pokerjest/stamper/internal/anilist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnime(t *testing.T) {
	rows, err := ParseAnime([]anilist.Media{
		{
			ID:           11111,
			Title:        anilist.MediaTitle{Romaji: "Test Anime", English: strp("Test Anime EN")},
			Episodes:     intp(24),
			AverageScore: intp(85),
			Trending:     100,
			Genres:       []string{"Action", "Drama"},
			Description:  strp("Test <b>anime</b> description<br>(Source: AniList)"),
			CoverImage:   anilist.CoverImage{Large: "https://example.com/cover.jpg"},
			StartDate:    anilist.FuzzyDate{Year: intp(2023), Month: intp(4), Day: intp(15)},
		},
		{
			ID:    22222,
			Title: anilist.MediaTitle{Romaji: "Bare"},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	a := rows[0]
	assert.Equal(t, 11111, a.AniListID)
	assert.Equal(t, "Test Anime EN", *a.TitleEnglish)
	require.NotNil(t, a.AverageScore)
	assert.InDelta(t, 8.5, *a.AverageScore, 0.0001)
	assert.Equal(t, "Action, Drama", a.Genres)
	assert.Equal(t, "Test anime description", a.Description)
	assert.Equal(t, "https://example.com/cover.jpg", *a.CoverURL)
	assert.Equal(t, "04-15-2023", a.StartDate)

	b := rows[1]
	assert.Nil(t, b.TitleEnglish)
	assert.Nil(t, b.AverageScore)
	assert.Nil(t, b.CoverURL)
	assert.Equal(t, "", b.Genres)
	assert.Equal(t, "", b.StartDate)
	assert.Equal(t, "", b.Description)
}

func TestParseAnime_MissingID(t *testing.T) {
	_, err := ParseAnime([]anilist.Media{{Title: anilist.MediaTitle{Romaji: "x"}}})
	var ne *NormalizationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "anime", ne.Entity)
}

func TestParseAnimeEpisodes_OrderAndIDs(t *testing.T) {
	list := &anilist.EpisodeList{
		AniListID: 11111,
		Episodes: []anilist.StreamingEpisode{
			{Title: strp("Episode 3 - Third")},
			{Title: strp("Episode 1 - First")},
			{Title: strp("Recap")},
			{Title: strp("Episode 2 - Second")},
		},
		Airing: []anilist.AiringNode{
			{Episode: 1, AiringAt: 1681516800},
		},
	}

	rows := ParseAnimeEpisodes(list)
	require.Len(t, rows, 4)

	titles := []string{rows[0].EpisodeTitle, rows[1].EpisodeTitle, rows[2].EpisodeTitle, rows[3].EpisodeTitle}
	assert.Equal(t, []string{"Recap", "Episode 1 - First", "Episode 2 - Second", "Episode 3 - Third"}, titles)

	assert.Equal(t, 111110001, rows[0].EpisodeID)
	assert.Equal(t, 111110004, rows[3].EpisodeID)
	assert.Equal(t, 11111, rows[1].AniListID)
	assert.Equal(t, "2023-04-15", rows[1].AirDate)
	assert.Equal(t, "", rows[2].AirDate)
	assert.Nil(t, rows[1].Description)

	// input untouched
	assert.Equal(t, "Episode 3 - Third", *list.Episodes[0].Title)
}

func TestParseAnimeEpisodes_StableOnTies(t *testing.T) {
	rows := ParseAnimeEpisodes(&anilist.EpisodeList{
		AniListID: 5,
		Episodes: []anilist.StreamingEpisode{
			{Title: strp("Opening")},
			{Title: nil},
			{Title: strp("Ending")},
		},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, "Opening", rows[0].EpisodeTitle)
	assert.Equal(t, "", rows[1].EpisodeTitle)
	assert.Equal(t, "Ending", rows[2].EpisodeTitle)
}

func TestParseAnimeEpisodes_Empty(t *testing.T) {
	assert.Empty(t, ParseAnimeEpisodes(nil))
	assert.Empty(t, ParseAnimeEpisodes(&anilist.EpisodeList{AniListID: 1}))
}
