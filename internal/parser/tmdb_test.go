package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImageBase = "https://image.tmdb.org/t/p/w780"

type fakeRuntimes struct {
	runtimes map[int]int
	calls    []int
}

func (f *fakeRuntimes) MovieRuntime(ctx context.Context, id int) (*int, error) {
	f.calls = append(f.calls, id)
	rt, ok := f.runtimes[id]
	if !ok {
		return nil, errors.New("lookup failed")
	}
	return &rt, nil
}

func TestParseItems_Movies(t *testing.T) {
	rts := &fakeRuntimes{runtimes: map[int]int{1: 120}}
	p := NewItemParser(testImageBase, rts, nil)

	rows, err := p.ParseItems(context.Background(), []tmdb.ListItem{
		{ID: 1, Title: "First", PosterPath: "/a.jpg", ReleaseDate: "2024-01-01"},
		{ID: 2, Title: "Second"},
	}, model.MediaTypeMovie)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []int{1, 2}, rts.calls)
	assert.Equal(t, "movie", rows[0].MediaType)
	require.NotNil(t, rows[0].Runtime)
	assert.Equal(t, 120, *rows[0].Runtime)
	assert.Equal(t, testImageBase+"/a.jpg", *rows[0].PosterURL)
	assert.Equal(t, "2024-01-01", rows[0].ReleaseDate)

	// failed runtime lookup leaves the row in the batch
	assert.Nil(t, rows[1].Runtime)
	assert.Nil(t, rows[1].PosterURL)
}

func TestParseItems_TVSkipsRuntimeLookup(t *testing.T) {
	rts := &fakeRuntimes{}
	p := NewItemParser(testImageBase, rts, nil)

	rows, err := p.ParseItems(context.Background(), []tmdb.ListItem{
		{ID: 7, Name: "A Show", FirstAirDate: "2020-05-05"},
	}, model.MediaTypeTV)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Empty(t, rts.calls)
	assert.Equal(t, "A Show", rows[0].Title)
	assert.Equal(t, "2020-05-05", rows[0].ReleaseDate)
	assert.Nil(t, rows[0].Runtime)
}

func TestParseItems_MissingID(t *testing.T) {
	p := NewItemParser(testImageBase, nil, nil)
	_, err := p.ParseItems(context.Background(), []tmdb.ListItem{{Title: "x"}}, model.MediaTypeTV)

	var ne *NormalizationError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "id", ne.Field)
}

func TestParseFeatured_Rank(t *testing.T) {
	p := NewItemParser(testImageBase, nil, nil)
	rows, err := p.ParseFeatured([]tmdb.ListItem{
		{ID: 30, Title: "C"},
		{ID: 10, Title: "A"},
		{ID: 20, Name: "B"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 30, rows[0].TMDBID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, 3, rows[2].Rank)
	assert.Equal(t, "B", rows[2].Title)
}

func TestParseMovie(t *testing.T) {
	p := NewItemParser(testImageBase, nil, nil)
	row, err := p.ParseMovie(&tmdb.MovieDetails{
		ListItem: tmdb.ListItem{ID: 12345, Title: "Test Movie"},
		Runtime:  intp(95),
	})
	require.NoError(t, err)
	assert.Equal(t, 12345, row.TMDBID)
	assert.Equal(t, model.MediaTypeMovie, row.MediaType)
	assert.Equal(t, 95, *row.Runtime)
}

func TestParseSeasons(t *testing.T) {
	p := NewItemParser(testImageBase, nil, nil)
	rows, err := p.ParseSeasons(67890, "Test Show", []tmdb.Season{
		{SeasonNumber: intp(1), Name: "Season 1", Overview: "anything", EpisodeCount: intp(10)},
		{SeasonNumber: intp(0), Name: "Specials", PosterPath: "/s.jpg"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "67890-1", rows[0].SeasonID)
	assert.Equal(t, "Test Show", rows[0].Title)
	assert.Equal(t, 67890, rows[0].TVID)
	assert.Equal(t, "67890-0", rows[1].SeasonID)
	assert.Equal(t, testImageBase+"/s.jpg", *rows[1].PosterURL)

	_, err = p.ParseSeasons(67890, "Test Show", []tmdb.Season{{Name: "broken"}})
	var ne *NormalizationError
	assert.ErrorAs(t, err, &ne)
}

func TestParseEpisodes(t *testing.T) {
	p := NewItemParser(testImageBase, nil, nil)
	rows, err := p.ParseEpisodes(67890, 1, "67890-1", []tmdb.Episode{
		{ID: 111, EpisodeNumber: intp(1), Name: "Pilot", StillPath: "/still.jpg", Runtime: intp(45)},
		{ID: 112, Name: "No number"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 111, rows[0].EpisodeID)
	assert.Equal(t, "67890-1", rows[0].SeasonID)
	assert.Equal(t, 67890, rows[0].TVID)
	assert.Equal(t, 1, rows[0].SeasonNumber)
	assert.Equal(t, 1, rows[0].EpisodeNumber)
	assert.Equal(t, testImageBase+"/still.jpg", *rows[0].StillURL)
	assert.Equal(t, 0, rows[1].EpisodeNumber)
	assert.Nil(t, rows[1].StillURL)
}
