package model

import "fmt"

const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
	MediaTypeAnime = "anime"
)

// Media is one movie or one TV series (series level, not per episode).
type Media struct {
	TMDBID      int      `json:"tmdb_id" gorm:"column:tmdb_id;primaryKey;autoIncrement:false"`
	Title       string   `json:"title"`
	MediaType   string   `json:"media_type" gorm:"index"`
	PosterURL   *string  `json:"poster_url"`
	Overview    string   `json:"overview"`
	ReleaseDate string   `json:"release_date"`
	Runtime     *int     `json:"runtime"` // movies only
	VoteAverage *float64 `json:"vote_average"`
}

func (Media) TableName() string { return "media" }

// Season belongs to exactly one Media row of type tv.
type Season struct {
	SeasonID     string   `json:"season_id" gorm:"primaryKey"`
	TVID         int      `json:"tv_id" gorm:"column:tv_id;index"`
	Title        string   `json:"title"` // parent series title
	SeasonNumber int      `json:"season_number"`
	Name         string   `json:"name"`
	Overview     string   `json:"overview"`
	PosterURL    *string  `json:"poster_url"`
	AirDate      string   `json:"air_date"`
	EpisodeCount *int     `json:"episode_count"`
	VoteAverage  *float64 `json:"vote_average"`
}

func (Season) TableName() string { return "seasons" }

// SeasonID derives the season key from its series id and season number.
func SeasonID(tvID, seasonNumber int) string {
	return fmt.Sprintf("%d-%d", tvID, seasonNumber)
}

// Episode belongs to exactly one Season; TVID always equals the season's TVID.
type Episode struct {
	EpisodeID     int      `json:"episode_id" gorm:"primaryKey;autoIncrement:false"`
	SeasonID      string   `json:"season_id" gorm:"index"`
	TVID          int      `json:"tv_id" gorm:"column:tv_id"`
	SeasonNumber  int      `json:"season_number"`
	EpisodeNumber int      `json:"episode_number"`
	Name          string   `json:"name" gorm:"column:episode_name"`
	Overview      string   `json:"overview"`
	AirDate       string   `json:"air_date"`
	Runtime       *int     `json:"runtime"`
	VoteAverage   *float64 `json:"vote_average"`
	StillURL      *string  `json:"still_url"`
}

func (Episode) TableName() string { return "episodes" }

// FeaturedEntry is a snapshot ranking row. Rank is the 1-based position in
// the provider's trending list at refresh time.
type FeaturedEntry struct {
	TMDBID    int     `json:"tmdb_id" gorm:"column:tmdb_id;primaryKey;autoIncrement:false"`
	Title     string  `json:"title"`
	PosterURL *string `json:"poster_url"`
	Rank      int     `json:"rank" gorm:"index"`
}

type FeaturedMovie struct {
	FeaturedEntry
}

func (FeaturedMovie) TableName() string { return "featured_movies" }

type FeaturedTV struct {
	FeaturedEntry
}

func (FeaturedTV) TableName() string { return "featured_tv" }

type Anime struct {
	AniListID    int      `json:"anilist_id" gorm:"column:anilist_id;primaryKey;autoIncrement:false"`
	TitleRomaji  string   `json:"title_romaji"`
	TitleEnglish *string  `json:"title_english"`
	EpisodeCount *int     `json:"episode_count"`
	Duration     *int     `json:"duration"`
	AverageScore *float64 `json:"average_score"` // 0-10
	Trending     int      `json:"trending" gorm:"index"`
	Genres       string   `json:"genres"` // ", " joined, never null
	Description  string   `json:"description"`
	CoverURL     *string  `json:"cover_url"`
	StartDate    string   `json:"start_date"`
}

func (Anime) TableName() string { return "anime" }

type AnimeEpisode struct {
	EpisodeID    int     `json:"episode_id" gorm:"primaryKey;autoIncrement:false"`
	AniListID    int     `json:"anilist_id" gorm:"column:anilist_id;index"`
	EpisodeTitle string  `json:"episode_title"`
	AirDate      string  `json:"air_date"`
	Description  *string `json:"description"`
}

func (AnimeEpisode) TableName() string { return "anime_ep" }

// MediaModels lists every relation of the media store, in load order.
func MediaModels() []interface{} {
	return []interface{}{
		&FeaturedMovie{}, &FeaturedTV{}, &Media{}, &Season{}, &Episode{}, &Anime{}, &AnimeEpisode{},
	}
}

// SeasonDetail is a season with its episodes ordered by episode number.
type SeasonDetail struct {
	Season
	Episodes []Episode `json:"episodes"`
}
