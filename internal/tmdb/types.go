package tmdb

// ListItem is an entry of the popular, trending and search endpoints.
// Movies carry Title/ReleaseDate, series carry Name/FirstAirDate.
type ListItem struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Name         string   `json:"name"`
	MediaType    string   `json:"media_type"` // search/multi only
	PosterPath   string   `json:"poster_path"`
	Overview     string   `json:"overview"`
	ReleaseDate  string   `json:"release_date"`
	FirstAirDate string   `json:"first_air_date"`
	VoteAverage  *float64 `json:"vote_average"`
}

type pageResponse struct {
	Page       int        `json:"page"`
	Results    []ListItem `json:"results"`
	TotalPages int        `json:"total_pages"`
}

type MovieDetails struct {
	ListItem
	Runtime *int `json:"runtime"`
}

type TVDetails struct {
	ListItem
	Seasons []Season `json:"seasons"`
}

type Season struct {
	SeasonNumber *int     `json:"season_number"`
	Name         string   `json:"name"`
	Overview     string   `json:"overview"`
	PosterPath   string   `json:"poster_path"`
	AirDate      string   `json:"air_date"`
	EpisodeCount *int     `json:"episode_count"`
	VoteAverage  *float64 `json:"vote_average"`
}

type SeasonDetails struct {
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

type Episode struct {
	ID            int      `json:"id"`
	EpisodeNumber *int     `json:"episode_number"`
	Name          string   `json:"name"`
	Overview      string   `json:"overview"`
	AirDate       string   `json:"air_date"`
	Runtime       *int     `json:"runtime"`
	VoteAverage   *float64 `json:"vote_average"`
	StillPath     string   `json:"still_path"`
}
