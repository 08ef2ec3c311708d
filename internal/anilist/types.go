package anilist

type MediaTitle struct {
	Romaji  string  `json:"romaji"`
	English *string `json:"english"`
	Native  string  `json:"native"`
}

type CoverImage struct {
	ExtraLarge string `json:"extraLarge"`
	Large      string `json:"large"`
	Medium     string `json:"medium"`
}

// FuzzyDate may have any of its parts missing.
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type Media struct {
	ID           int        `json:"id"`
	Title        MediaTitle `json:"title"`
	Episodes     *int       `json:"episodes"`
	Duration     *int       `json:"duration"`
	AverageScore *int       `json:"averageScore"`
	Trending     int        `json:"trending"`
	Genres       []string   `json:"genres"`
	Description  *string    `json:"description"`
	CoverImage   CoverImage `json:"coverImage"`
	StartDate    FuzzyDate  `json:"startDate"`
}

type StreamingEpisode struct {
	Title     *string `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	URL       string  `json:"url"`
	Site      string  `json:"site"`
}

type AiringNode struct {
	Episode  int   `json:"episode"`
	AiringAt int64 `json:"airingAt"`
}

// EpisodeList is what the per-anime episode query yields. Duration is nil
// when AniList has no media for the id.
type EpisodeList struct {
	AniListID int
	Duration  *int
	Episodes  []StreamingEpisode
	Airing    []AiringNode
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type pageResponse struct {
	Data struct {
		Page struct {
			Media []Media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type episodesResponse struct {
	Data struct {
		Media *struct {
			ID                int                `json:"id"`
			Duration          *int               `json:"duration"`
			StreamingEpisodes []StreamingEpisode `json:"streamingEpisodes"`
			AiringSchedule    struct {
				Nodes []AiringNode `json:"nodes"`
			} `json:"airingSchedule"`
		} `json:"Media"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
