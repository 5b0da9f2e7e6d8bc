package api

import (
	"encoding/json"
	"strconv"
)

// PosterBaseURL prefixes a Movie.PosterPath to form a full image URL.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// MoviePageBaseURL prefixes a movie ID to form its public TMDB page.
const MoviePageBaseURL = "https://www.themoviedb.org/movie/"

// Movie is one catalog result. Only ID, Title, and PosterPath drive
// behavior; the remaining fields are display hints and Raw keeps the
// result exactly as the catalog sent it.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	OriginalLanguage string  `json:"original_language"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps a copy of the raw object.
func (m *Movie) UnmarshalJSON(data []byte) error {
	type plain Movie
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Movie(p)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// PosterURL returns the full poster URL, or "" when the movie has none.
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return PosterBaseURL + m.PosterPath
}

// PageURL returns the movie's public TMDB page.
func (m Movie) PageURL() string {
	return MoviePageBaseURL + strconv.FormatInt(m.ID, 10)
}

// Year returns the release year, or "" when the release date is unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// ResultsResponse is the envelope shared by search and discover.
type ResultsResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}
