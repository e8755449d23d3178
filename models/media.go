package models

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// MediaType distinguishes the two catalog entry kinds we track.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Valid reports whether the media type is one we track.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// MediaItem is an immutable catalog entry as returned by the catalog client.
// Once embedded in a CollectionItem it is never mutated.
type MediaItem struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Overview         string    `json:"overview,omitempty"`
	PosterPath       string    `json:"posterPath,omitempty"`
	BackdropPath     string    `json:"backdropPath,omitempty"`
	ReleaseDate      string    `json:"releaseDate,omitempty"` // YYYY-MM-DD format
	VoteAverage      float64   `json:"voteAverage"`
	GenreIDs         []int     `json:"genreIds,omitempty"`
	MediaType        MediaType `json:"mediaType"`
	OriginalLanguage string    `json:"originalLanguage,omitempty"` // ISO 639-1 code
}

// ReleaseYear parses the year out of the release date, returning 0 when absent.
func (m MediaItem) ReleaseYear() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// LanguageName resolves an ISO 639-1 code to its English display name so the
// shell never has to carry its own language table. Unknown codes are returned
// unchanged.
func LanguageName(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
