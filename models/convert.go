package models

import (
	"fmt"
	"strconv"
	"strings"
)

const genreSeparator = ","

// ParseError reports a malformed stored genre id list.
type ParseError struct {
	Value   string
	Segment string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse genre ids %q at segment %q: %v", e.Value, e.Segment, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func JoinGenreIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, genreSeparator)
}

// ParseGenreIDs reverses JoinGenreIDs. Empty string is an empty list.
func ParseGenreIDs(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, genreSeparator)
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ParseError{Value: s, Segment: p, Err: err}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ToStored converts catalog movie to persisted row with given preference flags.
func ToStored(m Movie, liked bool, bookmarked bool) StoredMovie {
	return StoredMovie{
		ID:           m.ID,
		BackdropPath: m.GetBackdropPath(),
		Title:        m.Title,
		Overview:     m.Overview,
		PosterPath:   m.GetPosterPath(),
		GenreIDs:     JoinGenreIDs(m.GenreIDs),
		Popularity:   m.Popularity,
		ReleaseDate:  m.ReleaseDate,
		VoteAverage:  m.VoteAverage,
		Liked:        liked,
		Bookmarked:   bookmarked,
	}
}

// ToRecord converts persisted row back to catalog movie.
// On malformed genre ids it still returns the movie, with empty genre ids,
// together with *ParseError.
func ToRecord(s StoredMovie) (Movie, error) {
	backdrop := s.BackdropPath
	poster := s.PosterPath
	m := Movie{
		ID:           s.ID,
		Title:        s.Title,
		Overview:     s.Overview,
		BackdropPath: &backdrop,
		PosterPath:   &poster,
		Popularity:   s.Popularity,
		ReleaseDate:  s.ReleaseDate,
		VoteAverage:  s.VoteAverage,
	}
	ids, err := ParseGenreIDs(s.GenreIDs)
	if err != nil {
		m.GenreIDs = []int{}
		return m, err
	}
	m.GenreIDs = ids
	return m, nil
}
