package models

// Movie is a catalog entry as returned by the remote API. It is never
// mutated after it has been fetched.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	BackdropPath *string `json:"backdrop_path"`
	PosterPath   *string `json:"poster_path"`
	GenreIDs     []int   `json:"genre_ids"`
	Popularity   float64 `json:"popularity"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
}

// CatalogPage is a single page of catalog results.
type CatalogPage struct {
	Page    int     `json:"page"`
	Results []Movie `json:"results"`
}

func (s *Movie) GetBackdropPath() string {
	if s.BackdropPath == nil {
		return ""
	}
	return *s.BackdropPath
}

func (s *Movie) GetPosterPath() string {
	if s.PosterPath == nil {
		return ""
	}
	return *s.PosterPath
}

func (s *Movie) GetGenreLabels() []string {
	return GenreLabels(s.GenreIDs)
}

func (s *Movie) GetRatingBand() RatingBand {
	return GetRatingBand(s.VoteAverage)
}
