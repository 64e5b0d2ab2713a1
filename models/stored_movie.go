package models

import (
	"context"
	"sort"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// StoredMovie is a persisted preference row. A row exists only while the
// movie is liked or bookmarked.
type StoredMovie struct {
	tableName struct{} `pg:"movies"`

	ID           int     `pg:"id,pk" json:"id"`
	BackdropPath string  `pg:"backdrop_path,use_zero,notnull" json:"backdrop_path"`
	Title        string  `pg:"title,use_zero,notnull" json:"title"`
	Overview     string  `pg:"overview,use_zero,notnull" json:"overview"`
	PosterPath   string  `pg:"poster_path,use_zero,notnull" json:"poster_path"`
	GenreIDs     string  `pg:"genre_ids,use_zero,notnull" json:"genre_ids"`
	Popularity   float64 `pg:"popularity,use_zero,notnull" json:"popularity"`
	ReleaseDate  string  `pg:"release_date,use_zero,notnull" json:"release_date"`
	VoteAverage  float64 `pg:"vote_average,use_zero,notnull" json:"vote_average"`
	Liked        bool    `pg:"liked,use_zero,notnull" json:"liked"`
	Bookmarked   bool    `pg:"bookmarked,use_zero,notnull" json:"bookmarked"`
	UserScore    int     `pg:"user_score,use_zero,notnull" json:"user_score"`
}

// Retained reports whether the row must stay in the store.
func (s *StoredMovie) Retained() bool {
	return s.Liked || s.Bookmarked
}

func (s *StoredMovie) GetGenreLabels() []string {
	ids, err := ParseGenreIDs(s.GenreIDs)
	if err != nil {
		return nil
	}
	return GenreLabels(ids)
}

// SortByTitle orders rows by title, case-insensitive and locale aware,
// ties broken by id.
func SortByTitle(rows []StoredMovie) {
	cl := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := cl.CompareString(rows[i].Title, rows[j].Title); c != 0 {
			return c < 0
		}
		return rows[i].ID < rows[j].ID
	})
}

type StoredMovieFilter int

const (
	StoredMovieFilterAll StoredMovieFilter = iota
	StoredMovieFilterLiked
	StoredMovieFilterBookmarked
)

func (s StoredMovieFilter) String() string {
	switch s {
	case StoredMovieFilterAll:
		return "all"
	case StoredMovieFilterLiked:
		return "liked"
	case StoredMovieFilterBookmarked:
		return "bookmarked"
	default:
		return "unknown"
	}
}

func GetStoredMovies(ctx context.Context, db *pg.DB, f StoredMovieFilter) ([]StoredMovie, error) {
	var list []StoredMovie
	q := db.Model(&list).
		Context(ctx).
		Order("title ASC")
	switch f {
	case StoredMovieFilterLiked:
		q = q.Where("liked")
	case StoredMovieFilterBookmarked:
		q = q.Where("bookmarked")
	}
	err := q.Select()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %v movies", f)
	}
	SortByTitle(list)
	return list, nil
}

func GetStoredMovieByID(ctx context.Context, db *pg.DB, id int) (*StoredMovie, error) {
	var m StoredMovie
	err := db.Model(&m).
		Context(ctx).
		Where("id = ?", id).
		Limit(1).
		Select()
	if errors.Is(err, pg.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch movie")
	}
	return &m, nil
}

func StoredMovieExists(ctx context.Context, db *pg.DB, id int, cond string) (bool, error) {
	q := db.Model((*StoredMovie)(nil)).
		Context(ctx).
		Where("id = ?", id)
	if cond != "" {
		q = q.Where(cond)
	}
	exists, err := q.Exists()
	if err != nil {
		return false, errors.Wrap(err, "failed to check movie existence")
	}
	return exists, nil
}

// InsertStoredMovie returns inserted=false when a row with the same id
// is already present.
func InsertStoredMovie(ctx context.Context, db *pg.DB, m *StoredMovie) (inserted bool, err error) {
	res, err := db.Model(m).
		Context(ctx).
		OnConflict("(id) DO NOTHING").
		Insert()
	if err != nil {
		return false, errors.Wrap(err, "failed to insert movie")
	}
	return res.RowsAffected() > 0, nil
}

// UpdateStoredMovie returns updated=false when there is no such row.
func UpdateStoredMovie(ctx context.Context, db *pg.DB, m *StoredMovie) (updated bool, err error) {
	res, err := db.Model(m).
		Context(ctx).
		WherePK().
		Update()
	if err != nil {
		return false, errors.Wrap(err, "failed to update movie")
	}
	return res.RowsAffected() > 0, nil
}

func DeleteStoredMovie(ctx context.Context, db *pg.DB, id int) error {
	_, err := db.Model((*StoredMovie)(nil)).
		Context(ctx).
		Where("id = ?", id).
		Delete()
	if err != nil {
		return errors.Wrap(err, "failed to delete movie")
	}
	return nil
}
