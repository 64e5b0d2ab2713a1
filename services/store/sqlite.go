package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/webtor-io/whattowatch/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS movies (
	id INTEGER PRIMARY KEY NOT NULL,
	backdrop_path TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	overview TEXT NOT NULL DEFAULT '',
	poster_path TEXT NOT NULL DEFAULT '',
	genre_ids TEXT NOT NULL DEFAULT '',
	popularity REAL NOT NULL DEFAULT 0,
	release_date TEXT NOT NULL DEFAULT '',
	vote_average REAL NOT NULL DEFAULT 0,
	liked INTEGER NOT NULL DEFAULT 0,
	bookmarked INTEGER NOT NULL DEFAULT 0,
	user_score INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS movies_liked_idx ON movies(liked);
CREATE INDEX IF NOT EXISTS movies_bookmarked_idx ON movies(bookmarked);
`

const sqliteColumns = `id, backdrop_path, title, overview, poster_path, genre_ids,
	popularity, release_date, vote_average, liked, bookmarked, user_score`

type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens database at path, creating schema when missing.
// Each ":memory:" store is private to its caller.
func OpenSQLite(path string) (*SQLite, error) {
	memory := path == ":memory:"
	var dsn string
	if memory {
		dsn = fmt.Sprintf("file:%v?mode=memory&cache=shared", uuid.NewString())
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) GetAll(ctx context.Context) ([]models.StoredMovie, error) {
	return s.list(ctx, models.StoredMovieFilterAll)
}

func (s *SQLite) GetAllLiked(ctx context.Context) ([]models.StoredMovie, error) {
	return s.list(ctx, models.StoredMovieFilterLiked)
}

func (s *SQLite) GetAllBookmarked(ctx context.Context) ([]models.StoredMovie, error) {
	return s.list(ctx, models.StoredMovieFilterBookmarked)
}

func (s *SQLite) list(ctx context.Context, f models.StoredMovieFilter) ([]models.StoredMovie, error) {
	q := "SELECT " + sqliteColumns + " FROM movies"
	switch f {
	case models.StoredMovieFilterLiked:
		q += " WHERE liked = 1"
	case models.StoredMovieFilterBookmarked:
		q += " WHERE bookmarked = 1"
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %v movies", f)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)
	list := []models.StoredMovie{}
	for rows.Next() {
		m, err := scanStoredMovie(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %v movies", f)
	}
	models.SortByTitle(list)
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStoredMovie(r scanner) (*models.StoredMovie, error) {
	var m models.StoredMovie
	err := r.Scan(&m.ID, &m.BackdropPath, &m.Title, &m.Overview, &m.PosterPath, &m.GenreIDs,
		&m.Popularity, &m.ReleaseDate, &m.VoteAverage, &m.Liked, &m.Bookmarked, &m.UserScore)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan movie")
	}
	return &m, nil
}

func (s *SQLite) GetByID(ctx context.Context, id int) (*models.StoredMovie, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteColumns+" FROM movies WHERE id = ?", id)
	m, err := scanStoredMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLite) exists(ctx context.Context, id int, cond string) (bool, error) {
	q := "SELECT EXISTS(SELECT 1 FROM movies WHERE id = ?"
	if cond != "" {
		q += " AND " + cond
	}
	q += ")"
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check movie existence")
	}
	return exists, nil
}

func (s *SQLite) Exists(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, id, "")
}

func (s *SQLite) IsLiked(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, id, "liked = 1")
}

func (s *SQLite) IsBookmarked(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, id, "bookmarked = 1")
}

func (s *SQLite) Insert(ctx context.Context, m *models.StoredMovie) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO movies ("+sqliteColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING",
		m.ID, m.BackdropPath, m.Title, m.Overview, m.PosterPath, m.GenreIDs,
		m.Popularity, m.ReleaseDate, m.VoteAverage, m.Liked, m.Bookmarked, m.UserScore)
	if err != nil {
		return errors.Wrap(err, "failed to insert movie")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to insert movie")
	}
	if n == 0 {
		return errors.Wrapf(ErrConflict, "id %v", m.ID)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, m *models.StoredMovie) error {
	sets := []string{
		"backdrop_path = ?", "title = ?", "overview = ?", "poster_path = ?", "genre_ids = ?",
		"popularity = ?", "release_date = ?", "vote_average = ?", "liked = ?", "bookmarked = ?", "user_score = ?",
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE movies SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		m.BackdropPath, m.Title, m.Overview, m.PosterPath, m.GenreIDs,
		m.Popularity, m.ReleaseDate, m.VoteAverage, m.Liked, m.Bookmarked, m.UserScore, m.ID)
	if err != nil {
		return errors.Wrap(err, "failed to update movie")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to update movie")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "id %v", m.ID)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id int) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete movie")
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
