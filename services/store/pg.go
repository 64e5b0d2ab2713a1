package store

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
	cs "github.com/webtor-io/common-services"

	"github.com/webtor-io/whattowatch/models"
)

// PG keeps preferences in postgres. Schema is owned by migrations.
type PG struct {
	pg *cs.PG
}

func NewPG(pg *cs.PG) *PG {
	return &PG{pg: pg}
}

func (s *PG) db() (*pg.DB, error) {
	db := s.pg.Get()
	if db == nil {
		return nil, errors.New("db not initialized")
	}
	return db, nil
}

func (s *PG) list(ctx context.Context, f models.StoredMovieFilter) ([]models.StoredMovie, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	list, err := models.GetStoredMovies(ctx, db, f)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.StoredMovie{}
	}
	return list, nil
}

func (s *PG) GetAll(ctx context.Context) ([]models.StoredMovie, error) {
	return s.list(ctx, models.StoredMovieFilterAll)
}

func (s *PG) GetAllLiked(ctx context.Context) ([]models.StoredMovie, error) {
	return s.list(ctx, models.StoredMovieFilterLiked)
}

func (s *PG) GetAllBookmarked(ctx context.Context) ([]models.StoredMovie, error) {
	return s.list(ctx, models.StoredMovieFilterBookmarked)
}

func (s *PG) GetByID(ctx context.Context, id int) (*models.StoredMovie, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	m, err := models.GetStoredMovieByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *PG) exists(ctx context.Context, id int, cond string) (bool, error) {
	db, err := s.db()
	if err != nil {
		return false, err
	}
	return models.StoredMovieExists(ctx, db, id, cond)
}

func (s *PG) Exists(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, id, "")
}

func (s *PG) IsLiked(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, id, "liked")
}

func (s *PG) IsBookmarked(ctx context.Context, id int) (bool, error) {
	return s.exists(ctx, id, "bookmarked")
}

func (s *PG) Insert(ctx context.Context, m *models.StoredMovie) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	inserted, err := models.InsertStoredMovie(ctx, db, m)
	if err != nil {
		return err
	}
	if !inserted {
		return errors.Wrapf(ErrConflict, "id %v", m.ID)
	}
	return nil
}

func (s *PG) Update(ctx context.Context, m *models.StoredMovie) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	updated, err := models.UpdateStoredMovie(ctx, db, m)
	if err != nil {
		return err
	}
	if !updated {
		return errors.Wrapf(ErrNotFound, "id %v", m.ID)
	}
	return nil
}

func (s *PG) Delete(ctx context.Context, id int) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return models.DeleteStoredMovie(ctx, db, id)
}

// Close is a no-op, connection is owned by the caller.
func (s *PG) Close() error {
	return nil
}

var _ Store = (*PG)(nil)
