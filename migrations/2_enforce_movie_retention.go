package migrations

import (
	"github.com/go-pg/migrations/v8"
	log "github.com/sirupsen/logrus"

	"github.com/webtor-io/whattowatch/models"
)

// EnforceMovieRetention drops rows that are neither liked nor bookmarked
// and forbids them from now on.
func EnforceMovieRetention(col *migrations.Collection) {
	col.MustRegisterTx(func(db migrations.DB) error {
		res, err := db.Model((*models.StoredMovie)(nil)).
			Where("NOT liked AND NOT bookmarked").
			Delete()
		if err != nil {
			return err
		}
		if n := res.RowsAffected(); n > 0 {
			log.Infof("removed %v orphan movies", n)
		}
		_, err = db.Exec(`ALTER TABLE public.movies
			ADD CONSTRAINT movies_retained_check CHECK (liked OR bookmarked)`)
		return err
	}, func(db migrations.DB) error {
		_, err := db.Exec(`ALTER TABLE public.movies DROP CONSTRAINT IF EXISTS movies_retained_check`)
		return err
	})
}
