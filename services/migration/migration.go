package migration

import (
	"github.com/go-pg/migrations/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cs "github.com/webtor-io/common-services"
)

const defaultDir = "migrations"

// PGMigration applies sql migrations found in dir together with the ones
// registered on the collection.
type PGMigration struct {
	db  *cs.PG
	col *migrations.Collection
	dir string
}

func NewPGMigration(db *cs.PG, col *migrations.Collection) *PGMigration {
	return &PGMigration{
		db:  db,
		col: col,
		dir: defaultDir,
	}
}

func (s *PGMigration) WithDir(dir string) *PGMigration {
	s.dir = dir
	return s
}

func (s *PGMigration) Run(a ...string) error {
	db := s.db.Get()
	if db == nil {
		log.Infof("DB not initialized, skipping migration")
		return nil
	}
	if err := s.col.DiscoverSQLMigrations(s.dir); err != nil {
		return errors.Wrapf(err, "failed to discover migrations in %v", s.dir)
	}
	_, _, err := s.col.Run(db, "init")
	if err != nil {
		return errors.Wrap(err, "failed to init DB PGMigrations")
	}
	oldVersion, newVersion, err := s.col.Run(db, a...)
	if err != nil {
		return errors.Wrapf(err, "failed to perform PGMigration from %v to %v", oldVersion, newVersion)
	}
	if newVersion != oldVersion {
		log.Infof("DB migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Infof("DB PGMigration version is %d", oldVersion)
	}
	return nil
}
