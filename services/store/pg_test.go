package store

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/go-pg/migrations/v8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	m "github.com/webtor-io/whattowatch/migrations"
	"github.com/webtor-io/whattowatch/services/migration"
)

const pgMigrationsDir = "../../migrations"

// pgTestContext maps PG_TEST_* environment onto postgres flags.
func pgTestContext(t *testing.T) *cli.Context {
	t.Helper()
	host := os.Getenv("PG_TEST_HOST")
	if host == "" {
		t.Skip("PG_TEST_HOST is not set")
	}
	set := flag.NewFlagSet("pg_test", flag.ContinueOnError)
	for _, f := range cs.RegisterPGFlags(nil) {
		f.Apply(set)
	}
	for name, env := range map[string]string{
		"postgres-host":     "PG_TEST_HOST",
		"postgres-port":     "PG_TEST_PORT",
		"postgres-user":     "PG_TEST_USER",
		"postgres-password": "PG_TEST_PASSWORD",
		"postgres-database": "PG_TEST_DATABASE",
	} {
		if v := os.Getenv(env); v != "" {
			require.NoError(t, set.Set(name, v))
		}
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func pgMigrate(t *testing.T, db *cs.PG, a ...string) {
	t.Helper()
	col := migrations.NewCollection()
	m.EnforceMovieRetention(col)
	require.NoError(t, migration.NewPGMigration(db, col).WithDir(pgMigrationsDir).Run(a...))
}

func openPG(t *testing.T) Store {
	t.Helper()
	db := cs.NewPG(pgTestContext(t))
	t.Cleanup(db.Close)
	pgMigrate(t, db, "reset")
	pgMigrate(t, db, "up")
	return NewPG(db)
}

func TestPG(t *testing.T) {
	runContract(t, openPG)
}

func TestPG_RejectsOrphanRows(t *testing.T) {
	ctx := context.Background()
	s := openPG(t)

	err := s.Insert(ctx, movie(1, "Neither", false, false))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConflict))

	require.NoError(t, s.Insert(ctx, movie(2, "Liked", true, false)))
	require.Error(t, s.Update(ctx, movie(2, "Liked", false, false)))

	got, err := s.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, got.Liked)
}

func TestPG_Uninitialized(t *testing.T) {
	s := NewPG(&cs.PG{})
	_, err := s.GetAll(context.Background())
	assert.Error(t, err)
}
