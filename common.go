package main

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/webtor-io/whattowatch/services/store"
	"github.com/webtor-io/whattowatch/services/tmdb"
)

func configureCatalog(f []cli.Flag) []cli.Flag {
	f = tmdb.RegisterFlags(f)
	f = tmdb.RegisterCacheFlags(f)
	return f
}

func configureStore(f []cli.Flag) []cli.Flag {
	f = store.RegisterFlags(f)
	f = cs.RegisterPGFlags(f)
	f = registerMigrationFlags(f)
	return f
}

// makeCatalog returns catalog with optional caching. Returned redis client
// is nil when shared cache is disabled.
func makeCatalog(c *cli.Context, cl *http.Client) (tmdb.Catalog, redis.UniversalClient, error) {
	// Setting TMDB API
	api := tmdb.New(c, cl)
	if api == nil {
		return nil, nil, errors.New("tmdb api key is not set")
	}

	// Setting Redis
	rcl := tmdb.NewRedisClient(c)

	// Setting Cache
	return tmdb.NewCachedCatalogFromContext(c, api, rcl), rcl, nil
}

// makeStore opens preference store. For pg driver pending migrations are
// applied first.
func makeStore(c *cli.Context) (store.Store, func(), error) {
	if store.Driver(c) != store.DriverPG {
		st, err := store.New(c, nil)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			_ = st.Close()
		}, nil
	}

	// Setting DB
	pg := cs.NewPG(c)

	// Setting Migrations
	if err := pgMigrate(c, "up"); err != nil {
		pg.Close()
		return nil, nil, err
	}

	st, err := store.New(c, pg)
	if err != nil {
		pg.Close()
		return nil, nil, err
	}
	return st, func() {
		_ = st.Close()
		pg.Close()
	}, nil
}
