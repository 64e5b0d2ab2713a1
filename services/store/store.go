package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/webtor-io/whattowatch/models"
)

const (
	storeDriverFlag     = "store-driver"
	storeSQLitePathFlag = "store-sqlite-path"
)

const (
	DriverSQLite = "sqlite"
	DriverPG     = "pg"
)

var (
	ErrNotFound = errors.New("movie not found")
	ErrConflict = errors.New("movie already exists")
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   storeDriverFlag,
			Usage:  "preference store driver (sqlite or pg)",
			Value:  DriverSQLite,
			EnvVar: "STORE_DRIVER",
		},
		cli.StringFlag{
			Name:   storeSQLitePathFlag,
			Usage:  "sqlite database path (:memory: for in-memory store)",
			Value:  defaultSQLitePath(),
			EnvVar: "STORE_SQLITE_PATH",
		},
	)
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "movies.db"
	}
	return filepath.Join(home, ".whattowatch", "movies.db")
}

// Store keeps liked and bookmarked movies. Every call is atomic and
// durable once it returns.
type Store interface {
	GetAll(ctx context.Context) ([]models.StoredMovie, error)
	GetAllLiked(ctx context.Context) ([]models.StoredMovie, error)
	GetAllBookmarked(ctx context.Context) ([]models.StoredMovie, error)
	GetByID(ctx context.Context, id int) (*models.StoredMovie, error)
	Exists(ctx context.Context, id int) (bool, error)
	IsLiked(ctx context.Context, id int) (bool, error)
	IsBookmarked(ctx context.Context, id int) (bool, error)
	Insert(ctx context.Context, m *models.StoredMovie) error
	Update(ctx context.Context, m *models.StoredMovie) error
	Delete(ctx context.Context, id int) error
	Close() error
}

func Driver(c *cli.Context) string {
	return c.String(storeDriverFlag)
}

// New opens store selected by flags. pg is used only by the pg driver.
func New(c *cli.Context, pg *cs.PG) (Store, error) {
	switch d := Driver(c); d {
	case DriverSQLite:
		path := c.String(storeSQLitePathFlag)
		log.Infof("using sqlite store at %v", path)
		return OpenSQLite(path)
	case DriverPG:
		if pg == nil || pg.Get() == nil {
			return nil, errors.New("pg store requested but db not initialized")
		}
		log.Info("using pg store")
		return NewPG(pg), nil
	default:
		return nil, errors.Errorf("unknown store driver %q", d)
	}
}
