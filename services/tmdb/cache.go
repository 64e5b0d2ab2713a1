package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"github.com/webtor-io/lazymap"

	"github.com/webtor-io/whattowatch/models"
)

const (
	tmdbCacheExpireFlag = "tmdb-cache-expire"
	redisHostFlag       = "redis-host"
	redisPortFlag       = "redis-port"
	redisPasswordFlag   = "redis-password"
	redisDBFlag         = "redis-db"
	redisKeyPrefix      = "whattowatch:tmdb:"
)

func RegisterCacheFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   tmdbCacheExpireFlag,
			Usage:  "tmdb response cache expiration (0 - disabled)",
			Value:  time.Minute,
			EnvVar: "TMDB_CACHE_EXPIRE",
		},
		cli.StringFlag{
			Name:   redisHostFlag,
			Usage:  "redis host (empty - shared cache disabled)",
			EnvVar: "REDIS_MASTER_SERVICE_HOST, REDIS_SERVICE_HOST",
		},
		cli.IntFlag{
			Name:   redisPortFlag,
			Usage:  "redis port",
			Value:  6379,
			EnvVar: "REDIS_MASTER_SERVICE_PORT, REDIS_SERVICE_PORT",
		},
		cli.StringFlag{
			Name:   redisPasswordFlag,
			Usage:  "redis password",
			EnvVar: "REDIS_PASS, REDIS_PASSWORD",
		},
		cli.IntFlag{
			Name:   redisDBFlag,
			Usage:  "redis db",
			EnvVar: "REDIS_DB",
		},
	)
}

// SharedCache is a second level cache shared between processes.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisCache struct {
	cl redis.UniversalClient
}

func NewRedisClient(c *cli.Context) redis.UniversalClient {
	host := c.String(redisHostFlag)
	if host == "" {
		return nil
	}
	addr := fmt.Sprintf("%v:%v", host, c.Int(redisPortFlag))
	log.Infof("using redis at %v", addr)
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: c.String(redisPasswordFlag),
		DB:       c.Int(redisDBFlag),
	})
}

func NewRedisCache(cl redis.UniversalClient) *RedisCache {
	return &RedisCache{cl: cl}
}

func (s *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.cl.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to get from redis")
	}
	return b, true, nil
}

func (s *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.cl.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
	if err != nil {
		return errors.Wrap(err, "failed to set to redis")
	}
	return nil
}

// CachedCatalog memoizes successful catalog pages. Failures are never
// kept so every retry reaches the remote catalog.
type CachedCatalog struct {
	inner  Catalog
	shared SharedCache
	expire time.Duration
	pages  *lazymap.LazyMap[*models.CatalogPage]
}

// NewCachedCatalog returns inner unchanged when expire is zero. shared may be nil.
func NewCachedCatalog(inner Catalog, shared SharedCache, expire time.Duration) Catalog {
	if expire <= 0 {
		return inner
	}
	return &CachedCatalog{
		inner:  inner,
		shared: shared,
		expire: expire,
		pages: lazymap.New[*models.CatalogPage](&lazymap.Config{
			Expire:      expire,
			ErrorExpire: time.Millisecond,
		}),
	}
}

func NewCachedCatalogFromContext(c *cli.Context, inner Catalog, rcl redis.UniversalClient) Catalog {
	var shared SharedCache
	if rcl != nil {
		shared = NewRedisCache(rcl)
	}
	return NewCachedCatalog(inner, shared, c.Duration(tmdbCacheExpireFlag))
}

func (s *CachedCatalog) Popular(ctx context.Context, page int) (*models.CatalogPage, error) {
	key := fmt.Sprintf("popular:%v", page)
	return s.get(ctx, key, func() (*models.CatalogPage, error) {
		return s.inner.Popular(ctx, page)
	})
}

func (s *CachedCatalog) Search(ctx context.Context, query string, page int) (*models.CatalogPage, error) {
	key := fmt.Sprintf("search:%v:%v", page, query)
	return s.get(ctx, key, func() (*models.CatalogPage, error) {
		return s.inner.Search(ctx, query, page)
	})
}

func (s *CachedCatalog) get(ctx context.Context, key string, f func() (*models.CatalogPage, error)) (*models.CatalogPage, error) {
	return s.pages.Get(key, func() (*models.CatalogPage, error) {
		if p := s.getShared(ctx, key); p != nil {
			return p, nil
		}
		p, err := f()
		if err != nil {
			return nil, err
		}
		s.setShared(ctx, key, p)
		return p, nil
	})
}

func (s *CachedCatalog) getShared(ctx context.Context, key string) *models.CatalogPage {
	if s.shared == nil {
		return nil
	}
	b, ok, err := s.shared.Get(ctx, key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to get catalog page from shared cache")
		return nil
	}
	if !ok {
		return nil
	}
	var p models.CatalogPage
	if err := json.Unmarshal(b, &p); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to decode cached catalog page")
		return nil
	}
	return &p
}

func (s *CachedCatalog) setShared(ctx context.Context, key string, p *models.CatalogPage) {
	if s.shared == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to encode catalog page")
		return
	}
	if err := s.shared.Set(ctx, key, b, s.expire); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to put catalog page to shared cache")
	}
}

var _ Catalog = (*Api)(nil)
var _ Catalog = (*CachedCatalog)(nil)
