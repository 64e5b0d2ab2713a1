package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"

	"github.com/webtor-io/whattowatch/models"
)

const (
	tmdbApiKeyFlag     = "tmdb-api-key"
	tmdbApiSecureFlag  = "tmdb-api-secure"
	tmdbApiHostFlag    = "tmdb-api-host"
	tmdbApiPortFlag    = "tmdb-api-port"
	tmdbApiPathFlag    = "tmdb-api-path"
	tmdbApiRateFlag    = "tmdb-api-rate"
	tmdbApiTimeoutFlag = "tmdb-api-timeout"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   tmdbApiHostFlag,
			Usage:  "tmdb api host",
			EnvVar: "TMDB_API_HOST",
			Value:  "api.themoviedb.org",
		},
		cli.IntFlag{
			Name:   tmdbApiPortFlag,
			Usage:  "tmdb api port",
			EnvVar: "TMDB_API_PORT",
			Value:  443,
		},
		cli.StringFlag{
			Name:   tmdbApiPathFlag,
			Usage:  "tmdb api path prefix",
			EnvVar: "TMDB_API_PATH",
			Value:  "/3",
		},
		cli.BoolTFlag{
			Name:   tmdbApiSecureFlag,
			Usage:  "tmdb api secure (https)",
			EnvVar: "TMDB_API_SECURE",
		},
		cli.StringFlag{
			Name:   tmdbApiKeyFlag,
			Usage:  "tmdb api key",
			Value:  "",
			EnvVar: "TMDB_API_KEY",
		},
		cli.Float64Flag{
			Name:   tmdbApiRateFlag,
			Usage:  "tmdb api requests per second (0 - unlimited)",
			Value:  4,
			EnvVar: "TMDB_API_RATE",
		},
		cli.DurationFlag{
			Name:   tmdbApiTimeoutFlag,
			Usage:  "tmdb api request timeout",
			Value:  15 * time.Second,
			EnvVar: "TMDB_API_TIMEOUT",
		},
	)
}

// Catalog is a remote source of movies.
type Catalog interface {
	Popular(ctx context.Context, page int) (*models.CatalogPage, error)
	Search(ctx context.Context, query string, page int) (*models.CatalogPage, error)
}

var (
	ErrNetwork = errors.New("catalog network error")
	ErrServer  = errors.New("catalog server error")
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// ServerError means the response was not 2xx or could not be decoded.
// StatusCode is zero for decode failures.
type ServerError struct {
	StatusCode int
	Err        error
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server failure: status code %v", e.StatusCode)
	}
	return fmt.Sprintf("server failure: %v", e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

type Api struct {
	url            string
	cl             *http.Client
	limiter        *rate.Limiter
	prepareRequest func(r *http.Request) (*http.Request, error)
}

func New(c *cli.Context, cl *http.Client) *Api {
	host := c.String(tmdbApiHostFlag)
	port := c.Int(tmdbApiPortFlag)
	secure := c.BoolT(tmdbApiSecureFlag)
	key := c.String(tmdbApiKeyFlag)
	if key == "" {
		return nil
	}
	protocol := "http"
	if secure {
		protocol = "https"
	}
	u := fmt.Sprintf("%v://%v:%v%v", protocol, host, port, c.String(tmdbApiPathFlag))
	if timeout := c.Duration(tmdbApiTimeoutFlag); timeout > 0 {
		ncl := *cl
		ncl.Timeout = timeout
		cl = &ncl
	}
	log.Infof("tmdb api endpoint %v", u)
	return NewApi(u, key, c.Float64(tmdbApiRateFlag), cl)
}

// NewApi makes client for the given base url. Zero rps disables rate limiting.
func NewApi(u string, key string, rps float64, cl *http.Client) *Api {
	var limiter *rate.Limiter
	if rps > 0 {
		burst := int(rps * 2)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Api{
		url:     u,
		cl:      cl,
		limiter: limiter,
		prepareRequest: func(r *http.Request) (*http.Request, error) {
			q := r.URL.Query()
			q.Set("api_key", key)
			r.URL.RawQuery = q.Encode()
			return r, nil
		},
	}
}

func (api *Api) Popular(ctx context.Context, page int) (*models.CatalogPage, error) {
	return api.get(ctx, "/movie/popular", map[string]string{
		"page": strconv.Itoa(page),
	})
}

func (api *Api) Search(ctx context.Context, query string, page int) (*models.CatalogPage, error) {
	return api.get(ctx, "/search/movie", map[string]string{
		"query": query,
		"page":  strconv.Itoa(page),
	})
}

func (api *Api) get(ctx context.Context, path string, params map[string]string) (*models.CatalogPage, error) {
	if api.limiter != nil {
		if err := api.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Err: errors.Wrap(err, "rate limiter")}
		}
	}
	reqURL := fmt.Sprintf("%s%s", api.url, path)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	req, err = api.prepareRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "prepare request")
	}

	resp, err := api.cl.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "request failed")}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}

	var page models.CatalogPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		var ne net.Error
		if errors.As(err, &ne) {
			return nil, &NetworkError{Err: errors.Wrap(err, "read response")}
		}
		return nil, &ServerError{Err: errors.Wrap(err, "decode response")}
	}
	if page.Results == nil {
		page.Results = []models.Movie{}
	}
	return &page, nil
}
