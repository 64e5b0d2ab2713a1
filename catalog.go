package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/webtor-io/whattowatch/models"
	"github.com/webtor-io/whattowatch/services/tmdb"
)

const catalogPageFlag = "page"

func makeCatalogCMD() cli.Command {
	catalogCmd := cli.Command{
		Name:    "catalog",
		Aliases: []string{"c"},
		Usage:   "Remote catalog operations",
	}
	configureCatalogCMD(&catalogCmd)
	return catalogCmd
}

func configureCatalogCMD(c *cli.Command) {
	popularCmd := cli.Command{
		Name:    "popular",
		Usage:   "Prints popular movies, warms shared cache",
		Aliases: []string{"p"},
		Action: func(c *cli.Context) error {
			return catalogFetch(c, func(ctx context.Context, cat tmdb.Catalog, page int) (*models.CatalogPage, error) {
				return cat.Popular(ctx, page)
			})
		},
	}
	searchCmd := cli.Command{
		Name:      "search",
		Usage:     "Searches movies by title",
		Aliases:   []string{"s"},
		ArgsUsage: "QUERY",
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args(), " "))
			if query == "" {
				return errors.New("empty search query")
			}
			return catalogFetch(c, func(ctx context.Context, cat tmdb.Catalog, page int) (*models.CatalogPage, error) {
				return cat.Search(ctx, query, page)
			})
		},
	}
	c.Subcommands = []cli.Command{popularCmd, searchCmd}
	for k := range c.Subcommands {
		configureSubCatalog(&c.Subcommands[k])
	}
}

func configureSubCatalog(c *cli.Command) {
	c.Flags = append(c.Flags,
		cli.IntFlag{
			Name:  catalogPageFlag,
			Usage: "page to fetch",
			Value: 1,
		},
	)
	c.Flags = configureCatalog(c.Flags)
}

func catalogFetch(c *cli.Context, f func(ctx context.Context, cat tmdb.Catalog, page int) (*models.CatalogPage, error)) error {
	// Setting Catalog
	cat, rcl, err := makeCatalog(c, http.DefaultClient)
	if err != nil {
		return err
	}
	if rcl != nil {
		defer func() {
			_ = rcl.Close()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	page := c.Int(catalogPageFlag)
	log.Infof("fetching catalog page %v", page)
	p, err := f(ctx, cat, page)
	if err != nil {
		return err
	}
	return writeCatalogTable(os.Stdout, p.Results)
}

func writeCatalogTable(w io.Writer, list []models.Movie) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tRATING\tPOPULARITY\tGENRES\tPOSTER")
	for _, m := range list {
		_, _ = fmt.Fprintf(tw, "%v\t%v\t%v\t%.1f (%v)\t%v\t%v\t%v\n",
			m.ID,
			m.Title,
			m.ReleaseDate,
			m.VoteAverage,
			m.GetRatingBand(),
			humanize.CommafWithDigits(m.Popularity, 1),
			strings.Join(m.GetGenreLabels(), ", "),
			models.ImageURL(m.GetPosterPath(), models.ImageSizeW185),
		)
	}
	return tw.Flush()
}
