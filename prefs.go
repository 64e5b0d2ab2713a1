package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/webtor-io/whattowatch/models"
	"github.com/webtor-io/whattowatch/services/store"
)

const (
	prefsLikedFlag      = "liked"
	prefsBookmarkedFlag = "bookmarked"
	prefsOutFlag        = "out"
	prefsS3BucketFlag   = "s3-bucket"
	prefsS3KeyFlag      = "s3-key"
)

func makePrefsCMD() cli.Command {
	prefsCmd := cli.Command{
		Name:    "prefs",
		Aliases: []string{"p"},
		Usage:   "Stored preferences operations",
	}
	configurePrefs(&prefsCmd)
	return prefsCmd
}

func configurePrefs(c *cli.Command) {
	listCmd := cli.Command{
		Name:    "list",
		Usage:   "Lists liked and bookmarked movies",
		Aliases: []string{"l"},
		Action:  prefsList,
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  prefsLikedFlag,
				Usage: "only liked movies",
			},
			cli.BoolFlag{
				Name:  prefsBookmarkedFlag,
				Usage: "only bookmarked movies",
			},
		},
	}
	exportCmd := cli.Command{
		Name:    "export",
		Usage:   "Exports stored movies as json to file or s3",
		Aliases: []string{"e"},
		Action:  prefsExport,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  prefsOutFlag,
				Usage: "output file (- for stdout)",
				Value: "-",
			},
			cli.StringFlag{
				Name:   prefsS3BucketFlag,
				Usage:  "s3 bucket, export goes to s3 when set",
				EnvVar: "EXPORT_S3_BUCKET",
			},
			cli.StringFlag{
				Name:   prefsS3KeyFlag,
				Usage:  "s3 object key",
				EnvVar: "EXPORT_S3_KEY",
			},
		},
	}
	exportCmd.Flags = cs.RegisterS3ClientFlags(exportCmd.Flags)
	c.Subcommands = []cli.Command{listCmd, exportCmd}
	for k := range c.Subcommands {
		c.Subcommands[k].Flags = configureStore(c.Subcommands[k].Flags)
	}
}

func listFilter(c *cli.Context) (models.StoredMovieFilter, error) {
	liked := c.Bool(prefsLikedFlag)
	bookmarked := c.Bool(prefsBookmarkedFlag)
	switch {
	case liked && bookmarked:
		return 0, errors.New("liked and bookmarked flags are mutually exclusive")
	case liked:
		return models.StoredMovieFilterLiked, nil
	case bookmarked:
		return models.StoredMovieFilterBookmarked, nil
	default:
		return models.StoredMovieFilterAll, nil
	}
}

func loadStored(ctx context.Context, st store.Store, f models.StoredMovieFilter) ([]models.StoredMovie, error) {
	switch f {
	case models.StoredMovieFilterLiked:
		return st.GetAllLiked(ctx)
	case models.StoredMovieFilterBookmarked:
		return st.GetAllBookmarked(ctx)
	default:
		return st.GetAll(ctx)
	}
}

func prefsList(c *cli.Context) error {
	f, err := listFilter(c)
	if err != nil {
		return err
	}

	// Setting Store
	st, closeStore, err := makeStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	list, err := loadStored(context.Background(), st, f)
	if err != nil {
		return err
	}
	return writeStoredTable(os.Stdout, list)
}

func flagMark(v bool) string {
	if v {
		return "+"
	}
	return "-"
}

func writeStoredTable(w io.Writer, list []models.StoredMovie) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tRATING\tPOPULARITY\tGENRES\tLIKED\tBOOKMARKED")
	for _, m := range list {
		_, _ = fmt.Fprintf(tw, "%v\t%v\t%v\t%.1f (%v)\t%v\t%v\t%v\t%v\n",
			m.ID,
			m.Title,
			m.ReleaseDate,
			m.VoteAverage,
			models.GetRatingBand(m.VoteAverage),
			humanize.CommafWithDigits(m.Popularity, 1),
			strings.Join(m.GetGenreLabels(), ", "),
			flagMark(m.Liked),
			flagMark(m.Bookmarked),
		)
	}
	_, _ = fmt.Fprintf(tw, "\n%v movies\n", humanize.Comma(int64(len(list))))
	return tw.Flush()
}

type storedExport struct {
	ExportedAt time.Time            `json:"exported_at"`
	Movies     []models.StoredMovie `json:"movies"`
}

func encodeExport(list []models.StoredMovie, at time.Time) ([]byte, error) {
	b, err := json.MarshalIndent(&storedExport{
		ExportedAt: at.UTC(),
		Movies:     list,
	}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode export")
	}
	return b, nil
}

func prefsExport(c *cli.Context) error {
	// Setting Store
	st, closeStore, err := makeStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	list, err := st.GetAll(ctx)
	if err != nil {
		return err
	}
	b, err := encodeExport(list, time.Now())
	if err != nil {
		return err
	}

	if bucket := c.String(prefsS3BucketFlag); bucket != "" {
		return exportToS3(ctx, c, bucket, b)
	}
	out := c.String(prefsOutFlag)
	if out == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if err := os.WriteFile(out, b, 0644); err != nil {
		return errors.Wrapf(err, "failed to write export to %v", out)
	}
	log.Infof("exported %v movies (%v) to %v", len(list), humanize.Bytes(uint64(len(b))), out)
	return nil
}

func exportToS3(ctx context.Context, c *cli.Context, bucket string, b []byte) error {
	key := c.String(prefsS3KeyFlag)
	if key == "" {
		key = fmt.Sprintf("whattowatch/export-%v.json", time.Now().UTC().Format("20060102T150405Z"))
	}

	// Setting S3 Client
	s3Cl := cs.NewS3Client(c, http.DefaultClient)
	if s3Cl == nil {
		return errors.New("s3 client is not configured")
	}

	up := s3manager.NewUploaderWithClient(s3Cl.Get())
	res, err := up.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload export to s3://%v/%v", bucket, key)
	}
	log.Infof("exported %v to %v", humanize.Bytes(uint64(len(b))), res.Location)
	return nil
}
