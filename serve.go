package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/webtor-io/whattowatch/handlers/movies"
	"github.com/webtor-io/whattowatch/handlers/state"
	"github.com/webtor-io/whattowatch/services/engine"
	w "github.com/webtor-io/whattowatch/services/web"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves sync engine over http",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = configureStore(c.Flags)
	c.Flags = configureCatalog(c.Flags)
}

func serve(c *cli.Context) error {
	// Setting HTTP Client
	cl := http.DefaultClient

	// Setting Store
	st, closeStore, err := makeStore(c)
	if err != nil {
		return err
	}
	defer closeStore()

	// Setting Catalog
	cat, rcl, err := makeCatalog(c, cl)
	if err != nil {
		return err
	}
	if rcl != nil {
		defer func() {
			_ = rcl.Close()
		}()
	}

	// Setting Engine
	en := engine.New(st, cat)
	defer en.Close()

	var servers []cs.Servable
	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Gin
	r := gin.Default()
	r.RedirectTrailingSlash = false

	// Setting Web
	web, err := w.New(c, r)
	if err != nil {
		return err
	}
	servers = append(servers, web)
	defer web.Close()

	// Setting StateHandler
	state.RegisterHandler(r, en)

	// Setting MoviesHandler
	movies.RegisterHandler(r, en)

	// Starting Engine
	en.Start()

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}
