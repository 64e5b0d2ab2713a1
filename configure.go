package main

import (
	"github.com/urfave/cli"
)

func configure(app *cli.App) {
	serveCMD := makeServeCMD()
	migrationCMD := makePGMigrationCMD()
	prefsCMD := makePrefsCMD()
	catalogCMD := makeCatalogCMD()
	app.Commands = []cli.Command{serveCMD, migrationCMD, prefsCMD, catalogCMD}
}
