package main

import (
	"fmt"
	"os"

	"github.com/arkade-os/checkpointd/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version will be set during build time
var Version string

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "checkpointd"
	app.Version = Version
	app.Usage = "checkpoint manager of a service node chain"
	app.Flags = config.Flags()
	app.Commands = commands()
	return app
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
