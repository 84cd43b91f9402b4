package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/df07/go-photon-raytracer/web/server"
)

func main() {
	app := cli.NewApp()
	app.Name = "raytracer-web"
	app.Usage = "stream renders to the browser"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "port", Value: 8080, Usage: "port to serve on"},
		cli.StringFlag{Name: "scenes", Value: "scenes", Usage: "directory of JSON scenes"},
	}
	app.Action = func(c *cli.Context) error {
		webServer := server.NewServer(c.Int("port"), c.String("scenes"))
		fmt.Printf("Visit http://localhost:%d to start rendering\n", c.Int("port"))
		return webServer.Start()
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
}
