package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mohamedbeat/gyxy-recorder/logger"
	"github.com/mohamedbeat/gyxy-recorder/proxy"
	"go.uber.org/zap"
	"gopkg.in/urfave/cli.v1"
)

const usageTemplate = `{{.Name}} version {{.Version}} - {{.Usage}}

{{.HelpName}} [options] portToBindTo hostToForwardTo portToForwardTo

OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
`

func main() {
	app := newApp()
	if err := app.Run(hoistFlags(os.Args, app.Flags)); err != nil {
		os.Exit(2)
	}
}

func newApp() *cli.App {
	cli.AppHelpTemplate = usageTemplate

	app := cli.NewApp()
	app.Name = "gyxy-recorder"
	app.Version = "1.0"
	app.Usage = "forwarding proxy that records every transaction to disk"
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "f, folder",
			Usage: "Output folder",
			Value: defaultFolder,
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "info",
		},
		cli.IntFlag{
			Name:  "max-conns",
			Usage: "Maximum concurrent upstream connections",
			Value: defaultMaxConns,
		},
	}

	app.Action = func(c *cli.Context) error {
		cfg, err := parseConfig(c.Args(), c.String("folder"), c.Int("max-conns"))
		if err != nil {
			fmt.Fprintln(c.App.ErrWriter, color.RedString(err.Error()))
			cli.HelpPrinter(c.App.ErrWriter, usageTemplate, c.App)
			return err
		}

		logg, err := logger.InitLogger(c.String("log-level"))
		if err != nil {
			fmt.Fprintln(c.App.ErrWriter, color.RedString(err.Error()))
			return err
		}
		defer logg.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := proxy.New(cfg, logg).Bind(ctx); err != nil {
			logg.Error("Proxy server failed", zap.Error(err))
			return err
		}
		return nil
	}

	return app
}
