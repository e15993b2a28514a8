package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("colbits")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-interrupt:
			log.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "colbits",
		Usage:       "columnar bit-packed storage engine",
		Description: "Ingest, inspect and query bit-packed column files and their secondary indexes.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "info",
			},
		},
		Before: func(c *cli.Context) error {
			level := c.String("log-level")
			if err := logging.SetLogLevel("*", level); err != nil {
				return fmt.Errorf("invalid log-level %q: %w", level, err)
			}
			return nil
		},
		Commands: []*cli.Command{
			newIngestCmd(),
			newInspectCmd(),
			newQueryCmd(),
			newBenchCmd(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
