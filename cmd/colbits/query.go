package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/colbits/internal/metrics"
	"github.com/rpcpool/colbits/internal/table"
)

func newQueryCmd() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "look up one id in a Table File",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "path to a Table File"},
			&cli.StringFlag{Name: "key-width", Value: "u64", Usage: "u16|u32|u64"},
			&cli.BoolFlag{Name: "prefetch", Usage: "prefetch whole buckets instead of scanning incrementally"},
		},
		Args:      true,
		ArgsUsage: "<id>",
		Action:    runQuery,
	}
}

func runQuery(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("query expects exactly one positional <id> argument")
	}
	id, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing id: %w", err)
	}

	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	var payload []byte
	switch c.String("key-width") {
	case "u16":
		payload, err = queryTable[uint16](f, uint16(id), c.Bool("prefetch"))
	case "u32":
		payload, err = queryTable[uint32](f, uint32(id), c.Bool("prefetch"))
	case "u64":
		payload, err = queryTable[uint64](f, id, c.Bool("prefetch"))
	default:
		return fmt.Errorf("unknown key-width %q", c.String("key-width"))
	}
	metrics.TableQueryLatency.WithLabelValues(c.String("file")).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	fmt.Printf("%d bytes: %x\n", len(payload), payload)
	return nil
}

func queryTable[T table.Key](f *os.File, id T, prefetch bool) ([]byte, error) {
	db, err := table.Open[T](f)
	if err != nil {
		return nil, err
	}
	db.Prefetch(prefetch)
	return db.Query(id)
}
