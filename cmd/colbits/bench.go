package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/colbits/internal/bufpool"
	"github.com/rpcpool/colbits/internal/column"
	"github.com/rpcpool/colbits/internal/page"
)

func newBenchCmd() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "fill a throwaway column with synthetic uint64 values and report throughput",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Value: 1_000_000, Usage: "number of synthetic values to push"},
			&cli.IntFlag{Name: "max-value", Value: 1 << 20, Usage: "upper bound (exclusive) of generated values"},
			&cli.IntFlag{Name: "page-bytes", Value: page.DefaultPageBytes},
		},
		Action: runBench,
	}
}

func runBench(c *cli.Context) error {
	count := c.Int("count")
	maxValue := c.Int("max-value")
	pageBytes := c.Int("page-bytes")

	tmpDir, err := os.MkdirTemp("", "colbits-bench-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	out, err := os.CreateTemp(tmpDir, "bench-*.bin")
	if err != nil {
		return err
	}
	defer out.Close()

	pool := bufpool.New(64 << 20)
	w, err := column.NewWriter[uint64](out, pool, pageBytes, tmpDir)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(1))
	start := time.Now()
	for i := 0; i < count; i++ {
		if err := w.Push(uint64(rng.Intn(maxValue))); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	info, err := out.Stat()
	if err != nil {
		return err
	}

	hits, misses := pool.Stats()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	fmt.Printf("pushed %s values in %s (%s/s)\n",
		humanize.Comma(int64(count)), elapsed.Round(time.Millisecond), humanize.Comma(int64(float64(count)/elapsed.Seconds())))
	fmt.Printf("column file: %s across %d pages\n", humanize.Bytes(uint64(info.Size())), w.PagesWritten)
	fmt.Printf("pool: %s hits, %s misses (%.1f%% hit rate), %s cached\n",
		humanize.Comma(int64(hits)), humanize.Comma(int64(misses)), hitRate, humanize.Bytes(uint64(pool.BytesInPool())))
	return nil
}
