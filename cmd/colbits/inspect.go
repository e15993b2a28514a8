package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/page"
)

func newInspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "dump the page headers of a column file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "path to a .bin column file"},
			&cli.StringFlag{Name: "type", Value: "u64", Usage: "u8|u16|u32|u64|i8|i16|i32|i64"},
		},
		Action: runInspect,
	}
}

func runInspect(c *cli.Context) error {
	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()
	return inspectDispatch(c.String("type"), f)
}

func inspectDispatch(kind string, f *os.File) error {
	switch kind {
	case "u8":
		return inspectColumn[uint8](f)
	case "u16":
		return inspectColumn[uint16](f)
	case "u32":
		return inspectColumn[uint32](f)
	case "u64":
		return inspectColumn[uint64](f)
	case "i8":
		return inspectColumn[int8](f)
	case "i16":
		return inspectColumn[int16](f)
	case "i32":
		return inspectColumn[int32](f)
	case "i64":
		return inspectColumn[int64](f)
	default:
		return fmt.Errorf("unknown field type %q", kind)
	}
}

func inspectColumn[T bitpack.Word](f *os.File) error {
	var (
		idx        int
		totalBytes int64
	)
	for {
		var buf [page.HeaderSize]byte
		n, err := io.ReadFull(f, buf[:])
		if err != nil {
			if n == 0 && err == io.EOF {
				break
			}
			return fmt.Errorf("reading header of page %d: %w", idx, err)
		}

		var hdr page.Header[T]
		if err := hdr.Unmarshal(buf[:]); err != nil {
			return fmt.Errorf("page %d: %w", idx, err)
		}

		fmt.Printf("page %-4d  count=%-8d  bit_width=%-3d  min=%-12v  max=%-12v  payload=%s\n",
			idx, hdr.Count, hdr.BitWidth, hdr.Min, hdr.Max, humanize.Bytes(hdr.PayloadBytes))

		if _, err := f.Seek(int64(hdr.PayloadBytes), io.SeekCurrent); err != nil {
			return fmt.Errorf("skipping payload of page %d: %w", idx, err)
		}
		totalBytes += page.HeaderSize + int64(hdr.PayloadBytes)
		idx++
	}
	fmt.Printf("%d pages, %s total\n", idx, humanize.Bytes(uint64(totalBytes)))
	return nil
}
