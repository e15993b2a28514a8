package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/colbits/internal/bitpack"
	"github.com/rpcpool/colbits/internal/config"
	"github.com/rpcpool/colbits/internal/store"
)

func newIngestCmd() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "push a whitespace-separated stream of integers into a column",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Required: true, Usage: "path to a YAML or JSON config file"},
			&cli.StringFlag{Name: "struct", Required: true},
			&cli.StringFlag{Name: "field", Required: true},
			&cli.StringFlag{Name: "type", Value: "u64", Usage: "u8|u16|u32|u64|i8|i16|i32|i64"},
			&cli.StringFlag{Name: "input", Value: "-", Usage: "input file, or - for stdin"},
		},
		Action: runIngest,
	}
}

func runIngest(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	s, err := store.Open(cfg)
	if err != nil {
		return err
	}

	in := os.Stdin
	if path := c.String("input"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	structName, field := c.String("struct"), c.String("field")
	n, err := ingestDispatch(c.String("type"), s, structName, field, in)
	if err != nil {
		return err
	}
	fmt.Printf("ingested %d values into %s.%s\n", n, structName, field)
	return nil
}

func ingestDispatch(kind string, s *store.Store, structName, field string, in *os.File) (int, error) {
	switch kind {
	case "u8":
		return ingestColumn[uint8](s, structName, field, in)
	case "u16":
		return ingestColumn[uint16](s, structName, field, in)
	case "u32":
		return ingestColumn[uint32](s, structName, field, in)
	case "u64":
		return ingestColumn[uint64](s, structName, field, in)
	case "i8":
		return ingestColumn[int8](s, structName, field, in)
	case "i16":
		return ingestColumn[int16](s, structName, field, in)
	case "i32":
		return ingestColumn[int32](s, structName, field, in)
	case "i64":
		return ingestColumn[int64](s, structName, field, in)
	default:
		return 0, fmt.Errorf("unknown field type %q", kind)
	}
}

func ingestColumn[T bitpack.Word](s *store.Store, structName, field string, in *os.File) (int, error) {
	w, err := store.OpenColumnWriter[T](s, structName, field)
	if err != nil {
		return 0, err
	}

	n := 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				w.Close()
				return n, fmt.Errorf("parsing %q: %w", tok, err)
			}
			if err := w.Push(T(v)); err != nil {
				w.Close()
				return n, err
			}
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		w.Close()
		return n, err
	}
	return n, w.Close()
}
