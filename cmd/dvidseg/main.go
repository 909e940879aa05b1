package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/history"
	"github.com/janelia-flyem/dvidseg/labelmap"
	"github.com/janelia-flyem/dvidseg/labels"
	"github.com/janelia-flyem/dvidseg/server"
)

var (
	deflate  = flag.String("deflate", "", "")
	inflate  = flag.String("inflate", "", "")
	contour  = flag.String("contour", "", "")
	codec    = flag.String("codec", "", "")
	width    = flag.Int("width", server.DefaultOutlineWidth, "")
	config   = flag.String("config", "", "")
	histID   = flag.String("history", "", "")
	defaults = flag.Bool("defaults", false, "")
	metrics  = flag.Bool("metrics", false, "")

	// Display usage if true.
	showHelp = flag.Bool("help", false, "")
)

const helpMessage = `
dvidseg works with labelmap snapshots and slices outside a viewer.  Label data is a packed
array of little-endian uint16, row-major per slice with slices concatenated.  Snapshots are
the compressed form kept in undo/redo history.

Usage: dvidseg [options]

	-deflate        =string   Dimensions ("ROWS,COLS,SLICES") of label data on stdin to
	                          compress into a snapshot on stdout.
	-inflate        =string   Slice dimensions ("ROWS,COLS") of a snapshot on stdin to
	                          decompress onto stdout.
	-contour        =string   Dimensions ("ROWS,COLS") of one slice on stdin whose outlines
	                          are written as JSON to stdout.
	-width          =number   Outline width used by -contour (default 3).
	-codec          =string   Snapshot compression: deflate (default), snappy, zstd, none.
	-config         =string   TOML configuration file.  The codec and store are taken from it.
	-history        =string   List snapshots persisted for a history id, or "all" for ids.
	-defaults       (flag)    Write the default TOML configuration to stdout.
	-metrics        (flag)    Write metrics to stderr when done.
	-h, -help       (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Print(helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() != 0 {
		flag.Usage()
		os.Exit(0)
	}

	cfg := server.DefaultConfig()
	if *config != "" {
		var err error
		if cfg, err = server.LoadConfig(*config); err != nil {
			fatalf("%v\n", err)
		}
		cfg.Logging.SetLogger()
	}
	if *codec != "" {
		cfg.History.Compression = *codec
	}
	compression, err := dvid.ParseCompression(cfg.History.Compression)
	if err != nil {
		fatalf("%v\n", err)
	}

	switch {
	case *defaults:
		err = cfg.WriteConfig(os.Stdout)
	case *deflate != "":
		err = deflateSnapshot(compression)
	case *inflate != "":
		err = inflateSnapshot(compression)
	case *contour != "":
		err = writeContours()
	case *histID != "":
		err = listHistory(cfg)
	default:
		flag.Usage()
		os.Exit(0)
	}
	if err != nil {
		fatalf("%v\n", err)
	}
	if *metrics {
		if err := server.WriteMetrics(os.Stderr); err != nil {
			fatalf("unable to write metrics: %v\n", err)
		}
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func readStdin() ([]byte, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("error reading stdin: %v", err)
	}
	return b, nil
}

func deflateSnapshot(compression dvid.Compression) error {
	var rows, cols, slices int
	if n, err := fmt.Sscanf(*deflate, "%d,%d,%d", &rows, &cols, &slices); n != 3 || err != nil {
		return fmt.Errorf("could not interpret dimensions, should be -deflate=rows,cols,slices: %v", err)
	}
	b, err := readStdin()
	if err != nil {
		return err
	}
	if len(b) != rows*cols*slices*2 {
		return fmt.Errorf("bad input.  Expected %d bytes, got %d bytes", rows*cols*slices*2, len(b))
	}
	timedLog := dvid.NewTimeLog()
	out, err := dvid.Compress(b, compression)
	if err != nil {
		return err
	}
	timedLog.Debugf("Compressed %s to %s with %s", dvid.HumanBytes(len(b)), dvid.HumanBytes(len(out)), compression)
	_, err = os.Stdout.Write(out)
	return err
}

func inflateSnapshot(compression dvid.Compression) error {
	var rows, cols int
	if n, err := fmt.Sscanf(*inflate, "%d,%d", &rows, &cols); n != 2 || err != nil {
		return fmt.Errorf("could not interpret slice size, should be -inflate=rows,cols: %v", err)
	}
	b, err := readStdin()
	if err != nil {
		return err
	}
	raw, err := dvid.Decompress(b, compression, 0)
	if err != nil {
		return err
	}
	stride := rows * cols * 2
	if stride == 0 || len(raw)%stride != 0 {
		return fmt.Errorf("snapshot has %d bytes, not a whole number of %d x %d slices: %w",
			len(raw), cols, rows, dvid.ErrSnapshotSizeMismatch)
	}
	dvid.Debugf("Inflated %d slices of %d x %d\n", len(raw)/stride, cols, rows)
	_, err = os.Stdout.Write(raw)
	return err
}

type jsonLine struct {
	X0, Y0, X1, Y1 float64
	Stitch         bool `json:",omitempty"`
}

func writeContours() error {
	var rows, cols int
	if n, err := fmt.Sscanf(*contour, "%d,%d", &rows, &cols); n != 2 || err != nil {
		return fmt.Errorf("could not interpret slice size, should be -contour=rows,cols: %v", err)
	}
	b, err := readStdin()
	if err != nil {
		return err
	}
	if len(b) != rows*cols*2 {
		return fmt.Errorf("bad input.  Expected %d bytes, got %d bytes", rows*cols*2, len(b))
	}
	pixels, err := dvid.BytesToUint16s(b)
	if err != nil {
		return err
	}
	slice := &labelmap.Slice{Pixels: pixels}
	slice.UpdateSegmentsPresent()
	contours := labels.ExtractContours(slice, rows, cols, float64(*width)/2)

	out := make(map[uint16][]jsonLine, len(contours))
	for segment, lines := range contours {
		jl := make([]jsonLine, len(lines))
		for i, line := range lines {
			jl[i] = jsonLine{line.Start.X, line.Start.Y, line.End.X, line.End.Y, line.Kind == labels.CornerStitch}
		}
		out[segment] = jl
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func listHistory(cfg *server.Config) error {
	snapshots, err := server.OpenSnapshots(cfg.Store)
	if err != nil {
		return err
	}
	if snapshots == nil {
		return fmt.Errorf("no [store] configured to list history from")
	}
	defer snapshots.Close()

	if *histID == "all" {
		ids, err := snapshots.Volumes()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if key, index, err := history.ParsePersistentID(id); err == nil {
				fmt.Printf("%s\tstack %q labelmap %d\n", id, key, index)
			} else {
				fmt.Printf("%s\n", id)
			}
		}
		return nil
	}
	undo, redo, err := snapshots.Load(*histID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d undo, %d redo\n", *histID, len(undo), len(redo))
	for _, rec := range undo {
		fmt.Printf("  undo %s\n", rec)
	}
	for _, rec := range redo {
		fmt.Printf("  redo %s\n", rec)
	}
	return nil
}
