// saveconv rewrites a shapesim save stream in another format version.
//
//	saveconv [-catalog data/catalog.yaml] [-to-version 10] [-seal] <in> <out>
//
// Input may be a raw stream or a sealed .save file. Shapes, factories and
// levels are resolved against the catalog, so it must match the one the save
// was written with.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/data"
	"github.com/shapeflow/shapesim/internal/game"
	"github.com/shapeflow/shapesim/internal/persist"
	"go.uber.org/zap"
)

func main() {
	catalogPath := flag.String("catalog", "data/catalog.yaml", "catalog the save was written against")
	toVersion := flag.Int("to-version", int(codec.SaveVersion), "target format version (0 = legacy)")
	seal := flag.Bool("seal", false, "append a checksum trailer, as the file backend does")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: saveconv [-catalog path] [-to-version n] [-seal] <in> <out>")
		os.Exit(1)
	}
	if err := convert(*catalogPath, flag.Arg(0), flag.Arg(1), int32(*toVersion), *seal); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func convert(catalogPath, in, out string, version int32, seal bool) error {
	log := zap.NewNop()

	catalog, err := data.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	factories, err := catalog.BuildFactories(log)
	if err != nil {
		return err
	}
	levels, err := catalog.BuildLevels(factories, nil)
	if err != nil {
		return err
	}
	ids := levels.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("catalog %s has no levels", catalogPath)
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	stream, err := persist.Open(raw)
	switch {
	case err == nil:
	case errors.Is(err, persist.ErrChecksum), errors.Is(err, persist.ErrTruncated):
		stream = raw
	default:
		return err
	}

	g, err := game.New(factories, levels, game.Options{Seed: 1, StartLevel: ids[0]}, nil, log)
	if err != nil {
		return err
	}
	if err := g.Load(stream); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	encoded, err := g.Encode(version)
	if err != nil {
		return err
	}
	if seal {
		encoded = persist.Seal(encoded)
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return err
	}

	inVersion := persist.StreamVersion(stream)
	if inVersion < 0 {
		inVersion = 0
	}
	fmt.Printf("%s: version %d, %d shapes, level %d\n",
		in, inVersion, g.Roster().Len(), g.Level().ID)
	fmt.Printf("%s: version %d, %d bytes\n", out, version, len(encoded))
	return nil
}
