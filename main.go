// Command gcstool builds and queries Golomb Compressed Set files: a
// static, disk-resident probabilistic set-membership structure with no
// false negatives and a tunable false-positive rate of 1/P.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"gcstool/internal/digest"
	"gcstool/internal/gcs"
	"gcstool/internal/ingest"
	"gcstool/internal/progress"
)

var errInvalidArgCount = errors.New("expected exactly one positional argument")

func main() {
	ctx := context.Background()

	app := &cli.Command{
		Name:  "gcstool",
		Usage: "build and query Golomb Compressed Set files",
		Commands: []*cli.Command{
			createCommand(),
			queryCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "gcstool: %v\n", err)
		os.Exit(1)
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "build a GCS file from newline-delimited input",
		ArgsUsage: "INPUT OUTPUT",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:    "p",
				Aliases: []string{"probability"},
				Value:   1 << 24,
				Usage:   "reciprocal false-positive rate (1/P)",
			},
			&cli.UintFlag{
				Name:    "i",
				Aliases: []string{"index-granularity"},
				Value:   1024,
				Usage:   "number of elements between index checkpoints",
			},
			&cli.StringFlag{
				Name:  "hash",
				Value: "sha1",
				Usage: "digest algorithm: sha1, sha256, sha512, md5, blake2b, hex",
			},
		},
		Action: runCreate,
	}
}

func runCreate(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("%w: got %d, want INPUT OUTPUT", errInvalidArgCount, cmd.Args().Len())
	}
	inputPath := cmd.Args().Get(0)
	outputPath := cmd.Args().Get(1)

	algo, err := digest.ParseAlgorithm(cmd.String("hash"))
	if err != nil {
		return err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("statting %s: %w", inputPath, err)
	}

	tracker := progress.New()

	tracker.Stage("estimate", 1)
	n, err := ingest.EstimateCount(in, info.Size())
	if err != nil {
		return err
	}
	tracker.Incr()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer out.Close()

	sink := bufio.NewWriter(out)

	builder, err := gcs.NewBuilder(sink, n, uint64(cmd.Uint("p")), uint64(cmd.Uint("i")))
	if err != nil {
		return fmt.Errorf("constructing builder: %w", err)
	}

	tracker.Stage("ingest", n)
	reader := ingest.NewReader(in)
	for {
		line, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		h, err := digest.Hash(algo, line, 0)
		if err != nil {
			return fmt.Errorf("hashing line: %w", err)
		}
		builder.Add(h)
		tracker.Incr()
	}

	tracker.Stage("finish", 1)
	if err := builder.Finish(); err != nil {
		return fmt.Errorf("finishing build: %w", err)
	}
	tracker.Incr()
	tracker.Done()

	return nil
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "test membership of stdin lines against a GCS file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "hash",
				Value: "sha1",
				Usage: "digest algorithm: sha1, sha256, sha512, md5, blake2b, hex",
			},
		},
		Action: runQuery,
	}
}

func runQuery(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("%w: got %d, want FILE", errInvalidArgCount, cmd.Args().Len())
	}
	path := cmd.Args().Get(0)

	algo, err := digest.ParseAlgorithm(cmd.String("hash"))
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader := gcs.NewReader(file)
	if err := reader.Initialize(); err != nil {
		return fmt.Errorf("initializing reader: %w", err)
	}

	lines := ingest.NewReader(os.Stdin)
	for {
		line, ok, err := lines.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		h, err := digest.Hash(algo, line, 0)
		if err != nil {
			return fmt.Errorf("hashing line: %w", err)
		}

		found, err := reader.Exists(h)
		if err != nil {
			return fmt.Errorf("querying: %w", err)
		}

		if found {
			fmt.Printf("%s: found\n", line)
		} else {
			fmt.Printf("%s: not found\n", line)
		}
	}

	return nil
}
