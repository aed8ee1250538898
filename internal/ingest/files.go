package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ParseFile parses a single transaction file, picking the format from its extension.
func ParseFile(path string) (*Result, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	result, err := Parser{Source: filepath.Base(path)}.Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return result, nil
}

// ParseFiles parses paths concurrently with at most workers files in flight
// and merges the results in input order. The first failing file cancels the rest.
func ParseFiles(ctx context.Context, paths []string, workers int) (*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := ParseFile(path)
			if err != nil {
				return err
			}
			log.Debug().
				Str("file", path).
				Int("transactions", len(result.Transactions)).
				Int("skipped", result.RowsSkipped()).
				Msg("ingest: parsed file")
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Result{}
	for _, r := range results {
		merged.Transactions = append(merged.Transactions, r.Transactions...)
		merged.Skipped = append(merged.Skipped, r.Skipped...)
	}
	return merged, nil
}
