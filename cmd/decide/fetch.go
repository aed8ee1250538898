package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/decision-intel/backend-go/internal/config"
	"github.com/andresuchdata/decision-intel/backend-go/internal/ingest"
	"github.com/andresuchdata/decision-intel/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download transaction files from object storage and optionally analyze them",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:  "key",
				Usage: "Object key to download, repeatable. Relative keys are resolved under --prefix",
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Key prefix to list when no --key is given",
				EnvVars: []string{"STORAGE_PREFIX"},
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Local directory for downloaded files",
				Value: "./data/tmp/objects",
			},
			&cli.BoolFlag{
				Name:  "analyze",
				Usage: "Analyze the downloaded files",
			},
		}, analysisFlags()...),
		Action: func(c *cli.Context) error {
			cfg := config.Load().Storage
			cfg.Enabled = true

			client, err := storage.New(c.Context, cfg)
			if err != nil {
				return err
			}

			paths, err := downloadObjects(c.Context, client, c.String("prefix"), c.StringSlice("key"), c.String("dest"))
			if err != nil {
				return err
			}
			return finishDownload(c, paths)
		},
	}
}

// downloadObjects fetches the given keys, or every transaction file under
// prefix, into destDir and returns the local paths in key order.
func downloadObjects(ctx context.Context, client storage.ObjectStorage, prefix string, keys []string, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}

	if len(keys) == 0 {
		objects, err := client.ListObjects(ctx, strings.TrimSpace(prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", prefix, err)
		}
		keys = transactionKeys(objects)
	} else {
		resolved := make([]string, len(keys))
		for i, k := range keys {
			resolved[i] = resolveObjectKey(prefix, k)
		}
		keys = resolved
	}

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		dest := filepath.Join(destDir, filepath.Base(key))
		if err := client.DownloadObject(ctx, key, dest); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", key, err)
		}
		log.Info().Str("key", key).Str("path", dest).Msg("Downloaded object")
		paths = append(paths, dest)
	}
	return paths, nil
}

// transactionKeys keeps CSV and XLSX objects, sorted by key.
func transactionKeys(objects []storage.ObjectInfo) []string {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if _, err := ingest.DetectFormat(obj.Key); err == nil {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

func resolveObjectKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	if prefix == "" || strings.HasPrefix(key, prefix+"/") {
		return key
	}
	return storage.Key(prefix, key)
}

// finishDownload prints the downloaded paths or analyzes them when asked.
func finishDownload(c *cli.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no transaction files found")
	}
	if c.Bool("analyze") {
		return analyzeFiles(c, paths)
	}
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}
