package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PullExtracts downloads every extract-like object (csv, xlsx, xlsm) under
// prefix into destDir and returns the local paths, sorted by object key so
// date-prefixed extracts arrive in chronological order.
func PullExtracts(ctx context.Context, store ObjectStorage, prefix, destDir string) ([]string, error) {
	if destDir == "" {
		return nil, fmt.Errorf("destination dir is required")
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination dir: %w", err)
	}

	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	var localPaths []string
	for _, obj := range objects {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ext := strings.ToLower(filepath.Ext(obj.Key))
		if ext != ".csv" && ext != ".xlsx" && ext != ".xlsm" {
			continue
		}

		localPath := filepath.Join(destDir, filepath.Base(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}
