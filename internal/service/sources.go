package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var extractExtensions = map[string]struct{}{
	".csv":  {},
	".xlsx": {},
	".xlsm": {},
}

// SourcesFromDirs lists extract and master files from the configured
// directories. Names are sorted so date-prefixed extracts arrive in
// chronological order; the engine itself never globs.
func SourcesFromDirs(extractDir, masterDir string) (Sources, error) {
	extracts, err := listFiles(extractDir)
	if err != nil {
		return Sources{}, fmt.Errorf("failed to list extract dir: %w", err)
	}

	var masters []string
	if masterDir != "" {
		masters, err = listFiles(masterDir)
		if err != nil {
			return Sources{}, fmt.Errorf("failed to list master dir: %w", err)
		}
	}

	return Sources{ExtractPaths: extracts, MasterPaths: masters}, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := extractExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
