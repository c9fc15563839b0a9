package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
)

// FileSetSignature returns a stable identity for a set of input files: the
// same paths with the same sizes and modification times hash to the same
// value regardless of argument order. Cached reports are keyed on it so a
// changed or added extract invalidates them.
func FileSetSignature(paths []string) string {
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			parts = append(parts, path+"|missing")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano()))
	}
	sort.Strings(parts)

	sum := sha1.Sum([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}
