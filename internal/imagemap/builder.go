package imagemap

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Map resolves a product key to an image path or URL.
type Map map[string]string

// Resolve returns the image for key, or "" when no mapping exists.
func (m Map) Resolve(key string) string {
	return m[strings.TrimSpace(key)]
}

// Entry is one (key, path) pair from a master table.
type Entry struct {
	Key  string
	Path string
}

// Build merges master tables into a single map. When several tables define
// the same key the table processed latest wins; within a table the later
// row wins. Keys and paths are trimmed. No tables at all is fine and yields
// an empty map.
func Build(tables ...[]Entry) Map {
	m := make(Map)
	for _, table := range tables {
		for _, e := range table {
			key := strings.TrimSpace(e.Key)
			if key == "" {
				continue
			}
			m[key] = strings.TrimSpace(e.Path)
		}
	}
	return m
}

// Builder loads image master tables from delimited files.
type Builder struct {
	encoding string
}

func NewBuilder(encoding string) *Builder {
	return &Builder{encoding: encoding}
}

// BuildFromFiles reads each master file in order and merges them
// last-writer-wins. An empty path list degrades to an empty map.
func (b *Builder) BuildFromFiles(paths []string) (Map, error) {
	tables := make([][]Entry, 0, len(paths))
	for _, path := range paths {
		entries, err := b.readMaster(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load image master %s: %w", path, err)
		}
		tables = append(tables, entries)
	}
	return Build(tables...), nil
}

func (b *Builder) readMaster(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := masterDecodingReader(f, b.encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	keyIdx, pathIdx := masterColumns(header)

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(i int) string {
			if i < 0 || i >= len(record) {
				return ""
			}
			return record[i]
		}
		entries = append(entries, Entry{Key: get(keyIdx), Path: get(pathIdx)})
	}
	return entries, nil
}

// masterColumns finds the product-key and image-path columns by alias,
// falling back to the first two columns for headerless-style masters.
func masterColumns(header []string) (int, int) {
	find := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, n := range names {
			targets[normalize(n)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalize(h)]; ok {
				return i
			}
		}
		return -1
	}

	keyIdx := find("sku", "商品番号", "product_code", "key")
	pathIdx := find("画像url", "image_url", "url", "path", "画像")

	if keyIdx < 0 {
		keyIdx = 0
	}
	if pathIdx < 0 {
		pathIdx = 1
	}
	return keyIdx, pathIdx
}

var nameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalize(name string) string {
	return nameSanitizer.Replace(strings.TrimSpace(strings.ToLower(name)))
}

func masterDecodingReader(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "shift-jis", "shift_jis", "sjis", "cp932":
		enc = japanese.ShiftJIS
	case "euc-jp", "eucjp":
		enc = japanese.EUCJP
	default:
		return nil, fmt.Errorf("unsupported master encoding %q", name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
