package imagemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func writeMaster(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildLastWriterWins(t *testing.T) {
	m := Build(
		[]Entry{
			{Key: "BASE-A", Path: "https://img.example.com/a-old.jpg"},
			{Key: "BASE-A", Path: "https://img.example.com/a-mid.jpg"},
			{Key: "BASE-B", Path: "https://img.example.com/b.jpg"},
		},
		[]Entry{
			{Key: "BASE-A", Path: "https://img.example.com/a-new.jpg"},
		},
	)

	assert.Equal(t, "https://img.example.com/a-new.jpg", m.Resolve("BASE-A"))
	assert.Equal(t, "https://img.example.com/b.jpg", m.Resolve("BASE-B"))
}

func TestBuildTrimsAndSkipsEmptyKeys(t *testing.T) {
	m := Build([]Entry{
		{Key: "  BASE-A  ", Path: "  https://img.example.com/a.jpg  "},
		{Key: "   ", Path: "https://img.example.com/ignored.jpg"},
	})

	require.Len(t, m, 1)
	assert.Equal(t, "https://img.example.com/a.jpg", m.Resolve("BASE-A"))
	assert.Equal(t, "https://img.example.com/a.jpg", m.Resolve(" BASE-A "))
}

func TestBuildNoTables(t *testing.T) {
	m := Build()
	assert.Empty(t, m)
	assert.Equal(t, "", m.Resolve("anything"))
}

func TestBuildFromFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeMaster(t, dir, "master1.csv",
		"SKU,画像URL\nBASE-A,https://img.example.com/a-old.jpg\nBASE-B,https://img.example.com/b.jpg\n")
	second := writeMaster(t, dir, "master2.csv",
		"SKU,画像URL\nBASE-A,https://img.example.com/a-new.jpg\n")

	m, err := NewBuilder("utf-8").BuildFromFiles([]string{first, second})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/a-new.jpg", m.Resolve("BASE-A"))
	assert.Equal(t, "https://img.example.com/b.jpg", m.Resolve("BASE-B"))
}

func TestBuildFromFilesShiftJIS(t *testing.T) {
	dir := t.TempDir()
	content := "商品番号,画像URL\nBASE-A,https://img.example.com/a.jpg\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), content)
	require.NoError(t, err)
	path := writeMaster(t, dir, "master.csv", encoded)

	m, err := NewBuilder("shift-jis").BuildFromFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/a.jpg", m.Resolve("BASE-A"))
}

func TestBuildFromFilesHeaderFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeMaster(t, dir, "master.csv",
		"code,link\nBASE-A,https://img.example.com/a.jpg\n")

	m, err := NewBuilder("utf-8").BuildFromFiles([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/a.jpg", m.Resolve("BASE-A"), "unknown headers fall back to the first two columns")
}

func TestBuildFromFilesEmptyList(t *testing.T) {
	m, err := NewBuilder("utf-8").BuildFromFiles(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}
