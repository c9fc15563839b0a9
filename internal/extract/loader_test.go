package extract

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zaikolab/zaiko-report/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func utf8Loader() *Loader {
	return NewLoader(Options{Encoding: "utf-8", DateLayout: "20060102"})
}

func TestLoadCSVExtract(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "movement_20240501.csv",
		"商品番号,SKU,商品名,属性1名,属性2名,売上個数,現在庫,更新理由\n"+
			"A-001,BASE-A,シャツ,赤,M,-5,10,注文取込\n"+
			"B-002,BASE-B,パンツ,abc,,\"1,234\",not-a-number,返品\n")

	records, err := utf8Loader().LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "A-001", first.ProductCode)
	assert.Equal(t, "BASE-A", first.BaseCode)
	assert.Equal(t, "シャツ", first.ProductName)
	assert.Equal(t, "赤", first.Attribute1)
	assert.Equal(t, "M", first.Attribute2)
	assert.Equal(t, -5, first.QuantityDelta)
	assert.Equal(t, 10, first.StockAfter)
	assert.Equal(t, "注文取込", first.UpdateReason)
	assert.True(t, first.ReasonTracked)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), first.SourcePeriod)

	// Malformed numerics coerce to zero, thousands separators are stripped.
	second := records[1]
	assert.Equal(t, 1234, second.QuantityDelta)
	assert.Equal(t, 0, second.StockAfter)
}

func TestLoadCSVShiftJIS(t *testing.T) {
	dir := t.TempDir()
	content := "商品番号,商品名,売上個数,現在庫\nA-001,靴下,-3,7\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), content)
	require.NoError(t, err)
	path := writeFile(t, dir, "20240310_movement.csv", encoded)

	loader := NewLoader(Options{Encoding: "shift-jis", DateLayout: "20060102"})
	records, err := loader.LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "靴下", records[0].ProductName)
	assert.Equal(t, -3, records[0].QuantityDelta)
}

func TestLoadXLSXExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "在庫変動データ20240502.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"商品番号", "SKU", "商品名", "売上個数", "現在庫", "更新理由"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"C-003", "BASE-C", "帽子", -2, 4, "注文取込"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	records, err := utf8Loader().LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C-003", records[0].ProductCode)
	assert.Equal(t, -2, records[0].QuantityDelta)
	assert.Equal(t, 4, records[0].StockAfter)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), records[0].SourcePeriod)
}

func TestMissingReasonColumnFailsOpen(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "20240501_movement.csv",
		"商品番号,売上個数,現在庫\nA-001,-5,10\n")

	records, err := utf8Loader().LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].ReasonTracked)
}

func TestUnparseablePeriodStillLoads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.csv",
		"商品番号,売上個数\nA-001,-5\n")

	records, err := utf8Loader().LoadFiles([]string{path})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].SourcePeriod.IsZero())
}

func TestSchemaErrorWhenColumnMissingEverywhere(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "20240501_a.csv", "商品番号,現在庫\nA-001,10\n")
	b := writeFile(t, dir, "20240502_b.csv", "商品番号,現在庫\nA-001,12\n")

	_, err := utf8Loader().LoadFiles([]string{a, b})
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"quantity_delta"}, schemaErr.MissingColumns)
}

func TestNoSchemaErrorWhenAnyExtractHasColumn(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "20240501_a.csv", "商品番号,現在庫\nA-001,10\n")
	b := writeFile(t, dir, "20240502_b.csv", "商品番号,売上個数,現在庫\nA-001,-2,8\n")

	records, err := utf8Loader().LoadFiles([]string{a, b})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestConcatenationPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "20240501_a.csv", "商品番号,売上個数\nA-001,-1\nB-002,-2\n")
	b := writeFile(t, dir, "20240502_b.csv", "商品番号,売上個数\nC-003,-3\n")

	records, err := utf8Loader().LoadFiles([]string{a, b})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "A-001", records[0].ProductCode)
	assert.Equal(t, "B-002", records[1].ProductCode)
	assert.Equal(t, "C-003", records[2].ProductCode)
}

func TestFileSetSignature(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "x\n")
	b := writeFile(t, dir, "b.csv", "y\n")

	sig := FileSetSignature([]string{a, b})
	assert.Equal(t, sig, FileSetSignature([]string{b, a}), "signature must not depend on argument order")

	require.NoError(t, os.WriteFile(a, []byte("something longer\n"), 0644))
	assert.NotEqual(t, sig, FileSetSignature([]string{a, b}), "signature must change when a file changes")
}
