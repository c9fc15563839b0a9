package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaikolab/zaiko-report/internal/domain"
	"github.com/zaikolab/zaiko-report/internal/imagemap"
)

func sampleProducts() []domain.AggregatedProduct {
	return []domain.AggregatedProduct{
		{ProductCode: "A-001", BaseCode: "BASE-A", ProductName: "シャツ", NetUnitsSold: 9, CurrentStock: 3},
		{ProductCode: "B-002", BaseCode: "BASE-B", ProductName: "パンツ", NetUnitsSold: 5, CurrentStock: 8},
		{ProductCode: "C-003", BaseCode: "BASE-C", ProductName: "帽子", NetUnitsSold: 2, CurrentStock: 1},
	}
}

func sampleImages() imagemap.Map {
	return imagemap.Map{
		"BASE-A": "https://img.example.com/a.jpg",
		"BASE-C": "https://img.example.com/c.jpg",
	}
}

func TestSalesReportResolvesImagesByBaseCode(t *testing.T) {
	rows := NewAssembler(sampleImages()).SalesReport(sampleProducts(), "", 0)

	require.Len(t, rows, 3)
	assert.Equal(t, "https://img.example.com/a.jpg", rows[0].ImageURL)
	assert.Equal(t, "", rows[1].ImageURL, "a missing mapping leaves the image blank")
	assert.Equal(t, "https://img.example.com/c.jpg", rows[2].ImageURL)
}

func TestSalesReportKeywordIsCaseInsensitiveOrMatch(t *testing.T) {
	a := NewAssembler(nil)

	byCode := a.SalesReport(sampleProducts(), "b-002", 0)
	require.Len(t, byCode, 1)
	assert.Equal(t, "B-002", byCode[0].ProductCode)

	byBase := a.SalesReport(sampleProducts(), "base-c", 0)
	require.Len(t, byBase, 1)
	assert.Equal(t, "C-003", byBase[0].ProductCode)

	byName := a.SalesReport(sampleProducts(), "シャツ", 0)
	require.Len(t, byName, 1)
	assert.Equal(t, "A-001", byName[0].ProductCode)

	assert.Empty(t, a.SalesReport(sampleProducts(), "zzz", 0))
}

func TestSalesReportMinSoldInclusive(t *testing.T) {
	rows := NewAssembler(nil).SalesReport(sampleProducts(), "", 5)

	require.Len(t, rows, 2)
	assert.Equal(t, "A-001", rows[0].ProductCode)
	assert.Equal(t, "B-002", rows[1].ProductCode, "a row exactly at the threshold survives")
}

func TestSalesReportPreservesOrder(t *testing.T) {
	rows := NewAssembler(nil).SalesReport(sampleProducts(), "", 2)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A-001", "B-002", "C-003"},
		[]string{rows[0].ProductCode, rows[1].ProductCode, rows[2].ProductCode})
}

func TestReorderReportFiltersAndResolvesImages(t *testing.T) {
	recs := []domain.ReorderRecommendation{
		{AggregatedProduct: domain.AggregatedProduct{ProductCode: "A-001", BaseCode: "BASE-A", NetUnitsSold: 9}, RecommendedOrderQty: 40},
		{AggregatedProduct: domain.AggregatedProduct{ProductCode: "C-003", BaseCode: "BASE-C", NetUnitsSold: 2}, RecommendedOrderQty: 10},
	}

	rows := NewAssembler(sampleImages()).ReorderReport(recs, "", 5)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-001", rows[0].ProductCode)
	assert.Equal(t, "https://img.example.com/a.jpg", rows[0].ImageURL)
}

func TestAssemblerNilImageMap(t *testing.T) {
	rows := NewAssembler(nil).SalesReport(sampleProducts(), "", 0)
	require.Len(t, rows, 3)
	assert.Equal(t, "", rows[0].ImageURL)
}
