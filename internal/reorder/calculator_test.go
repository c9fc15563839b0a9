package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaikolab/zaiko-report/internal/domain"
)

func product(code string, sold, stock int) domain.AggregatedProduct {
	return domain.AggregatedProduct{
		ProductCode:  code,
		NetUnitsSold: sold,
		CurrentStock: stock,
	}
}

func TestRecommendBasic(t *testing.T) {
	rows := Recommend([]domain.AggregatedProduct{product("A", 20, 10)}, 10, 30)

	require.Len(t, rows, 1)
	assert.InDelta(t, 2.0, rows[0].AvgDailySales, 1e-9)
	assert.Equal(t, 60, rows[0].TargetStock)
	assert.Equal(t, 50, rows[0].RecommendedOrderQty)
}

func TestRecommendDropsNonPositiveQuantities(t *testing.T) {
	rows := Recommend([]domain.AggregatedProduct{
		product("A", 10, 100), // target 30 < stock 100
		product("B", 10, 30),  // target 30 == stock 30
		product("C", 10, 5),
	}, 10, 30)

	require.Len(t, rows, 1)
	assert.Equal(t, "C", rows[0].ProductCode)
	assert.Equal(t, 25, rows[0].RecommendedOrderQty)
}

func TestRecommendMonotonicInTargetDays(t *testing.T) {
	products := []domain.AggregatedProduct{product("A", 14, 3)}

	short := Recommend(products, 7, 14)
	long := Recommend(products, 7, 30)
	require.Len(t, short, 1)
	require.Len(t, long, 1)
	assert.Greater(t, long[0].RecommendedOrderQty, short[0].RecommendedOrderQty)
}

func TestRecommendClampsWindowDays(t *testing.T) {
	rows := Recommend([]domain.AggregatedProduct{product("A", 6, 0)}, 0, 10)

	require.Len(t, rows, 1)
	assert.InDelta(t, 6.0, rows[0].AvgDailySales, 1e-9, "a degenerate window counts as one day")
	assert.Equal(t, 60, rows[0].RecommendedOrderQty)
}

func TestRecommendRoundsHalfAwayFromZero(t *testing.T) {
	// 5 sold over 2 days at 1 target day: 2.5 rounds up to 3.
	rows := Recommend([]domain.AggregatedProduct{product("A", 5, 0)}, 2, 1)

	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].TargetStock)
	assert.Equal(t, 3, rows[0].RecommendedOrderQty)
}

func TestRecommendSortsByQuantityDescThenCode(t *testing.T) {
	rows := Recommend([]domain.AggregatedProduct{
		product("B", 10, 0),
		product("A", 10, 0),
		product("C", 30, 0),
	}, 10, 10)

	require.Len(t, rows, 3)
	assert.Equal(t, "C", rows[0].ProductCode)
	assert.Equal(t, "A", rows[1].ProductCode)
	assert.Equal(t, "B", rows[2].ProductCode)
}

func TestRecommendEmptyInput(t *testing.T) {
	assert.Empty(t, Recommend(nil, 10, 30))
}
