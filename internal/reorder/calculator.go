package reorder

import (
	"math"
	"sort"

	"github.com/zaikolab/zaiko-report/internal/domain"
)

// Recommend derives a restock recommendation for each aggregated product.
//
// avg daily sales = net units sold / window days (window days clamped to 1).
// target stock    = round(avg daily sales * target days), half away from zero.
// order quantity  = max(target stock - current stock, 0).
//
// Rows whose order quantity is zero are dropped. The result is sorted by
// order quantity descending, ties by product code ascending.
func Recommend(products []domain.AggregatedProduct, windowDays, targetDays int) []domain.ReorderRecommendation {
	if windowDays < 1 {
		windowDays = 1
	}
	if targetDays < 1 {
		targetDays = 1
	}

	result := make([]domain.ReorderRecommendation, 0, len(products))
	for _, p := range products {
		avg := float64(p.NetUnitsSold) / float64(windowDays)
		target := int(math.Round(avg * float64(targetDays)))

		qty := target - p.CurrentStock
		if qty <= 0 {
			continue
		}

		result = append(result, domain.ReorderRecommendation{
			AggregatedProduct:   p,
			AvgDailySales:       avg,
			TargetStock:         target,
			RecommendedOrderQty: qty,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RecommendedOrderQty != result[j].RecommendedOrderQty {
			return result[i].RecommendedOrderQty > result[j].RecommendedOrderQty
		}
		return result[i].ProductCode < result[j].ProductCode
	})

	return result
}
