package report

import (
	"strings"

	"github.com/zaikolab/zaiko-report/internal/domain"
	"github.com/zaikolab/zaiko-report/internal/imagemap"
)

// Assembler joins aggregation output with the image lookup and applies the
// caller's display filters. It never re-sorts: ordering is inherited from
// the aggregator or the reorder calculator.
type Assembler struct {
	images imagemap.Map
}

func NewAssembler(images imagemap.Map) *Assembler {
	if images == nil {
		images = imagemap.Map{}
	}
	return &Assembler{images: images}
}

// SalesReport resolves images and filters the sales-ranked rows.
func (a *Assembler) SalesReport(products []domain.AggregatedProduct, keyword string, minSold int) []domain.AggregatedProduct {
	result := make([]domain.AggregatedProduct, 0, len(products))
	for _, p := range products {
		if !a.keep(p, keyword, minSold) {
			continue
		}
		p.ImageURL = a.images.Resolve(p.BaseCode)
		result = append(result, p)
	}
	return result
}

// ReorderReport resolves images and filters the recommendation rows.
func (a *Assembler) ReorderReport(recs []domain.ReorderRecommendation, keyword string, minSold int) []domain.ReorderRecommendation {
	result := make([]domain.ReorderRecommendation, 0, len(recs))
	for _, r := range recs {
		if !a.keep(r.AggregatedProduct, keyword, minSold) {
			continue
		}
		r.ImageURL = a.images.Resolve(r.BaseCode)
		result = append(result, r)
	}
	return result
}

// keep applies the free-text keyword (case-insensitive substring over
// product code, base code and name, OR-combined) and the inclusive
// minimum-sold threshold.
func (a *Assembler) keep(p domain.AggregatedProduct, keyword string, minSold int) bool {
	if p.NetUnitsSold < minSold {
		return false
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}
	for _, field := range []string{p.ProductCode, p.BaseCode, p.ProductName} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}
