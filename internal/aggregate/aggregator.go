package aggregate

import (
	"sort"
	"strings"

	"github.com/zaikolab/zaiko-report/internal/domain"
)

// SalesFilter selects the rows that count toward sold quantity.
type SalesFilter func(domain.MovementRecord) bool

// ReasonFilter qualifies rows whose update reason equals salesReason.
// Rows from extracts without a reason column qualify unconditionally.
func ReasonFilter(salesReason string) SalesFilter {
	return func(r domain.MovementRecord) bool {
		if !r.ReasonTracked {
			return true
		}
		return r.UpdateReason == salesReason
	}
}

// Grouping field names accepted in group keys.
const (
	FieldProductCode = "product_code"
	FieldBaseCode    = "base_code"
	FieldProductName = "product_name"
	FieldAttribute1  = "attribute1"
	FieldAttribute2  = "attribute2"
)

// DefaultGroupKeys groups by product code alone.
var DefaultGroupKeys = []string{FieldProductCode}

type bucket struct {
	order    int // first-seen position, keeps grouping output deterministic
	rep      domain.AggregatedProduct
	netSold  int
	hasStock bool
	stock    int
}

// Aggregate groups records by the given keys and computes net units sold
// inside the window plus current stock across the full history.
//
// Sales are summed over qualifying rows whose period falls inside the
// window; net units sold is the negated sum. Current stock is the
// stock-after of the last-arriving record for the key regardless of the
// window, since extracts arrive pre-sorted by period. Keys whose net sold
// is zero or negative are dropped. The result is sorted by net units sold
// descending, ties by product code ascending.
//
// Returns domain.ErrNoData when no record at all falls inside the window;
// callers present that as an empty report.
func Aggregate(records []domain.MovementRecord, window domain.DateWindow, qualifies SalesFilter, groupKeys []string) ([]domain.AggregatedProduct, error) {
	if len(groupKeys) == 0 {
		groupKeys = DefaultGroupKeys
	}
	if qualifies == nil {
		qualifies = func(domain.MovementRecord) bool { return true }
	}

	buckets := make(map[string]*bucket)
	get := func(r domain.MovementRecord) *bucket {
		key := groupKeyOf(r, groupKeys)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{order: len(buckets)}
			b.rep.ProductCode = r.ProductCode
			b.rep.BaseCode = r.BaseCode
			buckets[key] = b
		}
		return b
	}

	inWindow := 0
	for _, r := range records {
		// Stock partition is unwindowed: last arrival wins.
		b := get(r)
		b.stock = r.StockAfter
		b.hasStock = true

		if !window.Contains(r.SourcePeriod) {
			continue
		}
		inWindow++

		// Descriptive fields: most recent non-empty value in the window.
		if r.ProductName != "" {
			b.rep.ProductName = r.ProductName
		}
		if r.Attribute1 != "" {
			b.rep.Attribute1 = r.Attribute1
		}
		if r.Attribute2 != "" {
			b.rep.Attribute2 = r.Attribute2
		}

		if qualifies(r) {
			b.netSold += -r.QuantityDelta
		}
	}

	if inWindow == 0 {
		return nil, domain.ErrNoData
	}

	result := make([]domain.AggregatedProduct, 0, len(buckets))
	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	for _, b := range ordered {
		if b.netSold <= 0 {
			continue
		}
		row := b.rep
		row.NetUnitsSold = b.netSold
		if b.hasStock {
			row.CurrentStock = b.stock
		}
		result = append(result, row)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].NetUnitsSold != result[j].NetUnitsSold {
			return result[i].NetUnitsSold > result[j].NetUnitsSold
		}
		return result[i].ProductCode < result[j].ProductCode
	})

	return result, nil
}

// groupKeyOf joins the grouping field values with an unprintable separator.
// Unknown field names and missing values contribute an empty segment, so
// rows are grouped rather than dropped.
func groupKeyOf(r domain.MovementRecord, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		switch k {
		case FieldProductCode:
			parts[i] = r.ProductCode
		case FieldBaseCode:
			parts[i] = r.BaseCode
		case FieldProductName:
			parts[i] = r.ProductName
		case FieldAttribute1:
			parts[i] = r.Attribute1
		case FieldAttribute2:
			parts[i] = r.Attribute2
		}
	}
	return strings.Join(parts, "\x1f")
}
