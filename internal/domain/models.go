package domain

import "time"

// MovementRecord is one canonical row of a movement-log extract.
// QuantityDelta is signed: negative means shipped/sold, positive means
// restocked or returned. StockAfter is the stock level immediately after
// the movement.
type MovementRecord struct {
	ProductCode   string
	BaseCode      string // coarser key shared by size/color variants
	ProductName   string
	Attribute1    string
	Attribute2    string
	QuantityDelta int
	StockAfter    int
	UpdateReason  string
	// SourcePeriod is derived from the extract's filename date token.
	// Zero when no period could be derived; such rows are excluded from
	// window-based filtering but still count for stock lookups.
	SourcePeriod time.Time
	// ReasonTracked reports whether the originating extract carried an
	// update-reason column at all. When false every row of that extract is
	// treated as sales-qualifying (fail-open).
	ReasonTracked bool
}

// AggregatedProduct is one row of the aggregation output.
type AggregatedProduct struct {
	ProductCode  string `json:"product_code"`
	BaseCode     string `json:"base_code"`
	ProductName  string `json:"product_name"`
	Attribute1   string `json:"attribute1,omitempty"`
	Attribute2   string `json:"attribute2,omitempty"`
	NetUnitsSold int    `json:"net_units_sold"`
	CurrentStock int    `json:"current_stock"`
	ImageURL     string `json:"image_url"`
}

// ReorderRecommendation extends an aggregated row with restock figures.
type ReorderRecommendation struct {
	AggregatedProduct
	AvgDailySales       float64 `json:"avg_daily_sales"`
	TargetStock         int     `json:"target_stock"`
	RecommendedOrderQty int     `json:"recommended_order_qty"`
}

// DateWindow is an inclusive [Start, End] range on SourcePeriod.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. A zero t never matches.
func (w DateWindow) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the inclusive length of the window in days, never below 1.
func (w DateWindow) Days() int {
	days := int(w.End.Sub(w.Start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// ReportFilter carries the caller-supplied report parameters.
type ReportFilter struct {
	Window     DateWindow
	Keyword    string
	MinSold    int
	TargetDays int
}
