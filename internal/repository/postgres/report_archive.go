package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zaikolab/zaiko-report/internal/domain"
)

// ReportRun is one archived report generation.
type ReportRun struct {
	ID         int64     `db:"id"`
	Kind       string    `db:"kind"` // sales or reorder
	StartDate  time.Time `db:"start_date"`
	EndDate    time.Time `db:"end_date"`
	TargetDays int       `db:"target_days"`
	Keyword    string    `db:"keyword"`
	MinSold    int       `db:"min_sold"`
	RowCount   int       `db:"row_count"`
	CreatedAt  time.Time `db:"created_at"`
}

type archivedRow struct {
	RunID         int64   `db:"run_id"`
	ProductCode   string  `db:"product_code"`
	BaseCode      string  `db:"base_code"`
	ProductName   string  `db:"product_name"`
	NetUnitsSold  int     `db:"net_units_sold"`
	CurrentStock  int     `db:"current_stock"`
	ImageURL      string  `db:"image_url"`
	AvgDailySales float64 `db:"avg_daily_sales"`
	TargetStock   int     `db:"target_stock"`
	OrderQty      int     `db:"order_qty"`
}

// ReportArchive persists generated report runs for later inspection. The
// engine never reads the archive back during aggregation; it is write-only
// from the report path.
type ReportArchive struct {
	db *DB
}

func NewReportArchive(db *DB) *ReportArchive {
	return &ReportArchive{db: db}
}

const (
	insertRunQuery = `
		INSERT INTO report_runs (kind, start_date, end_date, target_days, keyword, min_sold, row_count, created_at)
		VALUES (:kind, :start_date, :end_date, :target_days, :keyword, :min_sold, :row_count, :created_at)
		RETURNING id`

	insertRowQuery = `
		INSERT INTO report_rows (run_id, product_code, base_code, product_name, net_units_sold,
			current_stock, image_url, avg_daily_sales, target_stock, order_qty)
		VALUES (:run_id, :product_code, :base_code, :product_name, :net_units_sold,
			:current_stock, :image_url, :avg_daily_sales, :target_stock, :order_qty)`
)

// SaveSalesRun archives a sales report and its rows in one transaction.
func (a *ReportArchive) SaveSalesRun(ctx context.Context, filter domain.ReportFilter, rows []domain.AggregatedProduct) error {
	run := ReportRun{
		Kind:      "sales",
		StartDate: filter.Window.Start,
		EndDate:   filter.Window.End,
		Keyword:   filter.Keyword,
		MinSold:   filter.MinSold,
		RowCount:  len(rows),
		CreatedAt: time.Now(),
	}

	return a.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		runID, err := insertRun(ctx, tx, run)
		if err != nil {
			return err
		}
		for _, r := range rows {
			row := archivedRow{
				RunID:        runID,
				ProductCode:  r.ProductCode,
				BaseCode:     r.BaseCode,
				ProductName:  r.ProductName,
				NetUnitsSold: r.NetUnitsSold,
				CurrentStock: r.CurrentStock,
				ImageURL:     r.ImageURL,
			}
			if _, err := tx.NamedExecContext(ctx, insertRowQuery, row); err != nil {
				return fmt.Errorf("failed to archive report row: %w", err)
			}
		}
		return nil
	})
}

// SaveReorderRun archives a reorder report and its rows in one transaction.
func (a *ReportArchive) SaveReorderRun(ctx context.Context, filter domain.ReportFilter, rows []domain.ReorderRecommendation) error {
	run := ReportRun{
		Kind:       "reorder",
		StartDate:  filter.Window.Start,
		EndDate:    filter.Window.End,
		TargetDays: filter.TargetDays,
		Keyword:    filter.Keyword,
		MinSold:    filter.MinSold,
		RowCount:   len(rows),
		CreatedAt:  time.Now(),
	}

	return a.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		runID, err := insertRun(ctx, tx, run)
		if err != nil {
			return err
		}
		for _, r := range rows {
			row := archivedRow{
				RunID:         runID,
				ProductCode:   r.ProductCode,
				BaseCode:      r.BaseCode,
				ProductName:   r.ProductName,
				NetUnitsSold:  r.NetUnitsSold,
				CurrentStock:  r.CurrentStock,
				ImageURL:      r.ImageURL,
				AvgDailySales: r.AvgDailySales,
				TargetStock:   r.TargetStock,
				OrderQty:      r.RecommendedOrderQty,
			}
			if _, err := tx.NamedExecContext(ctx, insertRowQuery, row); err != nil {
				return fmt.Errorf("failed to archive report row: %w", err)
			}
		}
		return nil
	})
}

// ListRuns returns the most recent archived runs, newest first.
func (a *ReportArchive) ListRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	if limit <= 0 {
		limit = 30
	}

	runs := make([]ReportRun, 0, limit)
	err := a.db.SelectContext(ctx, &runs, `
		SELECT id, kind, start_date, end_date, target_days, keyword, min_sold, row_count, created_at
		FROM report_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list report runs: %w", err)
	}
	return runs, nil
}

func insertRun(ctx context.Context, tx *sqlx.Tx, run ReportRun) (int64, error) {
	stmt, err := tx.PrepareNamedContext(ctx, insertRunQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare run insert: %w", err)
	}
	defer stmt.Close()

	var id int64
	if err := stmt.GetContext(ctx, &id, run); err != nil {
		return 0, fmt.Errorf("failed to archive report run: %w", err)
	}
	return id, nil
}
