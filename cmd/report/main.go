package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/zaikolab/zaiko-report/internal/cache"
	"github.com/zaikolab/zaiko-report/internal/config"
	"github.com/zaikolab/zaiko-report/internal/domain"
	"github.com/zaikolab/zaiko-report/internal/service"
	"github.com/zaikolab/zaiko-report/internal/storage"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "extract-dir",
			Usage:   "Directory containing movement-log extracts",
			Value:   "./data/extracts",
			EnvVars: []string{"APP_EXTRACT_DIR"},
		},
		&cli.StringFlag{
			Name:    "master-dir",
			Usage:   "Directory containing image master tables",
			Value:   "./data/masters",
			EnvVars: []string{"APP_MASTER_DIR"},
		},
		&cli.StringFlag{
			Name:     "start",
			Usage:    "Window start date (YYYY-MM-DD)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "end",
			Usage:    "Window end date (YYYY-MM-DD)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "keyword",
			Usage: "Free-text filter over product code, base code and name",
		},
		&cli.IntFlag{
			Name:  "min-sold",
			Usage: "Minimum net units sold (inclusive)",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Output CSV path (default: stdout)",
		},
	}
}

func parseFilter(c *cli.Context) (domain.ReportFilter, error) {
	start, err := time.Parse("2006-01-02", c.String("start"))
	if err != nil {
		return domain.ReportFilter{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.String("end"))
	if err != nil {
		return domain.ReportFilter{}, fmt.Errorf("invalid --end: %w", err)
	}
	if end.Before(start) {
		return domain.ReportFilter{}, fmt.Errorf("--end must not be before --start")
	}
	if c.Int("min-sold") < 0 {
		return domain.ReportFilter{}, fmt.Errorf("--min-sold must be non-negative")
	}

	return domain.ReportFilter{
		Window:     domain.DateWindow{Start: start, End: end},
		Keyword:    c.String("keyword"),
		MinSold:    c.Int("min-sold"),
		TargetDays: c.Int("target-days"),
	}, nil
}

func newService(cfg *config.Config) *service.ReportService {
	return service.NewReportService(cfg.Report, cache.NewNoopReportCache(), nil, nil)
}

func outputWriter(c *cli.Context) (*csv.Writer, func(), error) {
	out := c.String("out")
	if out == "" {
		w := csv.NewWriter(os.Stdout)
		return w, w.Flush, nil
	}

	f, err := os.Create(out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w := csv.NewWriter(f)
	return w, func() {
		w.Flush()
		f.Close()
	}, nil
}

func runSales(c *cli.Context) error {
	cfg := config.Load()
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	src, err := service.SourcesFromDirs(c.String("extract-dir"), c.String("master-dir"))
	if err != nil {
		return err
	}

	rows, err := newService(cfg).SalesReport(c.Context, src, filter)
	if err != nil {
		return err
	}

	w, done, err := outputWriter(c)
	if err != nil {
		return err
	}
	defer done()

	if err := w.Write([]string{"product_code", "base_code", "product_name", "attribute1", "attribute2", "net_units_sold", "current_stock", "image_url"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ProductCode,
			r.BaseCode,
			r.ProductName,
			r.Attribute1,
			r.Attribute2,
			strconv.Itoa(r.NetUnitsSold),
			strconv.Itoa(r.CurrentStock),
			r.ImageURL,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func runReorder(c *cli.Context) error {
	cfg := config.Load()
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}
	if filter.TargetDays < 1 {
		return fmt.Errorf("--target-days must be at least 1")
	}

	src, err := service.SourcesFromDirs(c.String("extract-dir"), c.String("master-dir"))
	if err != nil {
		return err
	}

	rows, err := newService(cfg).ReorderReport(c.Context, src, filter)
	if err != nil {
		return err
	}

	w, done, err := outputWriter(c)
	if err != nil {
		return err
	}
	defer done()

	if err := w.Write([]string{"product_code", "base_code", "product_name", "net_units_sold", "current_stock", "avg_daily_sales", "target_stock", "recommended_order_qty"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ProductCode,
			r.BaseCode,
			r.ProductName,
			strconv.Itoa(r.NetUnitsSold),
			strconv.Itoa(r.CurrentStock),
			strconv.FormatFloat(r.AvgDailySales, 'f', 2, 64),
			strconv.Itoa(r.TargetStock),
			strconv.Itoa(r.RecommendedOrderQty),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func runPull(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return fmt.Errorf("object storage is not configured (set STORAGE_* variables)")
	}

	client, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return err
	}

	paths, err := storage.PullExtracts(c.Context, client, cfg.Storage.Prefix, c.String("extract-dir"))
	if err != nil {
		return err
	}

	log.Printf("pulled %d extract files", len(paths))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "zaiko-report",
		Usage: "Aggregate movement-log extracts into sales and reorder reports",
		Commands: []*cli.Command{
			{
				Name:   "sales",
				Usage:  "Produce the sales-ranked product report",
				Flags:  commonFlags(),
				Action: runSales,
			},
			{
				Name:  "reorder",
				Usage: "Produce the restock recommendation report",
				Flags: append(commonFlags(), &cli.IntFlag{
					Name:  "target-days",
					Usage: "Safety-stock horizon in days",
					Value: 30,
				}),
				Action: runReorder,
			},
			{
				Name:  "pull",
				Usage: "Download extracts from object storage into the extract dir",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "extract-dir",
						Usage:   "Destination directory for downloaded extracts",
						Value:   "./data/extracts",
						EnvVars: []string{"APP_EXTRACT_DIR"},
					},
				},
				Action: runPull,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
