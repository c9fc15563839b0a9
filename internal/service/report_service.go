package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zaikolab/zaiko-report/internal/aggregate"
	"github.com/zaikolab/zaiko-report/internal/cache"
	"github.com/zaikolab/zaiko-report/internal/config"
	"github.com/zaikolab/zaiko-report/internal/domain"
	"github.com/zaikolab/zaiko-report/internal/extract"
	"github.com/zaikolab/zaiko-report/internal/imagemap"
	"github.com/zaikolab/zaiko-report/internal/reorder"
	"github.com/zaikolab/zaiko-report/internal/report"
)

// Sources names the input files for one report computation. Extracts are
// expected in chronological order (date-prefixed filenames sort that way).
type Sources struct {
	ExtractPaths []string
	MasterPaths  []string
}

// Archiver persists finished report runs. Archiving is best-effort; a
// failure is logged and never fails the report.
type Archiver interface {
	SaveSalesRun(ctx context.Context, filter domain.ReportFilter, rows []domain.AggregatedProduct) error
	SaveReorderRun(ctx context.Context, filter domain.ReportFilter, rows []domain.ReorderRecommendation) error
}

// ReportService runs the full pipeline: load extracts, aggregate, derive
// reorder figures, join images, filter. It holds no mutable state between
// calls beyond the memoization cache, so identical inputs yield identical
// reports.
type ReportService struct {
	loader  *extract.Loader
	builder *imagemap.Builder
	fetcher imagemap.Provider // optional, used when no master table exists
	cache   cache.ReportCache
	archive Archiver // optional
	cfg     config.ReportConfig
}

func NewReportService(cfg config.ReportConfig, reportCache cache.ReportCache, fetcher imagemap.Provider, archive Archiver) *ReportService {
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &ReportService{
		loader: extract.NewLoader(extract.Options{
			Encoding:   cfg.Encoding,
			DateLayout: cfg.DateLayout,
		}),
		builder: imagemap.NewBuilder(cfg.Encoding),
		fetcher: fetcher,
		cache:   reportCache,
		archive: archive,
		cfg:     cfg,
	}
}

// SalesReport returns the sales-ranked product rows for the filter window.
// An empty window (no matching extract rows) yields an empty report, not an
// error.
func (s *ReportService) SalesReport(ctx context.Context, src Sources, filter domain.ReportFilter) ([]domain.AggregatedProduct, error) {
	signature := sourceSignature(src)

	if rows, ok, err := s.cache.GetSales(ctx, signature, filter); err == nil && ok {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("report: cache get failed")
	}

	aggregated, images, err := s.aggregate(ctx, src, filter.Window)
	if err != nil {
		return nil, err
	}

	assembler := report.NewAssembler(images)
	rows := assembler.SalesReport(aggregated, filter.Keyword, filter.MinSold)

	if err := s.cache.SetSales(ctx, signature, filter, rows); err != nil {
		log.Warn().Err(err).Msg("report: cache set failed")
	}
	if s.archive != nil {
		if err := s.archive.SaveSalesRun(ctx, filter, rows); err != nil {
			log.Warn().Err(err).Msg("report: archive failed")
		}
	}

	return rows, nil
}

// ReorderReport returns restock recommendations for the filter window and
// target-days horizon.
func (s *ReportService) ReorderReport(ctx context.Context, src Sources, filter domain.ReportFilter) ([]domain.ReorderRecommendation, error) {
	if filter.TargetDays < 1 {
		filter.TargetDays = s.cfg.DefaultTargetDays
	}

	signature := sourceSignature(src)

	if rows, ok, err := s.cache.GetReorder(ctx, signature, filter); err == nil && ok {
		return rows, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("report: cache get failed")
	}

	aggregated, images, err := s.aggregate(ctx, src, filter.Window)
	if err != nil {
		return nil, err
	}

	recommendations := reorder.Recommend(aggregated, filter.Window.Days(), filter.TargetDays)

	assembler := report.NewAssembler(images)
	rows := assembler.ReorderReport(recommendations, filter.Keyword, filter.MinSold)

	if err := s.cache.SetReorder(ctx, signature, filter, rows); err != nil {
		log.Warn().Err(err).Msg("report: cache set failed")
	}
	if s.archive != nil {
		if err := s.archive.SaveReorderRun(ctx, filter, rows); err != nil {
			log.Warn().Err(err).Msg("report: archive failed")
		}
	}

	return rows, nil
}

// Periods returns the distinct extract periods of the sources, newest first.
func (s *ReportService) Periods(src Sources) ([]time.Time, error) {
	records, err := s.loader.LoadFiles(src.ExtractPaths)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]struct{})
	periods := make([]time.Time, 0)
	for _, r := range records {
		if r.SourcePeriod.IsZero() {
			continue
		}
		if _, ok := seen[r.SourcePeriod]; ok {
			continue
		}
		seen[r.SourcePeriod] = struct{}{}
		periods = append(periods, r.SourcePeriod)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].After(periods[j]) })
	return periods, nil
}

func (s *ReportService) aggregate(ctx context.Context, src Sources, window domain.DateWindow) ([]domain.AggregatedProduct, imagemap.Map, error) {
	records, err := s.loader.LoadFiles(src.ExtractPaths)
	if err != nil {
		return nil, nil, err
	}

	aggregated, err := aggregate.Aggregate(records, window, aggregate.ReasonFilter(s.cfg.SalesReason), aggregate.DefaultGroupKeys)
	if errors.Is(err, domain.ErrNoData) {
		log.Debug().
			Time("start", window.Start).
			Time("end", window.End).
			Msg("report: no movement data in window")
		aggregated = nil
	} else if err != nil {
		return nil, nil, err
	}

	images, err := s.builder.BuildFromFiles(src.MasterPaths)
	if err != nil {
		return nil, nil, err
	}

	// No master table available: fall back to the remote provider for the
	// keys this report actually needs. Numbers never depend on it.
	if len(images) == 0 && s.fetcher != nil && len(aggregated) > 0 {
		keys := make([]string, 0, len(aggregated))
		for _, p := range aggregated {
			if p.BaseCode != "" {
				keys = append(keys, p.BaseCode)
			}
		}
		images = s.fetcher.Resolve(ctx, keys)
	}

	return aggregated, images, nil
}

func sourceSignature(src Sources) string {
	paths := make([]string, 0, len(src.ExtractPaths)+len(src.MasterPaths))
	paths = append(paths, src.ExtractPaths...)
	paths = append(paths, src.MasterPaths...)
	return extract.FileSetSignature(paths)
}
