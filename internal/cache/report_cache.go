package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zaikolab/zaiko-report/internal/config"
	"github.com/zaikolab/zaiko-report/internal/domain"
)

const (
	salesReportKeyPrefix   = "report:sales"
	reorderReportKeyPrefix = "report:reorder"
	reportScanBatchSize    = 100
)

// ReportCache memoizes assembled reports. Entries are keyed by the input
// file-set signature plus the filter hash, so any change to the underlying
// extracts produces a different key and old entries simply expire.
type ReportCache interface {
	GetSales(ctx context.Context, signature string, filter domain.ReportFilter) ([]domain.AggregatedProduct, bool, error)
	SetSales(ctx context.Context, signature string, filter domain.ReportFilter, rows []domain.AggregatedProduct) error
	GetReorder(ctx context.Context, signature string, filter domain.ReportFilter) ([]domain.ReorderRecommendation, bool, error)
	SetReorder(ctx context.Context, signature string, filter domain.ReportFilter, rows []domain.ReorderRecommendation) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetSales(ctx context.Context, signature string, filter domain.ReportFilter) ([]domain.AggregatedProduct, bool, error) {
	var rows []domain.AggregatedProduct
	ok, err := c.get(ctx, buildKey(salesReportKeyPrefix, signature, filter), &rows)
	return rows, ok, err
}

func (c *redisReportCache) SetSales(ctx context.Context, signature string, filter domain.ReportFilter, rows []domain.AggregatedProduct) error {
	return c.set(ctx, buildKey(salesReportKeyPrefix, signature, filter), rows)
}

func (c *redisReportCache) GetReorder(ctx context.Context, signature string, filter domain.ReportFilter) ([]domain.ReorderRecommendation, bool, error) {
	var rows []domain.ReorderRecommendation
	ok, err := c.get(ctx, buildKey(reorderReportKeyPrefix, signature, filter), &rows)
	return rows, ok, err
}

func (c *redisReportCache) SetReorder(ctx context.Context, signature string, filter domain.ReportFilter, rows []domain.ReorderRecommendation) error {
	return c.set(ctx, buildKey(reorderReportKeyPrefix, signature, filter), rows)
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, salesReportKeyPrefix, reportScanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, reorderReportKeyPrefix, reportScanBatchSize)
}

func (c *redisReportCache) get(ctx context.Context, key string, out any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode report cache entry: %w", err)
	}
	return true, nil
}

func (c *redisReportCache) set(ctx context.Context, key string, rows any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode report cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopReportCache) GetSales(ctx context.Context, signature string, filter domain.ReportFilter) ([]domain.AggregatedProduct, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetSales(ctx context.Context, signature string, filter domain.ReportFilter, rows []domain.AggregatedProduct) error {
	return nil
}

func (n *noopReportCache) GetReorder(ctx context.Context, signature string, filter domain.ReportFilter) ([]domain.ReorderRecommendation, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReorder(ctx context.Context, signature string, filter domain.ReportFilter, rows []domain.ReorderRecommendation) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildKey(prefix, signature string, filter domain.ReportFilter) string {
	return fmt.Sprintf("%s:%s:%s", prefix, signature, FilterHash(filter))
}

// FilterHash produces a stable digest of the report parameters.
func FilterHash(filter domain.ReportFilter) string {
	parts := []string{}

	if !filter.Window.Start.IsZero() {
		parts = append(parts, "start="+filter.Window.Start.Format("2006-01-02"))
	}
	if !filter.Window.End.IsZero() {
		parts = append(parts, "end="+filter.Window.End.Format("2006-01-02"))
	}
	if kw := strings.ToLower(strings.TrimSpace(filter.Keyword)); kw != "" {
		parts = append(parts, "keyword="+kw)
	}
	if filter.MinSold > 0 {
		parts = append(parts, fmt.Sprintf("min_sold=%d", filter.MinSold))
	}
	if filter.TargetDays > 0 {
		parts = append(parts, fmt.Sprintf("target_days=%d", filter.TargetDays))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
