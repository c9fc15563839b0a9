package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaikolab/zaiko-report/internal/config"
	"github.com/zaikolab/zaiko-report/internal/domain"
)

func sampleFilter() domain.ReportFilter {
	return domain.ReportFilter{
		Window: domain.DateWindow{
			Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		},
		Keyword:    "シャツ",
		MinSold:    3,
		TargetDays: 30,
	}
}

func TestFilterHashDeterministic(t *testing.T) {
	assert.Equal(t, FilterHash(sampleFilter()), FilterHash(sampleFilter()))
}

func TestFilterHashEmptyFilter(t *testing.T) {
	assert.Equal(t, "default", FilterHash(domain.ReportFilter{}))
}

func TestFilterHashSensitiveToEachParameter(t *testing.T) {
	base := FilterHash(sampleFilter())

	changed := sampleFilter()
	changed.Keyword = "パンツ"
	assert.NotEqual(t, base, FilterHash(changed))

	changed = sampleFilter()
	changed.MinSold = 4
	assert.NotEqual(t, base, FilterHash(changed))

	changed = sampleFilter()
	changed.TargetDays = 14
	assert.NotEqual(t, base, FilterHash(changed))

	changed = sampleFilter()
	changed.Window.End = changed.Window.End.AddDate(0, 0, 1)
	assert.NotEqual(t, base, FilterHash(changed))
}

func TestFilterHashNormalizesKeyword(t *testing.T) {
	a := sampleFilter()
	a.Keyword = "  Shirt "
	b := sampleFilter()
	b.Keyword = "shirt"
	assert.Equal(t, FilterHash(a), FilterHash(b))
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	c := NewNoopReportCache()
	ctx := context.Background()
	filter := sampleFilter()
	rows := []domain.AggregatedProduct{{ProductCode: "A-001", NetUnitsSold: 5}}

	require.NoError(t, c.SetSales(ctx, "sig", filter, rows))
	got, ok, err := c.GetSales(ctx, "sig", filter)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	require.NoError(t, c.InvalidateAll(ctx))
}

func TestNewReportCacheDisabled(t *testing.T) {
	c, err := NewReportCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok, err := c.GetReorder(context.Background(), "sig", sampleFilter())
	require.NoError(t, err)
	assert.False(t, ok)
}
