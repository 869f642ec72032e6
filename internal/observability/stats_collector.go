package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource provides stored-record statistics.
type StatsSource interface {
	GetStats(ctx context.Context) (*storage.Stats, error)
}

// StatsCollector exports stored-record statistics as gauges, read fresh from
// the store on every scrape.
type StatsCollector struct {
	source  StatsSource
	timeout time.Duration
	logger  *slog.Logger

	records        *prometheus.Desc
	needsAttention *prometheus.Desc
	lowConfidence  *prometheus.Desc
	synced         *prometheus.Desc
	cacheEntries   *prometheus.Desc
}

// NewStatsCollector creates a collector over source.
func NewStatsCollector(source StatsSource, logger *slog.Logger) *StatsCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCollector{
		source:  source,
		timeout: 5 * time.Second,
		logger:  logger,
		records: prometheus.NewDesc(namespace+"_records",
			"Stored records by status.", []string{"status"}, nil),
		needsAttention: prometheus.NewDesc(namespace+"_records_needing_attention",
			"Stored records flagged for manual review.", nil, nil),
		lowConfidence: prometheus.NewDesc(namespace+"_records_low_confidence",
			"Stored records itemized from a best-fit match.", nil, nil),
		synced: prometheus.NewDesc(namespace+"_synced_imports",
			"Import ids written to the ledger.", nil, nil),
		cacheEntries: prometheus.NewDesc(namespace+"_category_cache_entries",
			"Entries in the persistent category cache.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.needsAttention
	ch <- c.lowConfidence
	ch <- c.synced
	ch <- c.cacheEntries
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.source.GetStats(ctx)
	if err != nil {
		c.logger.Warn("failed to collect record stats", "error", err)
		return
	}

	for status, n := range stats.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(n), status)
	}
	ch <- prometheus.MustNewConstMetric(c.needsAttention, prometheus.GaugeValue, float64(stats.NeedsAttention))
	ch <- prometheus.MustNewConstMetric(c.lowConfidence, prometheus.GaugeValue, float64(stats.LowConfidence))
	ch <- prometheus.MustNewConstMetric(c.synced, prometheus.GaugeValue, float64(stats.Synced))
	ch <- prometheus.MustNewConstMetric(c.cacheEntries, prometheus.GaugeValue, float64(stats.CacheEntries))
}

// RegisterStats adds a StatsCollector over source to the registry.
func (m *Metrics) RegisterStats(source StatsSource, logger *slog.Logger) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(NewStatsCollector(source, logger))
}
