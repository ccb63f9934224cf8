package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/compactd/compactd/internal/store"
)

type archiveStatsCollector struct {
	store        store.Store
	totalJobs    *prometheus.Desc
	jobsByStatus *prometheus.Desc
}

// RegisterArchiveCollector exposes job archive totals on the default
// registry. The collector queries the archive on every scrape.
func RegisterArchiveCollector(s store.Store) {
	prometheus.MustRegister(newArchiveStatsCollector(s))
}

func newArchiveStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_archive_%s", compactd, name)
	}

	return &archiveStatsCollector{
		store: s,
		totalJobs: prometheus.NewDesc(
			fqName("jobs_total"),
			"Total number of archived jobs.",
			nil,
			prometheus.Labels{},
		),
		jobsByStatus: prometheus.NewDesc(
			fqName("jobs_by_status_total"),
			"Archived jobs by final status.",
			[]string{"status"},
			prometheus.Labels{},
		),
	}
}

func (c *archiveStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalJobs
	ch <- c.jobsByStatus
}

// Collect implements Collector.
func (c *archiveStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.store.Archive().Stats(context.Background())
	if err != nil {
		zap.S().Named("archive_collector").Errorf("failed to collect archive statistics: %s", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalJobs, prometheus.GaugeValue, float64(stats.Total))

	for status, total := range stats.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.jobsByStatus, prometheus.GaugeValue, float64(total), status)
	}
}
