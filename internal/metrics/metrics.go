// Package metrics provides Prometheus metrics for the crawler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsx"

var (
	// FeedsCrawled counts feed crawls by status (ok, failed).
	FeedsCrawled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feeds_crawled_total",
			Help:      "Total number of feed crawls",
		},
		[]string{"status"},
	)

	// ArticlesCrawled counts scraped articles by outcome (ok, diagnostic).
	ArticlesCrawled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_crawled_total",
			Help:      "Total number of scraped articles",
		},
		[]string{"outcome"},
	)

	// ArticlesPersisted counts article writes by status (ok, failed).
	ArticlesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_persisted_total",
			Help:      "Total number of article upserts",
		},
		[]string{"status"},
	)

	// CycleDuration measures full crawl cycle duration.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_cycle_duration_seconds",
			Help:      "Duration of crawl cycles in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// FetchesInFlight tracks article fetches currently outstanding.
	FetchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "article_fetches_in_flight",
			Help:      "Number of article fetches currently in flight",
		},
	)
)

func RecordFeed(ok bool) {
	FeedsCrawled.WithLabelValues(status(ok)).Inc()
}

func RecordArticle(diagnostic bool) {
	if diagnostic {
		ArticlesCrawled.WithLabelValues("diagnostic").Inc()
		return
	}
	ArticlesCrawled.WithLabelValues("ok").Inc()
}

func RecordPersisted(ok, failed int) {
	ArticlesPersisted.WithLabelValues("ok").Add(float64(ok))
	ArticlesPersisted.WithLabelValues("failed").Add(float64(failed))
}

func ObserveCycle(d time.Duration) {
	CycleDuration.Observe(d.Seconds())
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
