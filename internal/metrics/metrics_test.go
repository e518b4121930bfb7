package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFeed(t *testing.T) {
	before := testutil.ToFloat64(FeedsCrawled.WithLabelValues("failed"))
	RecordFeed(false)
	assert.InDelta(t, before+1, testutil.ToFloat64(FeedsCrawled.WithLabelValues("failed")), 0.001)
}

func TestRecordArticle(t *testing.T) {
	ok := testutil.ToFloat64(ArticlesCrawled.WithLabelValues("ok"))
	diag := testutil.ToFloat64(ArticlesCrawled.WithLabelValues("diagnostic"))

	RecordArticle(false)
	RecordArticle(true)
	RecordArticle(true)

	assert.InDelta(t, ok+1, testutil.ToFloat64(ArticlesCrawled.WithLabelValues("ok")), 0.001)
	assert.InDelta(t, diag+2, testutil.ToFloat64(ArticlesCrawled.WithLabelValues("diagnostic")), 0.001)
}

func TestRecordPersisted(t *testing.T) {
	ok := testutil.ToFloat64(ArticlesPersisted.WithLabelValues("ok"))
	RecordPersisted(49, 1)
	assert.InDelta(t, ok+49, testutil.ToFloat64(ArticlesPersisted.WithLabelValues("ok")), 0.001)
}

func TestObserveCycle(t *testing.T) {
	// Should not panic
	ObserveCycle(3 * time.Second)
}
