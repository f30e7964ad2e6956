package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(recordMutations.WithLabelValues("EMS", "upsert"))

	RecordMutation("EMS", "upsert")
	RecordMutation("EMS", "upsert")

	assert.Equal(t, before+2, testutil.ToFloat64(recordMutations.WithLabelValues("EMS", "upsert")))
}

func TestRecordExportSplitsResults(t *testing.T) {
	okBefore := testutil.ToFloat64(exports.WithLabelValues("file", "ok"))
	errBefore := testutil.ToFloat64(exports.WithLabelValues("file", "error"))

	RecordExport("file", nil)
	RecordExport("file", errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(exports.WithLabelValues("file", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(exports.WithLabelValues("file", "error")))
}

func TestRecordExportCompletedIgnoresZeroTime(t *testing.T) {
	RecordExportCompleted("ESS", time.Unix(1756300000, 0))
	RecordExportCompleted("ESS", time.Time{})

	assert.Equal(t, float64(1756300000), testutil.ToFloat64(lastExport.WithLabelValues("ESS")))
}

func TestDashboardCacheAndSecurityEvents(t *testing.T) {
	hits := testutil.ToFloat64(dashboardCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(dashboardCache.WithLabelValues("miss"))
	limited := testutil.ToFloat64(securityEvents.WithLabelValues("rate_limited"))

	DashboardCache(true)
	DashboardCache(false)
	DashboardCache(false)
	SecurityEvent("rate_limited")

	assert.Equal(t, hits+1, testutil.ToFloat64(dashboardCache.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(dashboardCache.WithLabelValues("miss")))
	assert.Equal(t, limited+1, testutil.ToFloat64(securityEvents.WithLabelValues("rate_limited")))
}
