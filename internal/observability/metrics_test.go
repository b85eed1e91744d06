package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStagingOp(t *testing.T) {
	tests := []struct {
		name   string
		store  string
		op     string
		result string
	}{
		{"stage ok", "drafts", "stage", "ok"},
		{"peek hit", "drafts", "peek", "hit"},
		{"peek expired", "drafts", "peek", "expired"},
		{"remove miss", "oauth_state", "remove", "miss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(stagingOperationsTotal.WithLabelValues(tt.store, tt.op, tt.result))
			RecordStagingOp(tt.store, tt.op, tt.result)
			after := testutil.ToFloat64(stagingOperationsTotal.WithLabelValues(tt.store, tt.op, tt.result))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestRecordSweep(t *testing.T) {
	before := testutil.ToFloat64(stagingEvictedTotal.WithLabelValues("sweep-test"))
	RecordSweep("sweep-test", 3)
	RecordSweep("sweep-test", 0)
	assert.Equal(t, before+3, testutil.ToFloat64(stagingEvictedTotal.WithLabelValues("sweep-test")))
}

func TestRecordPrepareAndConfirm(t *testing.T) {
	RecordPrepare("staged", 1500*time.Millisecond)
	assert.Greater(t, testutil.ToFloat64(prepareTotal.WithLabelValues("staged")), 0.0)

	RecordConfirm("expired")
	assert.Greater(t, testutil.ToFloat64(confirmTotal.WithLabelValues("expired")), 0.0)

	RecordSourceFetch("knowledge", "empty")
	assert.Greater(t, testutil.ToFloat64(sourceFetchTotal.WithLabelValues("knowledge", "empty")), 0.0)
}

func TestMetrics_Concurrent(t *testing.T) {
	before := testutil.ToFloat64(confirmTotal.WithLabelValues("concurrent"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordConfirm("concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, before+50, testutil.ToFloat64(confirmTotal.WithLabelValues("concurrent")))
}
