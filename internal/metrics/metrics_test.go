package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibs-source/batch/runner/golang/internal/domain"
)

func TestCollector_ExposesCounters(t *testing.T) {
	m := domain.NewMetrics()
	m.BatchesRead.Add(5)
	m.ItemsRead.Add(50)
	m.ApplyErrors.Add(2)
	m.ActiveWorkers.Store(3)

	c := NewCollector(m)
	assert.Equal(t, 12, testutil.CollectAndCount(c))

	expected := `
# HELP batchrunner_batches_read_total Total number of batches pulled from the source
# TYPE batchrunner_batches_read_total counter
batchrunner_batches_read_total 5
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"batchrunner_batches_read_total"))

	expected = `
# HELP batchrunner_stage_errors_total Total number of errors recorded per stage
# TYPE batchrunner_stage_errors_total counter
batchrunner_stage_errors_total{stage="apply"} 2
batchrunner_stage_errors_total{stage="read"} 0
batchrunner_stage_errors_total{stage="write"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"batchrunner_stage_errors_total"))
}

func TestNewRegistry_Gathers(t *testing.T) {
	m := domain.NewMetrics()
	m.ItemsWritten.Add(7)

	reg := NewRegistry(m)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewServer_Addr(t *testing.T) {
	srv := NewServer(domain.NewMetrics(), 9191)
	assert.Equal(t, ":9191", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
