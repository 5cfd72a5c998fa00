package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()

	c.ObservePlacement("committed")
	c.ObservePlacement("committed")
	c.ObservePlacement("failed")
	c.ObserveSave("saved")
	c.BoardWritten("replace_all")
	c.SetUtilization("r1", 130)
	c.ObserveGateway("save_all", 20*time.Millisecond, nil)
	c.ObserveGateway("save_all", 20*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.placements.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.placements.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.saves.WithLabelValues("saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.writes.WithLabelValues("replace_all")))
	assert.Equal(t, 130.0, testutil.ToFloat64(c.utilization.WithLabelValues("r1")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.gatewayTime))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.ObservePlacement("cancelled")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `runboard_console_placements_total{result="cancelled"} 1`))
}
