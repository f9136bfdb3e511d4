package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestHandler_ServesMetrics はスクレイプでメトリクスが返ることを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTaskCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "taskmaintain_tasks_created_total 1") {
		t.Error("response should contain taskmaintain_tasks_created_total")
	}
}

// TestNoop_DoesNotPanic はNoopが何もせずに呼び出せることを検証する。
func TestNoop_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = Noop{}
	c.RecordAuthEvent("SIGNED_IN")
	c.RecordTaskCreated()
	c.RecordProfileCreated()
	c.RecordLoaderFailure("stats")
	c.RecordHTTPStatus("GET", 200)
	c.RecordSessionsPurged(1, 0)
}
