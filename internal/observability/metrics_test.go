package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordParse(t *testing.T) {
	RecordParse("test_report", "ok", 24, 2)

	body := scrape(t)
	assert.Contains(t, body, `power_market_lab_parse_rows_total{outcome="parsed",report="test_report"} 24`)
	assert.Contains(t, body, `power_market_lab_parse_rows_total{outcome="skipped",report="test_report"} 2`)
	assert.Contains(t, body, `power_market_lab_parse_results_total{report="test_report",status="ok"} 1`)
}

func TestRecordFetch(t *testing.T) {
	RecordFetch("example.test", 0.2, "")
	RecordFetch("example.test", 0.1, "status")
	RecordFetchRetry("example.test")

	body := scrape(t)
	assert.Contains(t, body, `power_market_lab_fetch_errors_total{host="example.test",kind="status"} 1`)
	assert.Contains(t, body, `power_market_lab_fetch_latency_seconds_count{host="example.test"} 2`)
	assert.Contains(t, body, `power_market_lab_fetch_retries_total{host="example.test"} 1`)
}

func TestRecordDayBuild(t *testing.T) {
	RecordDayBuild("ok", 1.5, 9, 1700000000)
	RecordDayBuild("error", 0.5, 0, 1800000000)

	body := scrape(t)
	assert.Contains(t, body, "power_market_lab_pipeline_live_augmented_hours 9")
	assert.Contains(t, body, "power_market_lab_health_last_successful_build_timestamp 1.7e+09")
	assert.Contains(t, body, `power_market_lab_pipeline_day_builds_total{status="error"} 1`)
}

func TestRecordDBQuery(t *testing.T) {
	RecordDBQuery("postgres", "test_op", 0.01, errors.New("boom"))
	RecordReferenceRows(48)

	body := scrape(t)
	assert.Contains(t, body, `power_market_lab_database_query_errors_total{database="postgres",operation="test_op"} 1`)
	assert.Contains(t, body, "power_market_lab_database_reference_rows_loaded_total 48")
}

func TestGauges(t *testing.T) {
	SetWSClients(3)
	SetCurrentCushion(0.25)
	RecordWSMessage()

	body := scrape(t)
	assert.Contains(t, body, "power_market_lab_server_ws_clients 3")
	assert.Contains(t, body, "power_market_lab_market_current_cushion_ratio 0.25")
	assert.Contains(t, body, "power_market_lab_server_ws_messages_sent_total 1")
}

func TestRecordUptime(t *testing.T) {
	RecordUptime(15)
	RecordUptime(15)

	assert.Contains(t, scrape(t), "power_market_lab_health_uptime_seconds_total 30")
}
