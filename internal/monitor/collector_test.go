package monitor

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

var testClock = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// newTestCollector собирает коллектор с фиксированными часами и Null-метриками.
func newTestCollector(t *testing.T, cfg Config) *Collector {
	t.Helper()
	c := NewCollector(cfg, zap.NewNop(), nil)
	c.now = func() time.Time { return testClock }
	return c
}

func request(method, path string, status int, rt float64, ts time.Time) domain.RequestSample {
	return domain.RequestSample{
		Endpoint:     path,
		Method:       method,
		StatusCode:   status,
		ResponseTime: rt,
		Timestamp:    ts,
	}
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecordRequestAggregatesEndpoint(t *testing.T) {
	c := newTestCollector(t, Config{})

	for _, rt := range []float64{0.1, 0.2, 0.3} {
		c.RecordRequest(request("GET", "/health", 200, rt, testClock))
	}

	stats := c.EndpointStatistics()
	st, ok := stats["GET /health"]
	if !ok {
		t.Fatalf("missing endpoint key, got %v", stats)
	}
	if st.TotalRequests != 3 || st.SuccessfulRequests != 3 || st.FailedRequests != 0 {
		t.Fatalf("counters = %+v", st)
	}
	if !closeEnough(st.AvgResponseTime, 0.2) {
		t.Fatalf("AvgResponseTime = %v, want 0.2", st.AvgResponseTime)
	}
	if !closeEnough(st.TotalResponseTime, 0.6) {
		t.Fatalf("TotalResponseTime = %v, want 0.6", st.TotalResponseTime)
	}
}

func TestRecordRequestStatusClasses(t *testing.T) {
	tests := []struct {
		status      int
		wantSuccess bool
		wantTallied bool
	}{
		{100, false, false}, // не успех, но и не ошибка для тотала
		{200, true, false},
		{302, true, false},
		{399, true, false},
		{400, false, true},
		{404, false, true},
		{500, false, true},
	}

	for _, tc := range tests {
		c := newTestCollector(t, Config{})
		c.RecordRequest(request("GET", "/x", tc.status, 0.05, testClock))

		st := c.EndpointStatistics()["GET /x"]
		gotSuccess := st.SuccessfulRequests == 1
		if gotSuccess != tc.wantSuccess {
			t.Errorf("status %d: success = %v, want %v", tc.status, gotSuccess, tc.wantSuccess)
		}

		errStats := c.ErrorStatistics()
		_, tallied := errStats.ErrorBreakdown[tc.status]
		if tallied != tc.wantTallied {
			t.Errorf("status %d: tallied = %v, want %v", tc.status, tallied, tc.wantTallied)
		}
	}
}

func TestErrorStatistics(t *testing.T) {
	c := newTestCollector(t, Config{})

	c.RecordRequest(request("GET", "/ok", 200, 0.1, testClock))
	c.RecordRequest(request("POST", "/boom", 500, 0.3, testClock))
	c.RecordRequest(request("POST", "/boom", 500, 0.3, testClock))
	c.RecordRequest(request("GET", "/missing", 404, 0.1, testClock))

	got := c.ErrorStatistics()
	if got.TotalRequests != 4 || got.TotalErrors != 3 {
		t.Fatalf("totals = %d/%d, want 4/3", got.TotalRequests, got.TotalErrors)
	}
	if !closeEnough(got.ErrorRate, 0.75) {
		t.Fatalf("ErrorRate = %v, want 0.75", got.ErrorRate)
	}
	if got.ErrorBreakdown[500] != 2 || got.ErrorBreakdown[404] != 1 {
		t.Fatalf("ErrorBreakdown = %v", got.ErrorBreakdown)
	}
	if got.EndpointErrors["POST /boom"] != 2 {
		t.Fatalf("EndpointErrors = %v", got.EndpointErrors)
	}
	if _, ok := got.EndpointErrors["GET /ok"]; ok {
		t.Fatal("endpoint without failures must be absent from EndpointErrors")
	}
}

func TestErrorStatisticsEmpty(t *testing.T) {
	c := newTestCollector(t, Config{})

	got := c.ErrorStatistics()
	if got.ErrorRate != 0 {
		t.Fatalf("ErrorRate on empty collector = %v, want 0", got.ErrorRate)
	}
}

func TestRecordRequestFillsTimestamp(t *testing.T) {
	c := newTestCollector(t, Config{})
	c.RecordRequest(request("GET", "/x", 200, 0.1, time.Time{}))

	samples := c.requests.Snapshot(nil)
	if len(samples) != 1 || !samples[0].Timestamp.Equal(testClock) {
		t.Fatalf("timestamp = %v, want %v", samples[0].Timestamp, testClock)
	}
}

func TestRequestBufferEviction(t *testing.T) {
	c := newTestCollector(t, Config{RequestCapacity: 5})

	for i := 0; i < 8; i++ {
		c.RecordRequest(request("GET", "/x", 200, float64(i), testClock))
	}

	if got := c.ActiveConnections(); got != 5 {
		t.Fatalf("ActiveConnections = %d, want 5", got)
	}
	// Счетчики эндпоинтов емкостью не вытесняются
	if st := c.EndpointStatistics()["GET /x"]; st.TotalRequests != 8 {
		t.Fatalf("TotalRequests = %d, want 8", st.TotalRequests)
	}
}
