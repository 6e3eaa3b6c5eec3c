package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// stubProber отдает фиксированные значения или ошибку.
type stubProber struct {
	cpu, mem, disk float64
	err            error
}

func (p stubProber) Probe(ctx context.Context) (float64, float64, float64, error) {
	return p.cpu, p.mem, p.disk, p.err
}

func TestSampleOnceRecordsSnapshot(t *testing.T) {
	c := newTestCollector(t, Config{})
	c.RecordRequest(request("GET", "/x", 200, 0.1, testClock))
	c.RecordRequest(request("GET", "/x", 200, 0.1, testClock))

	s := NewSampler(c, stubProber{cpu: 12.5, mem: 40, disk: 55}, time.Second, time.Second, zap.NewNop(), nil)
	s.now = func() time.Time { return testClock }

	if err := s.SampleOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	latest, ok := c.system.Latest()
	if !ok {
		t.Fatal("no system sample recorded")
	}
	if latest.CPUPercent != 12.5 || latest.MemoryPercent != 40 || latest.DiskUsagePercent != 55 {
		t.Fatalf("sample = %+v", latest)
	}
	if latest.ActiveConnections != 2 {
		t.Fatalf("ActiveConnections = %d, want 2", latest.ActiveConnections)
	}
	if !latest.Timestamp.Equal(testClock) {
		t.Fatalf("Timestamp = %v, want %v", latest.Timestamp, testClock)
	}
}

func TestSampleOnceProbeFailure(t *testing.T) {
	c := newTestCollector(t, Config{})
	probeErr := errors.New("no permissions")

	s := NewSampler(c, stubProber{err: probeErr}, time.Second, time.Second, zap.NewNop(), nil)

	if err := s.SampleOnce(context.Background()); !errors.Is(err, probeErr) {
		t.Fatalf("err = %v, want %v", err, probeErr)
	}
	if c.system.Len() != 0 {
		t.Fatal("failed probe must not record a sample")
	}
}

// failOnceProber проваливает первый замер, дальше отвечает успешно.
type failOnceProber struct {
	calls atomic.Int32
}

func (p *failOnceProber) Probe(ctx context.Context) (float64, float64, float64, error) {
	if p.calls.Add(1) == 1 {
		return 0, 0, 0, errors.New("transient probe failure")
	}
	return 5, 5, 5, nil
}

// После сбойного замера следующая попытка приходит через backoff,
// а не через номинальный interval.
func TestRunBacksOffAfterProbeFailure(t *testing.T) {
	c := newTestCollector(t, Config{})
	prober := &failOnceProber{}
	s := NewSampler(c, prober, 2*time.Millisecond, 400*time.Millisecond, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Ждем первый (сбойный) замер
	deadline := time.Now().Add(2 * time.Second)
	for prober.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("prober was never called")
		}
		time.Sleep(time.Millisecond)
	}
	failedAt := time.Now()

	// interval давно прошел, но до backoff снимка быть не должно
	time.Sleep(100 * time.Millisecond)
	if c.system.Len() != 0 {
		t.Fatal("snapshot recorded before error backoff elapsed")
	}

	for c.system.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no snapshot after backoff window")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if waited := time.Since(failedAt); waited < 300*time.Millisecond {
		t.Fatalf("recovery probe fired after %v, want a backoff-sized delay", waited)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	c := newTestCollector(t, Config{})
	s := NewSampler(c, stubProber{cpu: 1}, time.Millisecond, time.Millisecond, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Ждем хотя бы один снимок, затем гасим контекст
	deadline := time.After(2 * time.Second)
	for c.system.Len() == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("sampler produced no snapshots")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
