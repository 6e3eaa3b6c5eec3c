package archive

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// stubStorage копит все пачки в памяти.
type stubStorage struct {
	mu      sync.Mutex
	batches [][]Record
}

func (s *stubStorage) WriteBatch(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]Record, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *stubStorage) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func sampleFor(path string) domain.RequestSample {
	return domain.RequestSample{
		Endpoint:   path,
		Method:     "GET",
		StatusCode: 200,
		Timestamp:  time.Now().UTC(),
	}
}

func TestWriterDrainsOnStop(t *testing.T) {
	storage := &stubStorage{}
	// flushInterval огромный: сбросы только по размеру пачки и на Stop
	w := NewWriter(storage, 100, 10, time.Hour, zap.NewNop())
	w.Start()

	const n = 25
	for i := 0; i < n; i++ {
		w.Archive(sampleFor("/x"))
	}
	w.Stop()

	if got := storage.total(); got != n {
		t.Fatalf("archived %d records, want %d", got, n)
	}
}

func TestWriterBatchesBySize(t *testing.T) {
	storage := &stubStorage{}
	w := NewWriter(storage, 100, 5, time.Hour, zap.NewNop())
	w.Start()

	for i := 0; i < 12; i++ {
		w.Archive(sampleFor("/y"))
	}
	w.Stop()

	storage.mu.Lock()
	defer storage.mu.Unlock()
	// 5 + 5 по лимиту пачки, 2 — финальный сброс на Stop
	if len(storage.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(storage.batches))
	}
	if len(storage.batches[0]) != 5 || len(storage.batches[2]) != 2 {
		t.Fatalf("batch sizes = %d/%d/%d", len(storage.batches[0]), len(storage.batches[1]), len(storage.batches[2]))
	}
}

func TestArchiveAfterStopIsDropped(t *testing.T) {
	storage := &stubStorage{}
	w := NewWriter(storage, 10, 5, time.Hour, zap.NewNop())
	w.Start()
	w.Stop()

	// Не паникует и не пишет в закрытый канал
	w.Archive(sampleFor("/late"))

	if got := storage.total(); got != 0 {
		t.Fatalf("archived %d records after stop, want 0", got)
	}
}

func TestArchiveAssignsUniqueIDs(t *testing.T) {
	storage := &stubStorage{}
	w := NewWriter(storage, 100, 100, time.Hour, zap.NewNop())
	w.Start()

	for i := 0; i < 10; i++ {
		w.Archive(sampleFor("/z"))
	}
	w.Stop()

	seen := make(map[string]bool)
	storage.mu.Lock()
	defer storage.mu.Unlock()
	for _, batch := range storage.batches {
		for _, rec := range batch {
			if rec.ID == "" {
				t.Fatal("record without ID")
			}
			if seen[rec.ID] {
				t.Fatalf("duplicate record ID %s", rec.ID)
			}
			seen[rec.ID] = true
		}
	}
}
