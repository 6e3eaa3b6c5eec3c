package monitor

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func TestBoundedSeriesEvictsOldest(t *testing.T) {
	s := NewBoundedSeries[int](3)
	for i := 1; i <= 5; i++ {
		s.Append(i)
	}

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	got := s.Snapshot(nil)
	want := []int{3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snapshot = %v, want %v", got, want)
	}
}

func TestBoundedSeriesLatest(t *testing.T) {
	s := NewBoundedSeries[string](2)

	if _, ok := s.Latest(); ok {
		t.Fatal("Latest on empty series reported ok")
	}

	s.Append("a")
	s.Append("b")
	s.Append("c") // вытесняет "a"

	latest, ok := s.Latest()
	if !ok || latest != "c" {
		t.Fatalf("Latest = %q, %v; want %q, true", latest, ok, "c")
	}
}

func TestBoundedSeriesSnapshotPredicate(t *testing.T) {
	s := NewBoundedSeries[int](10)
	for i := 1; i <= 6; i++ {
		s.Append(i)
	}

	got := s.Snapshot(func(v int) bool { return v%2 == 0 })
	want := []int{2, 4, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snapshot = %v, want %v", got, want)
	}
}

func TestBoundedSeriesPrune(t *testing.T) {
	s := NewBoundedSeries[int](4)
	for i := 1; i <= 6; i++ {
		s.Append(i) // остаются 3,4,5,6
	}

	removed := s.Prune(func(v int) bool { return v >= 5 })
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if got, want := s.Snapshot(nil), []int{5, 6}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Snapshot after prune = %v, want %v", got, want)
	}
	if s.Cap() != 4 {
		t.Fatalf("Cap after prune = %d, want 4", s.Cap())
	}

	// Буфер остается рабочим после чистки
	s.Append(7)
	s.Append(8)
	s.Append(9) // вытесняет 5
	if got, want := s.Snapshot(nil), []int{6, 7, 8, 9}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Snapshot after refill = %v, want %v", got, want)
	}
}

// Свойство: буфер всегда ведет себя как хвост последовательности вставок
// длиной не больше емкости.
func TestBoundedSeriesMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 16).Draw(t, "capacity")
		s := NewBoundedSeries[int](capacity)
		var model []int

		n := rapid.IntRange(0, 100).Draw(t, "n")
		for i := 0; i < n; i++ {
			v := rapid.Int().Draw(t, "v")
			s.Append(v)
			model = append(model, v)
			if len(model) > capacity {
				model = model[len(model)-capacity:]
			}
		}

		got := s.Snapshot(nil)
		if len(got) != len(model) {
			t.Fatalf("Len = %d, want %d", len(got), len(model))
		}
		for i := range model {
			if got[i] != model[i] {
				t.Fatalf("Snapshot[%d] = %d, want %d", i, got[i], model[i])
			}
		}
	})
}
