package monitor

import "sync"

// BoundedSeries — кольцевой буфер фиксированной емкости с FIFO-вытеснением.
// Порядок вставки — единственный значимый порядок, пересортировки нет.
// Все операции потокобезопасны.
type BoundedSeries[T any] struct {
	mu   sync.RWMutex
	buf  []T
	head int // индекс самого старого элемента
	size int
}

func NewBoundedSeries[T any](capacity int) *BoundedSeries[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &BoundedSeries[T]{buf: make([]T, capacity)}
}

// Append добавляет элемент как самый новый. При заполненном буфере старейший
// элемент молча вытесняется — это намеренная политика хранения с потерями,
// не ошибка. O(1).
func (s *BoundedSeries[T]) Append(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size < len(s.buf) {
		s.buf[(s.head+s.size)%len(s.buf)] = item
		s.size++
		return
	}
	s.buf[s.head] = item
	s.head = (s.head + 1) % len(s.buf)
}

// Len возвращает текущее заполнение буфера.
func (s *BoundedSeries[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Cap возвращает емкость буфера.
func (s *BoundedSeries[T]) Cap() int {
	return len(s.buf)
}

// Latest возвращает самый новый элемент, если буфер не пуст.
func (s *BoundedSeries[T]) Latest() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	if s.size == 0 {
		return zero, false
	}
	return s.buf[(s.head+s.size-1)%len(s.buf)], true
}

// Snapshot возвращает копию элементов, удовлетворяющих предикату,
// в порядке вставки. nil-предикат означает «все элементы». Буфер не изменяется,
// читатель никогда не видит частично записанное состояние.
func (s *BoundedSeries[T]) Snapshot(pred func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, s.size)
	for i := 0; i < s.size; i++ {
		item := s.buf[(s.head+i)%len(s.buf)]
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Prune оставляет только элементы, для которых keep == true, сохраняя
// относительный порядок и емкость. Возвращает число удаленных элементов.
func (s *BoundedSeries[T]) Prune(keep func(T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]T, 0, s.size)
	for i := 0; i < s.size; i++ {
		item := s.buf[(s.head+i)%len(s.buf)]
		if keep(item) {
			kept = append(kept, item)
		}
	}
	removed := s.size - len(kept)

	// Перекладываем выжившие с нулевой позиции и зануляем хвост,
	// чтобы не держать ссылки на вытесненные значения
	var zero T
	copy(s.buf, kept)
	for i := len(kept); i < len(s.buf); i++ {
		s.buf[i] = zero
	}
	s.head = 0
	s.size = len(kept)
	return removed
}
