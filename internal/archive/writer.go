package archive

/*
Файл writer.go реализует фоновую архивацию сэмплов запросов в долговременное
хранилище (Postgres). Архив — вспомогательный поток данных рядом с кольцевыми
буферами движка: буферы лгут под нагрузкой (FIFO-вытеснение), архив — нет.

Ключевые особенности архитектуры:
- Non-blocking: прием сэмпла из Hot Path через неблокирующий канал. Задержки
  записи в БД не влияют на Response Time обслуживаемых запросов.
- Batching: накопление в памяти и пакетная запись (Bulk Insert) по таймеру
  или при достижении лимита пачки.
- Drain Pattern & Graceful Shutdown: при остановке канал закрывается, воркер
  вычитывает остатки и делает финальный flush — без потерь при перезагрузке.
- Load Shedding: при переполнении буфера сэмпл отбрасывается с записью в лог,
  но сам сервис не замедляется.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// StorageInterface определяет, куда физически сохраняются строки архива
type StorageInterface interface {
	// WriteBatch сохраняет пачку строк за один раз
	WriteBatch(ctx context.Context, records []Record) error
}

type Writer struct {
	ch     chan Record
	repo   StorageInterface
	logger *zap.Logger
	wg     sync.WaitGroup

	batchSize     int
	flushInterval time.Duration

	// Атомарный флаг (0 - открыт, 1 - закрыт): защита от Log после остановки
	isClosed int32
}

func NewWriter(repo StorageInterface, bufferSize, batchSize int, flushInterval time.Duration, logger *zap.Logger) *Writer {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Writer{
		ch:            make(chan Record, bufferSize),
		repo:          repo,
		logger:        logger.With(zap.String("mod", "archive")),
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

func (w *Writer) Start() {
	w.wg.Add(1)
	go w.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (w *Writer) Stop() {
	// 1. Сначала ставим флаг
	atomic.StoreInt32(&w.isClosed, 1)

	// 2. Даем крошечную паузу, чтобы текущие Archive успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Drain Pattern: завершение воркера — только через закрытие канала
	w.logger.Info("stopping archive: closing channel and flushing buffer...")
	close(w.ch)
	w.wg.Wait()
	w.logger.Info("archive stopped gracefully")
}

// Archive ставит сэмпл в очередь на запись. Никогда не блокирует вызывающего.
func (w *Writer) Archive(sample domain.RequestSample) {
	if atomic.LoadInt32(&w.isClosed) == 1 {
		w.logger.Warn("archive record dropped: writer is stopping",
			zap.String("endpoint", sample.Endpoint))
		return
	}

	record := Record{ID: uuid.New().String(), Sample: sample}

	// Стратегия Load Shedding при переполнении
	select {
	case w.ch <- record:
	default:
		w.logger.Error("archive_buffer_overflow",
			zap.String("method", sample.Method),
			zap.String("endpoint", sample.Endpoint),
		)
	}
}

func (w *Writer) worker() {
	defer w.wg.Done()

	batch := make([]Record, 0, w.batchSize)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст на shutdown уже может быть закрыт
			if err := w.repo.WriteBatch(context.Background(), batch); err != nil {
				w.logger.Error("archive flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case record, ok := <-w.ch:
			if !ok {
				// Канал закрыт в Stop(): вычитали остатки, финальный сброс и выход
				flush()
				w.logger.Info("archive worker finished")
				return
			}
			batch = append(batch, record)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
