package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const traceIDKey ctxKey = "trace_id"

// TracingMiddleware инициализирует Trace-ID для каждого запроса
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Пытаемся достать ID из заголовка (если пришел от прокси)
		traceID := r.Header.Get("X-Trace-ID")

		// 2. Если его нет — генерируем новый
		if traceID == "" {
			traceID = uuid.New().String()
		}

		// 3. Кладем в контекст
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)

		// 4. Добавляем в ответ, чтобы клиент тоже знал ID своего запроса
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractTraceID помогает безопасно достать ID в любом месте кода
func extractTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return "00000000-0000-0000-0000-000000000000" // Fallback
}

// RequestRecorder принимает завершенные сэмплы (реализует monitor.Collector)
type RequestRecorder interface {
	RecordRequest(sample domain.RequestSample)
}

// RequestArchiver дополнительно уводит сэмпл в долговременный архив.
// Опционален: при выключенном архиве остается nil.
type RequestArchiver interface {
	Archive(sample domain.RequestSample)
}

// recordRequests замеряет каждый запрос и скармливает его движку телеметрии.
// Сэмпл снимается ПОСЛЕ ответа: статус и длительность уже известны.
func recordRequests(rec RequestRecorder, arch RequestArchiver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// Хендлер не писал заголовки — net/http отдаст 200
				status = http.StatusOK
			}

			sample := domain.RequestSample{
				Endpoint:     r.URL.Path,
				Method:       r.Method,
				StatusCode:   status,
				ResponseTime: time.Since(start).Seconds(),
				Timestamp:    time.Now().UTC(),
				UserAgent:    r.UserAgent(),
				IPAddress:    clientIP(r),
			}
			if status >= http.StatusBadRequest {
				sample.ErrorMessage = "HTTP Error"
			}

			rec.RecordRequest(sample)
			if arch != nil {
				arch.Archive(sample)
			}
		})
	}
}

// clientIP достает адрес клиента с учетом прокси перед сервисом
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// Берем первый адрес цепочки — исходный клиент
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// adminRateLimit защищает тяжелые административные операции (export, cleanup)
// от шквала вызовов. Один общий лимитер: операторов мало, бюджета хватает.
func adminRateLimit(limiter *rate.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Warn("admin rate limit exceeded",
					zap.String("path", r.URL.Path),
					zap.String("trace_id", extractTraceID(r.Context())),
				)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
