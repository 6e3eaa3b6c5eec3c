package archive

import (
	"github.com/xela07ax/pulsewatch-prototype/internal/domain"
)

// Record — одна строка архива: сэмпл запроса плюс идентификатор записи.
type Record struct {
	ID     string `json:"id"` // UUID строки архива
	Sample domain.RequestSample
}
