package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/pulsewatch-prototype/internal/archive"
)

type ArchiveRepo struct {
	db *sql.DB
}

func NewArchiveRepo(connString string) *ArchiveRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// В main мы проверим соединение через Ping
		log.Fatal(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &ArchiveRepo{db: db}
}

func (r *ArchiveRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WriteBatch пакетно вставляет строки архива. Кратковременные сбои БД
// (рестарт, обрыв соединения) гасятся ретраями с экспоненциальным бэкоффом —
// воркер архива не должен терять пачку из-за секундного моргания.
func (r *ArchiveRepo) WriteBatch(ctx context.Context, records []archive.Record) error {
	if len(records) == 0 {
		return nil
	}

	// Количество колонок в таблице request_archive
	numFields := 10
	placeholderStr := ""
	vals := make([]interface{}, 0, len(records)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, rec := range records {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		s := rec.Sample
		vals = append(vals,
			rec.ID, s.Method, s.Endpoint, s.StatusCode, s.ResponseTime,
			s.UserAgent, s.IPAddress, s.FileSize, s.ErrorMessage, s.Timestamp,
		)
	}

	// Убираем лишнюю запятую в конце
	query := fmt.Sprintf(
		"INSERT INTO request_archive (id, method, endpoint, status_code, response_time, user_agent, ip_address, file_size, error_message, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	rt := retry.New(
		retry.Context(ctx),
		retry.Attempts(3),
	)
	return rt.Do(func() error {
		_, err := r.db.ExecContext(ctx, query, vals...)
		return err
	})
}
