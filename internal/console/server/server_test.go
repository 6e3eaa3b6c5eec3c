package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Паника хендлера обязана дойти до телеметрии как обычный 500: Recoverer
// стоит внутри записывающей обертки, а не снаружи.
func TestPipelineRecordsPanickingRequest(t *testing.T) {
	rec := &stubRecorder{}

	r := chi.NewRouter()
	r.Use(pipeline(rec, nil)...)
	r.Get("/boom", func(w http.ResponseWriter, req *http.Request) {
		panic("handler blew up")
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.Code)
	}

	sample := rec.last(t)
	if sample.StatusCode != http.StatusInternalServerError {
		t.Fatalf("sample StatusCode = %d, want 500", sample.StatusCode)
	}
	if sample.Endpoint != "/boom" {
		t.Fatalf("sample Endpoint = %q, want /boom", sample.Endpoint)
	}
	if sample.ErrorMessage != "HTTP Error" {
		t.Fatalf("sample ErrorMessage = %q, want %q", sample.ErrorMessage, "HTTP Error")
	}
}

// Обычный запрос проходит всю цепочку и тоже записывается.
func TestPipelineRecordsNormalRequest(t *testing.T) {
	rec := &stubRecorder{}

	r := chi.NewRouter()
	r.Use(pipeline(rec, nil)...)
	r.Get("/ok", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if got := rec.last(t); got.StatusCode != http.StatusOK || got.ErrorMessage != "" {
		t.Fatalf("sample = %+v", got)
	}
}
