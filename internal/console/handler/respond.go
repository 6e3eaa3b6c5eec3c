package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// respondJSON сериализует payload и пишет его с нужным статусом.
// Ошибка сериализации на этом этапе — это баг, логируем и отдаем 500.
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondError — единый формат ошибки для API консоли
func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}
