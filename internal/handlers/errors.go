package handlers

import (
	"errors"
	"listKeeper/internal/logger"
	"listKeeper/internal/middleware"
	"listKeeper/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// handleServiceError отвечает клиенту по ошибке сервиса: бизнес-ошибки
// со своим кодом, всё остальное как 500
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("operation", operation),
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode),
			zap.String("request_id", middleware.GetRequestID(r.Context())))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(r.Context())))
	responseWithError(w, http.StatusInternalServerError, err.Error())
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeKindMismatch:
		return http.StatusConflict
	case service.CodeInvalidReorder:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
