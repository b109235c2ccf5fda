package handlers

import (
	"errors"
	"net/http"

	"taskBoard/internal/logger"
	"taskBoard/internal/middleware"
	"taskBoard/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}
	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// handleServiceError отвечает на ошибку сервиса: бизнес-ошибки по коду, прочие - 500
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeAccessDenied:
		return http.StatusForbidden
	case service.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case service.CodeDuplicateGrant, service.CodeInvalidTransition, service.CodeAlreadyArchived,
		service.CodeUsernameTaken, service.CodeUserOwnsBoards:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
