package handlers

import (
	"errors"
	"net/http"

	"ultimateTodo/internal/auth"
	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
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
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "VALIDATION_ERROR":
		return http.StatusBadRequest
	case "RESERVED":
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// handleAuthError отдаёт код ошибки и сообщение для пользователя
// из таксономии auth
func handleAuthError(w http.ResponseWriter, err error) bool {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		statusCode := mapAuthErrorToHTTP(authErr.Code)

		logger.Warn("HTTP: Ошибка аутентификации",
			zap.String("error_code", authErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", authErr.Code),
			toPayload("message", auth.UserMessage(authErr)),
		)
		return true
	}
	return false
}

func mapAuthErrorToHTTP(code string) int {
	switch code {
	case auth.CodeUserNotFound:
		return http.StatusNotFound
	case auth.CodeWrongPassword, auth.CodeInvalidCredential, auth.CodeUserDisabled:
		return http.StatusUnauthorized
	case auth.CodeEmailInUse:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
