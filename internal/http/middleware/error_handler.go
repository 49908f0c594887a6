package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/elitemarket/auction-backend/internal/logger"
	"github.com/elitemarket/auction-backend/internal/pkg/apperror"
	"github.com/elitemarket/auction-backend/internal/repository/common"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		statusCode, message := mapError(err.Err)
		c.JSON(statusCode, gin.H{"error": message})
	}
}

// mapError определяет статус код и сообщение по типу ошибки.
func mapError(err error) (int, string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, appErr.Message
	}

	switch {
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusNotFound, "пользователь не найден"
	case errors.Is(err, common.ErrProfileNotFound):
		return http.StatusNotFound, "профиль не найден"
	case errors.Is(err, common.ErrAuctionNotFound):
		return http.StatusNotFound, "аукцион не найден"
	case errors.Is(err, common.ErrBidNotFound):
		return http.StatusNotFound, "ставка не найдена"
	case errors.Is(err, common.ErrReviewNotFound):
		return http.StatusNotFound, "отзыв не найден"
	case errors.Is(err, common.ErrNotificationNotFound):
		return http.StatusNotFound, "уведомление не найдено"
	case errors.Is(err, common.ErrSessionNotFound):
		return http.StatusUnauthorized, "сессия не найдена или истекла"
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusConflict, "email уже зарегистрирован"
	case errors.Is(err, common.ErrReviewExists):
		return http.StatusConflict, "отзыв для этого аукциона уже оставлен"
	case errors.Is(err, common.ErrAuctionNotActive):
		return http.StatusConflict, "аукцион уже закрыт"
	}

	if msg := err.Error(); msg != "" && !containsInternalKeywords(msg) {
		return http.StatusBadRequest, msg
	}

	return http.StatusInternalServerError, "внутренняя ошибка сервера"
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
		"repository:",
	}

	for _, keyword := range keywords {
		if strings.Contains(strings.ToLower(s), keyword) {
			return true
		}
	}
	return false
}
