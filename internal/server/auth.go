package server

import (
	"crypto/subtle"
	"net/http"

	tgmodels "github.com/go-telegram/bot/models"
)

// SecretTokenHeader - заголовок с секретом, заданным при setWebhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// webhookAuthMiddleware проверяет секретный токен Telegram webhook
func (s *Server) webhookAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.verifySecretToken(r) {
			s.securityLogger.LogFailedAuth(r, "invalid_secret_token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// verifySecretToken сравнивает токен за постоянное время.
// Если секрет не задан, проверка отключена.
func (s *Server) verifySecretToken(r *http.Request) bool {
	expected := s.config.Telegram.SecretToken
	if expected == "" {
		return true
	}

	provided := r.Header.Get(SecretTokenHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// validateUpdate проверяет базовую валидность update и возвращает причину отказа
func validateUpdate(update *tgmodels.Update) string {
	if update.ID <= 0 {
		return "missing update_id"
	}

	if update.Message == nil && update.CallbackQuery == nil {
		return "unsupported update type"
	}

	if update.Message != nil && update.Message.From != nil && update.Message.From.IsBot {
		return "message from bot"
	}

	if update.CallbackQuery != nil && update.CallbackQuery.From.IsBot {
		return "callback from bot"
	}

	return ""
}
