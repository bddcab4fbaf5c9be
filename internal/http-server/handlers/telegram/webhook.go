package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"HouseBot/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/go-chi/chi/v5/middleware"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler consumes one Telegram update. It reports its own failures.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

// Webhook accepts Telegram deliveries. Every authenticated delivery is
// answered 204, whatever happened while handling it, so Telegram never
// retries an update.
func Webhook(log *slog.Logger, handler UpdateHandler, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.telegram")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if secret != "" {
			got := r.Header.Get(secretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warn("webhook secret mismatch")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn("failed to decode update", sl.Err(err))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		logger.Debug("update received", slog.Int64("update_id", update.UpdateId))
		if handler != nil {
			// a dropped delivery connection must not abort session writes midway
			handler.HandleUpdate(context.WithoutCancel(r.Context()), &update)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
