package bot

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"HouseBot/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

const maxMessageLength = 4096

// AdminAPI is the part of the Telegram API the reporter needs.
type AdminAPI interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
}

// TgBot delivers reports to the administrator chat.
type TgBot struct {
	log     *slog.Logger
	api     AdminAPI
	adminId int64
}

func NewTgBot(apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return newTgBot(api, adminId, log), nil
}

func newTgBot(api AdminAPI, adminId int64, log *slog.Logger) *TgBot {
	return &TgBot{
		log:     log.With(sl.Module("tgbot")),
		api:     api,
		adminId: adminId,
	}
}

// SendMessage sends msg to the admin chat as plain text.
func (t *TgBot) SendMessage(msg string) {
	if t.adminId == 0 || msg == "" {
		return
	}
	_, err := t.api.SendMessage(t.adminId, truncate(msg, maxMessageLength), &tgbotapi.SendMessageOpts{})
	if err != nil {
		t.log.With(
			slog.Int64("id", t.adminId),
		).Warn("sending admin report", sl.Err(err))
	}
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
