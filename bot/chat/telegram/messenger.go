package telegram

import (
	"errors"
	"strings"

	"HouseBot/bot/chat"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

const parseMode = "HTML"

// TelegramAPI defines the Telegram bot methods needed by the messenger.
// *gotgbot.Bot satisfies it; tests pass a fake.
type TelegramAPI interface {
	SendMessage(chatId int64, text string, opts *tgbotapi.SendMessageOpts) (*tgbotapi.Message, error)
	EditMessageText(text string, opts *tgbotapi.EditMessageTextOpts) (*tgbotapi.Message, bool, error)
	SendPhoto(chatId int64, photo tgbotapi.InputFileOrString, opts *tgbotapi.SendPhotoOpts) (*tgbotapi.Message, error)
	AnswerCallbackQuery(callbackQueryId string, opts *tgbotapi.AnswerCallbackQueryOpts) (bool, error)
}

// Messenger implements chat.Messenger for Telegram using inline keyboards.
type Messenger struct {
	api TelegramAPI
}

// NewMessenger creates a new Telegram Messenger.
func NewMessenger(api TelegramAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) SendText(chatID int64, text string, keyboard chat.Keyboard) error {
	opts := &tgbotapi.SendMessageOpts{ParseMode: parseMode}
	if len(keyboard) > 0 {
		opts.ReplyMarkup = inlineMarkup(keyboard)
	}
	_, err := m.api.SendMessage(chatID, text, opts)
	return err
}

func (m *Messenger) EditText(chatID, messageID int64, text string, keyboard chat.Keyboard) error {
	_, _, err := m.api.EditMessageText(text, &tgbotapi.EditMessageTextOpts{
		ChatId:      chatID,
		MessageId:   messageID,
		ParseMode:   parseMode,
		ReplyMarkup: inlineMarkup(keyboard),
	})
	if isNotModified(err) {
		return nil
	}
	return err
}

// isNotModified matches Telegram's rejection of an edit that leaves text and
// keyboard unchanged, e.g. on a repeated tap of the same button.
func isNotModified(err error) bool {
	var tgErr *tgbotapi.TelegramError
	return errors.As(err, &tgErr) && strings.Contains(tgErr.Description, "message is not modified")
}

func (m *Messenger) SendPhoto(chatID int64, photoURL, caption string, keyboard chat.Keyboard) error {
	opts := &tgbotapi.SendPhotoOpts{
		Caption:   caption,
		ParseMode: parseMode,
	}
	if len(keyboard) > 0 {
		opts.ReplyMarkup = inlineMarkup(keyboard)
	}
	_, err := m.api.SendPhoto(chatID, tgbotapi.InputFileByURL(photoURL), opts)
	return err
}

func (m *Messenger) AnswerCallback(callbackID, text string) error {
	var opts *tgbotapi.AnswerCallbackQueryOpts
	if text != "" {
		opts = &tgbotapi.AnswerCallbackQueryOpts{Text: text}
	}
	_, err := m.api.AnswerCallbackQuery(callbackID, opts)
	return err
}

func inlineMarkup(keyboard chat.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, len(keyboard))
	for i, row := range keyboard {
		rows[i] = make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			rows[i][j] = tgbotapi.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Data,
			}
		}
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
