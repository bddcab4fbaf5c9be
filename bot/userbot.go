package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"HouseBot/bot/chat"
	"HouseBot/bot/chat/telegram"
	"HouseBot/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/google/uuid"
)

// Engine processes normalized chat events.
type Engine interface {
	Handle(ctx context.Context, m chat.Messenger, ev chat.Event) error
	Unknown(ctx context.Context, m chat.Messenger, ev chat.Event) error
}

// UserBot is the Telegram bot for guests. Every update is handled in
// isolation: failures are logged with an incident id, mirrored to the admin
// chat by the logger, and answered with a generic reply.
type UserBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	messenger   chat.Messenger
	engine      Engine
	locks       *chatLocks
}

// NewUserBot creates a new user bot instance.
func NewUserBot(botName, apiKey string, log *slog.Logger) (*UserBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}

	bot := &UserBot{
		log:         log.With(sl.Module("userbot")),
		api:         api,
		botUsername: botName,
		messenger:   telegram.NewMessenger(api),
		locks:       newChatLocks(),
	}
	return bot, nil
}

// SetEngine sets the workflow engine for the bot.
func (b *UserBot) SetEngine(engine Engine) {
	b.engine = engine
}

// SetWebhook registers url with Telegram; secret is echoed back in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (b *UserBot) SetWebhook(url, secret string) error {
	_, err := b.api.SetWebhook(url, &tgbotapi.SetWebhookOpts{
		SecretToken:    secret,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	b.log.Info("webhook registered", slog.String("url", url))
	return nil
}

// Start begins polling for updates and handling them. It blocks.
func (b *UserBot) Start() error {
	if _, err := b.api.DeleteWebhook(nil); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			b.log.Error("dispatcher error", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.All, b.onUpdate))
	dispatcher.AddHandler(handlers.NewMessage(message.Text, b.onUpdate))

	err := updater.StartPolling(b.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	b.log.Info("user bot started", slog.String("username", b.botUsername))

	// Idle, to keep updates coming in
	updater.Idle()

	return nil
}

func (b *UserBot) onUpdate(_ *tgbotapi.Bot, ctx *ext.Context) error {
	b.HandleUpdate(context.Background(), ctx.Update)
	return nil
}

// HandleUpdate processes one Telegram update. It never fails: errors and
// panics are reported and the user gets a generic reply.
func (b *UserBot) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}
	if b.engine == nil {
		b.log.Warn("workflow engine not initialized")
		return
	}

	unlock := b.locks.lock(ev.ChatID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			b.fail(ctx, ev, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := b.engine.Handle(ctx, b.messenger, ev); err != nil {
		b.fail(ctx, ev, err)
	}
}

func (b *UserBot) fail(ctx context.Context, ev chat.Event, err error) {
	payload := ev.Text
	if ev.Kind == chat.EventCallback {
		payload = ev.Data
	}
	b.log.With(
		slog.String("incident", uuid.NewString()),
		slog.Int64("chat_id", ev.ChatID),
		slog.Int64("user_id", ev.UserID),
		slog.String("username", ev.Username),
		slog.Time("timestamp", ev.Time),
		slog.String("event", ev.Kind.String()),
		slog.String("payload", payload),
	).Error("update handling failed", sl.Err(err))

	if err := b.engine.Unknown(ctx, b.messenger, ev); err != nil {
		b.log.With(
			slog.Int64("chat_id", ev.ChatID),
		).Warn("sending fallback reply", sl.Err(err))
	}
}

// EventFromUpdate normalizes a text message or a callback query. Other
// updates are ignored.
func EventFromUpdate(update *tgbotapi.Update) (chat.Event, bool) {
	if update == nil {
		return chat.Event{}, false
	}

	if cq := update.CallbackQuery; cq != nil {
		ev := chat.Event{
			Kind:       chat.EventCallback,
			ChatID:     cq.From.Id,
			UserID:     cq.From.Id,
			Username:   cq.From.Username,
			Time:       time.Now(),
			CallbackID: cq.Id,
			Data:       cq.Data,
		}
		if cq.Message != nil {
			ev.ChatID = cq.Message.GetChat().Id
			ev.MessageID = cq.Message.GetMessageId()
		}
		return ev, true
	}

	if msg := update.Message; msg != nil && msg.Text != "" {
		ev := chat.Event{
			Kind:   chat.EventText,
			ChatID: msg.Chat.Id,
			Time:   time.Unix(msg.Date, 0),
			Text:   msg.Text,
		}
		if msg.From != nil {
			ev.UserID = msg.From.Id
			ev.Username = msg.From.Username
		}
		return ev, true
	}

	return chat.Event{}, false
}

// chatLocks serializes updates of one chat; different chats run in parallel.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*chatLock)}
}

func (c *chatLocks) lock(chatID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
		c.mu.Unlock()
	}
}
