package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"HouseBot/bot/chat"
	"HouseBot/internal/lib/sl"
)

const startCommand = "start"

// Workflow renders and advances the steps of one conversation.
type Workflow interface {
	// Start resets the chat to the main menu.
	Start(ctx context.Context, m chat.Messenger, ev chat.Event) error

	// Unknown answers input that cannot be routed and shows the main menu.
	Unknown(ctx context.Context, m chat.Messenger, ev chat.Event) error

	// HandleText processes free text for the current step of sess.
	HandleText(ctx context.Context, m chat.Messenger, ev chat.Event, sess *Session) error

	// HandleCallback enters step with the parameters decoded from the
	// pressed button. sess is nil when the chat has no session.
	HandleCallback(ctx context.Context, m chat.Messenger, ev chat.Event, step Step, params map[string]string, sess *Session) error
}

// Engine routes inbound events to a workflow.
type Engine struct {
	workflow Workflow
	storage  SessionStorage
	log      *slog.Logger
}

// NewEngine creates a new workflow engine.
func NewEngine(w Workflow, storage SessionStorage, log *slog.Logger) *Engine {
	return &Engine{
		workflow: w,
		storage:  storage,
		log:      log.With(sl.Module("workflow")),
	}
}

// Handle processes one event. Callback events are always acknowledged,
// whatever the outcome.
func (e *Engine) Handle(ctx context.Context, m chat.Messenger, ev chat.Event) error {
	switch ev.Kind {
	case chat.EventText:
		return e.handleText(ctx, m, ev)
	case chat.EventCallback:
		return e.handleCallback(ctx, m, ev)
	default:
		return fmt.Errorf("unsupported event kind %s", ev.Kind)
	}
}

func (e *Engine) handleText(ctx context.Context, m chat.Messenger, ev chat.Event) error {
	if ev.IsCommand(startCommand) {
		e.log.Debug("start command", slog.Int64("chat_id", ev.ChatID))
		return e.workflow.Start(ctx, m, ev)
	}

	sess, err := e.storage.Get(ctx, ev.ChatID)
	if err != nil {
		return err
	}
	if sess == nil {
		e.log.Debug("text without session", slog.Int64("chat_id", ev.ChatID))
		return e.workflow.Unknown(ctx, m, ev)
	}

	e.log.Debug("text message",
		slog.Int64("chat_id", ev.ChatID),
		slog.String("step", sess.Step.String()),
	)
	return e.workflow.HandleText(ctx, m, ev, sess)
}

func (e *Engine) handleCallback(ctx context.Context, m chat.Messenger, ev chat.Event) (err error) {
	defer func() {
		if answerErr := m.AnswerCallback(ev.CallbackID, ""); answerErr != nil {
			err = errors.Join(err, fmt.Errorf("answer callback: %w", answerErr))
		}
	}()

	step, params, err := Resolve(ev.Data)
	if err != nil {
		return err
	}

	sess, err := e.storage.Get(ctx, ev.ChatID)
	if err != nil {
		return err
	}

	e.log.Debug("callback",
		slog.Int64("chat_id", ev.ChatID),
		slog.String("token", ev.Data),
		slog.String("step", step.String()),
	)
	return e.workflow.HandleCallback(ctx, m, ev, step, params, sess)
}

// Unknown gives the generic reply for input that failed or could not be routed.
func (e *Engine) Unknown(ctx context.Context, m chat.Messenger, ev chat.Event) error {
	return e.workflow.Unknown(ctx, m, ev)
}
