package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"HouseBot/bot/chat"
	"HouseBot/bot/workflow"
	"HouseBot/bot/workflow/ui"
	"HouseBot/entity"
	"HouseBot/internal/lib/sl"
	service "HouseBot/internal/service/booking"
)

// Service is the booking domain logic used by the conversation.
type Service interface {
	Location() *time.Location
	ParseDate(value string) (time.Time, error)
	ValidateDates(start, end time.Time) error
	CheckAvailability(ctx context.Context, house *entity.House, start, end time.Time, excludeBookingID *int64) error

	Countries(ctx context.Context) ([]entity.Country, error)
	Country(ctx context.Context, id int64) (*entity.Country, error)
	Cities(ctx context.Context, countryID *int64) ([]entity.City, error)
	City(ctx context.Context, id int64) (*entity.City, error)
	AvailableHouses(ctx context.Context, cityID int64, start, end time.Time) ([]entity.House, error)
	House(ctx context.Context, id int64) (*entity.House, error)
	HouseInCity(ctx context.Context, houseID, cityID int64) (*entity.House, error)

	CreateBooking(ctx context.Context, req service.CreateRequest) (*entity.Booking, error)
	ChatBooking(ctx context.Context, chatID, id int64) (*entity.Booking, error)
	ChatBookings(ctx context.Context, chatID int64, actualOnly bool) ([]entity.Booking, error)
	UpdateBooking(ctx context.Context, id int64, patch service.Patch) (*entity.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
}

// Workflow is the booking conversation: new bookings and management of
// existing ones. It implements workflow.Workflow.
type Workflow struct {
	service  Service
	sessions workflow.SessionStorage
	pageSize int
	log      *slog.Logger
}

func NewWorkflow(svc Service, sessions workflow.SessionStorage, pageSize int, log *slog.Logger) *Workflow {
	if pageSize <= 0 {
		pageSize = ui.DefaultItemsPerPage
	}
	return &Workflow{
		service:  svc,
		sessions: sessions,
		pageSize: pageSize,
		log:      log.With(sl.Module("booking-workflow")),
	}
}

// Start deletes any conversation in progress and opens a fresh session at the main menu.
func (w *Workflow) Start(ctx context.Context, m chat.Messenger, ev chat.Event) error {
	if err := w.sessions.Delete(ctx, ev.ChatID); err != nil {
		return err
	}
	if err := w.sessions.Save(ctx, ev.ChatID, workflow.StepMainMenu, workflow.Data{}); err != nil {
		return err
	}
	return m.SendText(ev.ChatID, textWelcome, mainMenuKeyboard())
}

// Unknown tells the user the input was not understood and shows the main menu.
func (w *Workflow) Unknown(_ context.Context, m chat.Messenger, ev chat.Event) error {
	if err := m.SendText(ev.ChatID, textUnknownCommand, nil); err != nil {
		return err
	}
	return m.SendText(ev.ChatID, textMainMenu, mainMenuKeyboard())
}

// HandleText dispatches free text on the current step of the session.
func (w *Workflow) HandleText(ctx context.Context, m chat.Messenger, ev chat.Event, sess *workflow.Session) error {
	switch sess.Step {
	case workflow.StepEnterDates:
		return w.handleDates(ctx, m, ev, sess.Data)
	case workflow.StepSelectHouse:
		return w.handleHouseCode(ctx, m, ev, sess.Data)
	case workflow.StepEnterPhone:
		return w.handlePhone(ctx, m, ev, sess.Data)
	case workflow.StepEnterComment:
		return w.handleComment(ctx, m, ev, sess.Data)
	case workflow.StepEditPhone:
		return w.handleEditPhone(ctx, m, ev, sess.Data)
	case workflow.StepEditComment:
		return w.handleEditComment(ctx, m, ev, sess.Data)
	default:
		return w.Unknown(ctx, m, ev)
	}
}

// HandleCallback renders the step a button points to.
func (w *Workflow) HandleCallback(ctx context.Context, m chat.Messenger, ev chat.Event, step workflow.Step, params map[string]string, sess *workflow.Session) error {
	fresh, err := workflow.DataFromParams(params)
	if err != nil {
		return err
	}
	var data workflow.Data
	if sess != nil {
		data = sess.Data
	}
	data = data.Merge(fresh)
	page := pageParam(params)

	switch step {
	case workflow.StepMainMenu:
		return w.showMainMenu(ctx, m, ev)
	case workflow.StepSelectCountry:
		return w.showCountries(ctx, m, ev, data, page)
	case workflow.StepSelectCity:
		return w.showCities(ctx, m, ev, data, page)
	case workflow.StepEnterDates:
		return w.showDatesPrompt(ctx, m, ev, data)
	case workflow.StepSelectHouse:
		return w.showHouses(ctx, m, ev, data)
	case workflow.StepEnterPhone:
		return w.showPhonePrompt(ctx, m, ev, data)
	case workflow.StepEnterComment:
		return w.showCommentPrompt(ctx, m, ev, data)
	case workflow.StepBookingSummary:
		return w.showSummary(ctx, m, ev, data)
	case workflow.StepConfirmBooking:
		return w.confirmBooking(ctx, m, ev, data)
	case workflow.StepManageBookings:
		return w.showBookings(ctx, m, ev, data, page)
	case workflow.StepBookingDetail:
		return w.showBookingDetail(ctx, m, ev, data)
	case workflow.StepEditPhone:
		return w.showEditPhone(ctx, m, ev, data)
	case workflow.StepEditComment:
		return w.showEditComment(ctx, m, ev, data)
	case workflow.StepDeleteBooking:
		return w.showDeleteConfirm(ctx, m, ev, data)
	case workflow.StepBookingDeleted:
		return w.deleteBooking(ctx, m, ev, data)
	default:
		return fmt.Errorf("%w: %q", workflow.ErrUnknownStep, step.String())
	}
}

// showMainMenu ends the conversation and shows the root menu.
func (w *Workflow) showMainMenu(ctx context.Context, m chat.Messenger, ev chat.Event) error {
	if err := w.sessions.Delete(ctx, ev.ChatID); err != nil {
		return err
	}
	return w.reply(m, ev, textMainMenu, mainMenuKeyboard())
}

// finish deletes the session, reports the result and shows the main menu
// in a new message.
func (w *Workflow) finish(ctx context.Context, m chat.Messenger, ev chat.Event, text string, kb chat.Keyboard) error {
	if err := w.sessions.Delete(ctx, ev.ChatID); err != nil {
		return err
	}
	if err := w.reply(m, ev, text, kb); err != nil {
		return err
	}
	return m.SendText(ev.ChatID, textMainMenu, mainMenuKeyboard())
}

// reply edits the message that carried the pressed button, or sends a new one.
func (w *Workflow) reply(m chat.Messenger, ev chat.Event, text string, kb chat.Keyboard) error {
	if ev.Kind == chat.EventCallback && ev.MessageID != 0 {
		return m.EditText(ev.ChatID, ev.MessageID, text, kb)
	}
	return m.SendText(ev.ChatID, text, kb)
}

// fail reports a domain conflict in one line and offers a way back.
func (w *Workflow) fail(m chat.Messenger, ev chat.Event, text, backToken string) error {
	return w.reply(m, ev, text, navKeyboard(backToken))
}

// backToken rebuilds the token of the step before step from accumulated data.
func backToken(step workflow.Step, data workflow.Data) string {
	prev, ok := workflow.Prev(step)
	if !ok {
		return menuToken()
	}
	return stepToken(prev, data)
}

// stepToken builds the token of step from session data. List pages default
// to the first one and the bookings filter to actual bookings.
func stepToken(step workflow.Step, data workflow.Data) string {
	params := data.Params()
	if _, ok := params[workflow.KeyPage]; !ok {
		params[workflow.KeyPage] = "1"
	}
	if _, ok := params[workflow.KeyIsActual]; !ok {
		params[workflow.KeyIsActual] = "1"
	}
	token, err := workflow.BuildToken(step, params)
	if err != nil {
		return menuToken()
	}
	return token
}

func menuToken() string {
	return workflow.Format(workflow.StepMainMenu)
}

func token(step workflow.Step, values ...any) (string, error) {
	return workflow.BuildToken(step, nil, values...)
}

func pageParam(params map[string]string) int {
	page, err := strconv.Atoi(params[workflow.KeyPage])
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func missing(key string) error {
	return fmt.Errorf("%w: session has no %s", workflow.ErrMissingParameter, key)
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrNotOwner)
}
