package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"HouseBot/bot/chat"
	"HouseBot/bot/workflow"
	"HouseBot/entity"
	service "HouseBot/internal/service/booking"
)

const noComment = "-"

func (w *Workflow) showPhonePrompt(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	back := backToken(workflow.StepEnterPhone, data)
	if data.HouseID == nil {
		return missing(workflow.KeyHouseID)
	}
	_, err := w.service.House(ctx, *data.HouseID)
	if errors.Is(err, service.ErrNotFound) {
		return w.fail(m, ev, errHouseNotFound, back)
	}
	if err != nil {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepEnterPhone, data); err != nil {
		return err
	}
	return w.reply(m, ev, textEnterPhone, navKeyboard(back))
}

func (w *Workflow) handlePhone(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	phone := chat.NormalizePhone(ev.Text)
	if !chat.IsValidPhone(phone) {
		return m.SendText(ev.ChatID, errPhone, navKeyboard(backToken(workflow.StepEnterPhone, data)))
	}
	data.PhoneNumber = workflow.String(phone)
	return w.showCommentPrompt(ctx, m, ev, data)
}

func (w *Workflow) showCommentPrompt(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	if err := w.sessions.Save(ctx, ev.ChatID, workflow.StepEnterComment, data); err != nil {
		return err
	}
	return w.reply(m, ev, textEnterComment, navKeyboard(backToken(workflow.StepEnterComment, data)))
}

// parseComment maps "-" to no comment.
func parseComment(text string) *string {
	text = strings.TrimSpace(text)
	if text == noComment || text == "" {
		return nil
	}
	return &text
}

func (w *Workflow) handleComment(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	data.Comment = parseComment(ev.Text)
	return w.showSummary(ctx, m, ev, data)
}

// draft is a new booking assembled from session data.
type draft struct {
	house *entity.House
	req   service.CreateRequest
	view  summaryView
}

// loadDraft re-reads the house and dates of the session. Domain failures
// come back as errors from the service package.
func (w *Workflow) loadDraft(ctx context.Context, ev chat.Event, data workflow.Data) (*draft, error) {
	if data.HouseID == nil || data.StartDate == nil || data.EndDate == nil || data.PhoneNumber == nil {
		return nil, errIncompleteDraft
	}
	house, err := w.service.House(ctx, *data.HouseID)
	if err != nil {
		return nil, err
	}
	start, err := w.service.ParseDate(*data.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := w.service.ParseDate(*data.EndDate)
	if err != nil {
		return nil, err
	}

	cityName := ""
	if city, err := w.service.City(ctx, house.CityID); err == nil {
		cityName = city.Name
	}

	return &draft{
		house: house,
		req: service.CreateRequest{
			HouseID:     house.ID,
			PhoneNumber: *data.PhoneNumber,
			Comment:     data.Comment,
			StartDate:   start,
			EndDate:     end,
			ChatID:      ev.ChatID,
			UserID:      ev.UserID,
			Username:    ev.Username,
		},
		view: summaryView{
			house:   house,
			city:    cityName,
			start:   *data.StartDate,
			end:     *data.EndDate,
			nights:  entity.Nights(start, end),
			total:   service.TotalPrice(house, start, end),
			phone:   *data.PhoneNumber,
			comment: data.Comment,
		},
	}, nil
}

var errIncompleteDraft = errors.New("incomplete booking draft")

// draftFailure turns a domain error into a one-line message.
func (w *Workflow) draftFailure(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data, err error) error {
	switch {
	case errors.Is(err, errIncompleteDraft), errors.Is(err, service.ErrValidation):
		return w.finish(ctx, m, ev, errIncomplete, nil)
	case errors.Is(err, service.ErrNotFound):
		return w.fail(m, ev, errHouseNotFound, stepToken(workflow.StepSelectHouse, data))
	case errors.Is(err, service.ErrHouseUnavailable):
		return w.fail(m, ev, errHouseUnavailable, stepToken(workflow.StepSelectHouse, data))
	case errors.Is(err, service.ErrDateInPast):
		return w.fail(m, ev, errDatePast, stepToken(workflow.StepEnterDates, data))
	case errors.Is(err, service.ErrInvalidDates):
		return w.fail(m, ev, errDateOrder, stepToken(workflow.StepEnterDates, data))
	default:
		return err
	}
}

func (w *Workflow) showSummary(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	d, err := w.loadDraft(ctx, ev, data)
	if err != nil {
		return w.draftFailure(ctx, m, ev, data, err)
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepBookingSummary, data); err != nil {
		return err
	}

	confirm, err := token(workflow.StepConfirmBooking)
	if err != nil {
		return err
	}
	kb := chat.Keyboard{}.
		Row(button(btnConfirm, confirm)).
		Row(button(btnBack, backToken(workflow.StepBookingSummary, data))).
		Row(button(btnMainMenu, menuToken()))
	return w.reply(m, ev, d.view.String(), kb)
}

// confirmBooking creates the booking. The service re-validates house,
// dates and availability since the session may be stale.
func (w *Workflow) confirmBooking(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	d, err := w.loadDraft(ctx, ev, data)
	if err != nil {
		return w.draftFailure(ctx, m, ev, data, err)
	}

	booking, err := w.service.CreateBooking(ctx, d.req)
	if err != nil {
		return w.draftFailure(ctx, m, ev, data, err)
	}

	view, err := token(workflow.StepBookingDetail, booking.ID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("✅ Booking #%d confirmed. Total: <b>%s</b>", booking.ID, formatPrice(booking.TotalPrice))
	return w.finish(ctx, m, ev, text, chat.Keyboard{}.Row(button(btnViewBooking, view)))
}
