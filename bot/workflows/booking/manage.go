package booking

import (
	"context"
	"fmt"

	"HouseBot/bot/chat"
	"HouseBot/bot/workflow"
	"HouseBot/bot/workflow/ui"
	"HouseBot/entity"
	service "HouseBot/internal/service/booking"
)

func actualOnly(data workflow.Data) bool {
	return data.IsActual == nil || *data.IsActual
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (w *Workflow) showBookings(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data, page int) error {
	actual := actualOnly(data)
	data.IsActual = workflow.Bool(actual)

	bookings, err := w.service.ChatBookings(ctx, ev.ChatID, actual)
	if err != nil {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepManageBookings, data); err != nil {
		return err
	}

	toggleText := btnShowAll
	if !actual {
		toggleText = btnShowActual
	}
	toggle, err := token(workflow.StepManageBookings, boolValue(!actual), 1)
	if err != nil {
		return err
	}
	nav := chat.Keyboard{}.
		Row(button(toggleText, toggle)).
		Row(button(btnMainMenu, menuToken()))

	if len(bookings) == 0 {
		text := textNoBookings
		if actual {
			text = textNoActual
		}
		return w.reply(m, ev, text, nav)
	}

	totalPages := ui.CalculateTotalPages(len(bookings), w.pageSize)
	page = ui.ClampPage(page, totalPages)
	items := make([]ui.SelectableItem, 0, w.pageSize)
	for _, b := range ui.GetPageSlice(bookings, page, w.pageSize) {
		t, err := token(workflow.StepBookingDetail, b.ID)
		if err != nil {
			return err
		}
		items = append(items, ui.SelectableItem{Token: t, Text: bookingLabel(b)})
	}
	kb, err := ui.PaginatedList(items, page, totalPages, func(p int) (string, error) {
		return token(workflow.StepManageBookings, boolValue(actual), p)
	})
	if err != nil {
		return err
	}

	header := textBookingsHeader
	if !actual {
		header = textAllHeader
	}
	return w.reply(m, ev, header, append(kb, nav...))
}

// ownBooking loads the booking of the session when it belongs to the chat.
// ok is false when the user was already told it cannot be found.
func (w *Workflow) ownBooking(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) (*entity.Booking, bool, error) {
	if data.BookingID == nil {
		return nil, false, missing(workflow.KeyBookingID)
	}
	booking, err := w.service.ChatBooking(ctx, ev.ChatID, *data.BookingID)
	if isNotFound(err) {
		return nil, false, w.fail(m, ev, errBookingNotFound, stepToken(workflow.StepManageBookings, data))
	}
	if err != nil {
		return nil, false, err
	}
	return booking, true, nil
}

func (w *Workflow) showBookingDetail(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	booking, ok, err := w.ownBooking(ctx, m, ev, data)
	if !ok {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepBookingDetail, data); err != nil {
		return err
	}
	return w.renderBookingDetail(ctx, m, ev, data, booking)
}

func (w *Workflow) renderBookingDetail(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data, booking *entity.Booking) error {
	house, err := w.service.House(ctx, booking.HouseID)
	if err != nil && !isNotFound(err) {
		return err
	}

	editPhone, err := token(workflow.StepEditPhone, booking.ID)
	if err != nil {
		return err
	}
	editComment, err := token(workflow.StepEditComment, booking.ID)
	if err != nil {
		return err
	}
	remove, err := token(workflow.StepDeleteBooking, booking.ID)
	if err != nil {
		return err
	}

	kb := chat.Keyboard{}.
		Row(button(btnEditPhone, editPhone), button(btnEditComment, editComment)).
		Row(button(btnDelete, remove)).
		Row(button(btnBack, backToken(workflow.StepBookingDetail, data))).
		Row(button(btnMainMenu, menuToken()))
	return w.reply(m, ev, bookingDetail(booking, house), kb)
}

func (w *Workflow) showEditPhone(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	booking, ok, err := w.ownBooking(ctx, m, ev, data)
	if !ok {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepEditPhone, data); err != nil {
		return err
	}
	return w.reply(m, ev, fmt.Sprintf(textEnterNewPhone, booking.ID), navKeyboard(backToken(workflow.StepEditPhone, data)))
}

// handleEditPhone writes the phone straight to the booking and shows it again.
func (w *Workflow) handleEditPhone(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	phone := chat.NormalizePhone(ev.Text)
	if !chat.IsValidPhone(phone) {
		return m.SendText(ev.ChatID, errPhone, navKeyboard(backToken(workflow.StepEditPhone, data)))
	}
	return w.applyEdit(ctx, m, ev, data, service.Patch{PhoneNumber: &phone})
}

func (w *Workflow) showEditComment(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	booking, ok, err := w.ownBooking(ctx, m, ev, data)
	if !ok {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepEditComment, data); err != nil {
		return err
	}
	return w.reply(m, ev, fmt.Sprintf(textEnterNewComm, booking.ID), navKeyboard(backToken(workflow.StepEditComment, data)))
}

func (w *Workflow) handleEditComment(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	comment := parseComment(ev.Text)
	return w.applyEdit(ctx, m, ev, data, service.Patch{Comment: comment, ClearComment: comment == nil})
}

func (w *Workflow) applyEdit(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data, patch service.Patch) error {
	if _, ok, err := w.ownBooking(ctx, m, ev, data); !ok {
		return err
	}
	booking, err := w.service.UpdateBooking(ctx, *data.BookingID, patch)
	if isNotFound(err) {
		return w.fail(m, ev, errBookingNotFound, stepToken(workflow.StepManageBookings, data))
	}
	if err != nil {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepBookingDetail, data); err != nil {
		return err
	}
	return w.renderBookingDetail(ctx, m, ev, data, booking)
}

func (w *Workflow) showDeleteConfirm(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	booking, ok, err := w.ownBooking(ctx, m, ev, data)
	if !ok {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepDeleteBooking, data); err != nil {
		return err
	}
	confirm, err := token(workflow.StepBookingDeleted, booking.ID)
	if err != nil {
		return err
	}
	kb := ui.ConfirmCancelKeyboard(btnDeleteConfirm, confirm, btnDeleteCancel, backToken(workflow.StepDeleteBooking, data))
	return w.reply(m, ev, fmt.Sprintf(textDeleteConfirm, booking.ID), kb)
}

func (w *Workflow) deleteBooking(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	booking, ok, err := w.ownBooking(ctx, m, ev, data)
	if !ok {
		return err
	}
	err = w.service.DeleteBooking(ctx, booking.ID)
	if isNotFound(err) {
		return w.fail(m, ev, errBookingNotFound, stepToken(workflow.StepManageBookings, data))
	}
	if err != nil {
		return err
	}
	return w.finish(ctx, m, ev, fmt.Sprintf("🗑 Booking #%d deleted.", booking.ID), nil)
}
