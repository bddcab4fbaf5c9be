package booking

import (
	"fmt"
	"html"
	"strings"

	"HouseBot/bot/chat"
	"HouseBot/bot/workflow"
	"HouseBot/bot/workflow/ui"
	"HouseBot/entity"
)

// Button texts
const (
	btnNewBooking    = "🏠 New booking"
	btnMyBookings    = "📋 My bookings"
	btnBack          = "◀️ Back"
	btnMainMenu      = "🏁 Main menu"
	btnConfirm       = "✅ Confirm"
	btnEditPhone     = "📞 Change phone"
	btnEditComment   = "💬 Change comment"
	btnDelete        = "🗑 Delete"
	btnDeleteConfirm = "Yes, delete"
	btnDeleteCancel  = "No, keep it"
	btnShowAll       = "Show all"
	btnShowActual    = "Show actual only"
	btnViewBooking   = "View booking"
)

// Messages
const (
	textWelcome        = "Welcome! Book a vacation house or manage your bookings."
	textMainMenu       = "Main menu. What would you like to do?"
	textUnknownCommand = "Unknown command."
	textSelectCountry  = "Choose a country:"
	textNoCountries    = "There are no countries to choose from yet."
	textNoCities       = "There are no cities in %s yet."
	textEnterDates     = "Send the dates of your stay in <b>%s</b> as <code>YYYY-MM-DD to YYYY-MM-DD</code>, for example <code>2025-06-15 to 2025-06-20</code>."
	textNoHouses       = "No houses are available in %s for %s."
	textHousesHeader   = "Available houses in %s for %s:"
	textEnterHouseCode = "Send the code of the house you like."
	textEnterPhone     = "Send a contact phone number."
	textEnterComment   = "Send a comment for the host, or <code>-</code> for none."
	textEnterNewPhone  = "Send the new phone number for booking #%d."
	textEnterNewComm   = "Send the new comment for booking #%d, or <code>-</code> to remove it."
	textDeleteConfirm  = "Delete booking #%d?"
	textNoBookings     = "You have no bookings."
	textNoActual       = "You have no upcoming bookings."
	textBookingsHeader = "Your bookings:"
	textAllHeader      = "All your bookings:"

	errDateFormat       = "Please send dates as <code>YYYY-MM-DD to YYYY-MM-DD</code>, for example <code>2025-06-15 to 2025-06-20</code>."
	errDatePast         = "The start date cannot be in the past."
	errDateOrder        = "The start date must not be after the end date."
	errHouseCode        = "Please send the numeric code of a house from the list."
	errHouseNotInCity   = "There is no house with code %d in this city."
	errHouseUnavailable = "This house is already booked for these dates. Please choose another one."
	errPhone            = "Please send a valid phone number: 7 to 14 digits, optionally starting with +."
	errCountryNotFound  = "This country is no longer available."
	errCityNotFound     = "This city is no longer available."
	errHouseNotFound    = "This house is no longer available."
	errBookingNotFound  = "Booking not found."
	errIncomplete       = "Your booking details are incomplete, please start again."
)

func button(text, token string) chat.InlineButton {
	return ui.Button(text, token)
}

func mainMenuKeyboard() chat.Keyboard {
	newBooking, _ := token(workflow.StepSelectCountry, 1)
	myBookings, _ := token(workflow.StepManageBookings, 1, 1)
	return ui.MenuKeyboard([][]ui.SelectableItem{
		{{Text: btnNewBooking, Token: newBooking}},
		{{Text: btnMyBookings, Token: myBookings}},
	})
}

func navKeyboard(back string) chat.Keyboard {
	kb := chat.Keyboard{}
	if back != "" && back != menuToken() {
		kb = kb.Row(button(btnBack, back))
	}
	return kb.Row(button(btnMainMenu, menuToken()))
}

func formatRange(start, end string) string {
	return fmt.Sprintf("%s – %s", start, end)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatComment(c *string) string {
	if c == nil || *c == "" {
		return "-"
	}
	return html.EscapeString(*c)
}

func houseCaption(h *entity.House, nights int, total float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>#%d %s</b>\n", h.ID, html.EscapeString(h.Name))
	if h.Description != "" {
		sb.WriteString(html.EscapeString(h.Description))
		sb.WriteString("\n")
	}
	if h.Bedrooms > 0 {
		fmt.Fprintf(&sb, "Bedrooms: %d\n", h.Bedrooms)
	}
	fmt.Fprintf(&sb, "Price per night: %s\n", formatPrice(h.Price))
	fmt.Fprintf(&sb, "Total for %d nights: %s", nights, formatPrice(total))
	return sb.String()
}

type summaryView struct {
	house   *entity.House
	city    string
	start   string
	end     string
	nights  int
	total   float64
	phone   string
	comment *string
}

func (v summaryView) String() string {
	var sb strings.Builder
	sb.WriteString("<b>Booking summary</b>\n")
	fmt.Fprintf(&sb, "House: #%d %s\n", v.house.ID, html.EscapeString(v.house.Name))
	if v.city != "" {
		fmt.Fprintf(&sb, "City: %s\n", html.EscapeString(v.city))
	}
	fmt.Fprintf(&sb, "Dates: %s\n", formatRange(v.start, v.end))
	fmt.Fprintf(&sb, "Nights: %d\n", v.nights)
	fmt.Fprintf(&sb, "Price per night: %s\n", formatPrice(v.house.Price))
	fmt.Fprintf(&sb, "Total: <b>%s</b>\n", formatPrice(v.total))
	fmt.Fprintf(&sb, "Phone: %s\n", html.EscapeString(v.phone))
	fmt.Fprintf(&sb, "Comment: %s", formatComment(v.comment))
	return sb.String()
}

func bookingDetail(b *entity.Booking, house *entity.House) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Booking #%d</b>\n", b.ID)
	if house != nil {
		fmt.Fprintf(&sb, "House: #%d %s\n", house.ID, html.EscapeString(house.Name))
	} else {
		fmt.Fprintf(&sb, "House: #%d\n", b.HouseID)
	}
	fmt.Fprintf(&sb, "Dates: %s\n", formatRange(b.StartDate.Format(entity.DateLayout), b.EndDate.Format(entity.DateLayout)))
	fmt.Fprintf(&sb, "Nights: %d\n", b.Nights())
	fmt.Fprintf(&sb, "Total: <b>%s</b>\n", formatPrice(b.TotalPrice))
	fmt.Fprintf(&sb, "Phone: %s\n", html.EscapeString(b.PhoneNumber))
	fmt.Fprintf(&sb, "Comment: %s", formatComment(b.Comment))
	return sb.String()
}

func bookingLabel(b entity.Booking) string {
	return fmt.Sprintf("#%d · %s", b.ID, formatRange(b.StartDate.Format(entity.DateLayout), b.EndDate.Format(entity.DateLayout)))
}
