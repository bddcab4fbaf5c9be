package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// Step names one point of the booking conversation. The value is what gets
// persisted in the session record.
type Step string

const (
	StepMainMenu       Step = "main_menu"
	StepSelectCountry  Step = "select_country"
	StepSelectCity     Step = "select_city"
	StepEnterDates     Step = "enter_dates"
	StepSelectHouse    Step = "select_house"
	StepEnterPhone     Step = "enter_phone"
	StepEnterComment   Step = "enter_comment"
	StepBookingSummary Step = "booking_summary"
	StepConfirmBooking Step = "confirm_booking"
	StepManageBookings Step = "manage_bookings"
	StepBookingDetail  Step = "booking_detail"
	StepEditPhone      Step = "edit_phone"
	StepEditComment    Step = "edit_comment"
	StepDeleteBooking  Step = "delete_booking"
	StepBookingDeleted Step = "booking_deleted"
)

// Parameter keys shared by tokens and session data.
const (
	KeyCountryID   = "country_id"
	KeyCityID      = "city_id"
	KeyStartDate   = "start_date"
	KeyEndDate     = "end_date"
	KeyHouseID     = "house_id"
	KeyPhoneNumber = "phone_number"
	KeyComment     = "comment"
	KeyBookingID   = "booking_id"
	KeyIsActual    = "is_actual"
	KeyPage        = "page"
)

type stepDef struct {
	prev   Step
	next   Step
	format string
	keys   []string
	layout []segment
	prefix string
}

// declaration order; also the tie-break order of token resolution
var stepOrder = []Step{
	StepMainMenu,
	StepSelectCountry,
	StepSelectCity,
	StepEnterDates,
	StepSelectHouse,
	StepEnterPhone,
	StepEnterComment,
	StepBookingSummary,
	StepConfirmBooking,
	StepManageBookings,
	StepBookingDetail,
	StepEditPhone,
	StepEditComment,
	StepDeleteBooking,
	StepBookingDeleted,
}

var steps = map[Step]*stepDef{
	StepMainMenu:       {format: "menu"},
	StepSelectCountry:  {prev: StepMainMenu, next: StepSelectCity, format: "countries_%d", keys: []string{KeyPage}},
	StepSelectCity:     {prev: StepSelectCountry, next: StepEnterDates, format: "cities_%d_%d", keys: []string{KeyCountryID, KeyPage}},
	StepEnterDates:     {prev: StepSelectCity, next: StepSelectHouse, format: "dates_%d_%d", keys: []string{KeyCountryID, KeyCityID}},
	StepSelectHouse:    {prev: StepEnterDates, next: StepEnterPhone, format: "houses_%d_%s_%s", keys: []string{KeyCityID, KeyStartDate, KeyEndDate}},
	StepEnterPhone:     {prev: StepSelectHouse, next: StepEnterComment, format: "phone_%d", keys: []string{KeyHouseID}},
	StepEnterComment:   {prev: StepEnterPhone, next: StepBookingSummary, format: "comment"},
	StepBookingSummary: {prev: StepEnterComment, next: StepConfirmBooking, format: "summary"},
	StepConfirmBooking: {prev: StepBookingSummary, next: StepBookingDetail, format: "confirm"},
	StepManageBookings: {prev: StepMainMenu, next: StepBookingDetail, format: "bookings_%d_%d", keys: []string{KeyIsActual, KeyPage}},
	StepBookingDetail:  {prev: StepManageBookings, format: "booking_%d", keys: []string{KeyBookingID}},
	StepEditPhone:      {prev: StepBookingDetail, next: StepBookingDetail, format: "editphone_%d", keys: []string{KeyBookingID}},
	StepEditComment:    {prev: StepBookingDetail, next: StepBookingDetail, format: "editcomment_%d", keys: []string{KeyBookingID}},
	StepDeleteBooking:  {prev: StepBookingDetail, next: StepBookingDeleted, format: "delete_%d", keys: []string{KeyBookingID}},
	StepBookingDeleted: {prev: StepDeleteBooking, next: StepMainMenu, format: "deleted_%d", keys: []string{KeyBookingID}},
}

// resolution order: longest bare prefix first, declaration order on ties
var resolveOrder []Step

func init() {
	for _, s := range stepOrder {
		def := steps[s]
		layout, err := compileFormat(def.format)
		if err != nil {
			panic(fmt.Sprintf("step %s: %v", s, err))
		}
		if verbs := countVerbs(layout); verbs != len(def.keys) {
			panic(fmt.Sprintf("step %s: format has %d verbs for %d keys", s, verbs, len(def.keys)))
		}
		def.layout = layout
		def.prefix = def.format
		if i := strings.IndexByte(def.format, '%'); i >= 0 {
			def.prefix = def.format[:i]
		}
	}
	resolveOrder = make([]Step, len(stepOrder))
	copy(resolveOrder, stepOrder)
	sort.SliceStable(resolveOrder, func(i, j int) bool {
		return len(steps[resolveOrder[i]].prefix) > len(steps[resolveOrder[j]].prefix)
	})
}

// Steps returns every known step in declaration order.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

func (s Step) Valid() bool {
	_, ok := steps[s]
	return ok
}

func (s Step) String() string {
	return string(s)
}

func mustDef(s Step) *stepDef {
	def, ok := steps[s]
	if !ok {
		panic(fmt.Sprintf("%v: %q", ErrUnknownStep, string(s)))
	}
	return def
}

// Prev returns the step a "back" button leads to. It panics on an unknown step.
func Prev(s Step) (Step, bool) {
	def := mustDef(s)
	return def.prev, def.prev != ""
}

// Next returns the step that follows s. It panics on an unknown step.
func Next(s Step) (Step, bool) {
	def := mustDef(s)
	return def.next, def.next != ""
}

// Format returns the token format of s.
func Format(s Step) string {
	return mustDef(s).format
}

// Keys returns the ordered parameter keys of the token of s.
func Keys(s Step) []string {
	keys := mustDef(s).keys
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Prefix is the literal part of the token format before the first verb.
func Prefix(s Step) string {
	return mustDef(s).prefix
}
