package booking

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"HouseBot/bot/chat"
	"HouseBot/bot/workflow"
	"HouseBot/bot/workflow/ui"
	"HouseBot/entity"
	service "HouseBot/internal/service/booking"
)

var dateRangePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) to (\d{4}-\d{2}-\d{2})$`)

func (w *Workflow) showCountries(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data, page int) error {
	countries, err := w.service.Countries(ctx)
	if err != nil {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepSelectCountry, data); err != nil {
		return err
	}
	back := backToken(workflow.StepSelectCountry, data)
	if len(countries) == 0 {
		return w.reply(m, ev, textNoCountries, navKeyboard(back))
	}

	totalPages := ui.CalculateTotalPages(len(countries), w.pageSize)
	page = ui.ClampPage(page, totalPages)
	items := make([]ui.SelectableItem, 0, w.pageSize)
	for _, c := range ui.GetPageSlice(countries, page, w.pageSize) {
		t, err := token(workflow.StepSelectCity, c.ID, 1)
		if err != nil {
			return err
		}
		items = append(items, ui.SelectableItem{Token: t, Text: c.Name})
	}
	kb, err := ui.PaginatedList(items, page, totalPages, func(p int) (string, error) {
		return token(workflow.StepSelectCountry, p)
	})
	if err != nil {
		return err
	}
	kb = append(kb, navKeyboard(back)...)
	return w.reply(m, ev, textSelectCountry, kb)
}

func (w *Workflow) showCities(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data, page int) error {
	if data.CountryID == nil {
		return missing(workflow.KeyCountryID)
	}
	back := backToken(workflow.StepSelectCity, data)
	country, err := w.service.Country(ctx, *data.CountryID)
	if errors.Is(err, service.ErrNotFound) {
		return w.fail(m, ev, errCountryNotFound, back)
	}
	if err != nil {
		return err
	}

	cities, err := w.service.Cities(ctx, &country.ID)
	if err != nil {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepSelectCity, data); err != nil {
		return err
	}
	if len(cities) == 0 {
		return w.reply(m, ev, fmt.Sprintf(textNoCities, html.EscapeString(country.Name)), navKeyboard(back))
	}

	totalPages := ui.CalculateTotalPages(len(cities), w.pageSize)
	page = ui.ClampPage(page, totalPages)
	items := make([]ui.SelectableItem, 0, w.pageSize)
	for _, c := range ui.GetPageSlice(cities, page, w.pageSize) {
		t, err := token(workflow.StepEnterDates, country.ID, c.ID)
		if err != nil {
			return err
		}
		items = append(items, ui.SelectableItem{Token: t, Text: c.Name})
	}
	kb, err := ui.PaginatedList(items, page, totalPages, func(p int) (string, error) {
		return token(workflow.StepSelectCity, country.ID, p)
	})
	if err != nil {
		return err
	}
	kb = append(kb, navKeyboard(back)...)
	return w.reply(m, ev, fmt.Sprintf("Choose a city in <b>%s</b>:", html.EscapeString(country.Name)), kb)
}

// selectedCity loads the city of the session and checks that it belongs to
// the selected country, when one is set.
func (w *Workflow) selectedCity(ctx context.Context, data workflow.Data) (*entity.City, error) {
	if data.CityID == nil {
		return nil, missing(workflow.KeyCityID)
	}
	city, err := w.service.City(ctx, *data.CityID)
	if err != nil {
		return nil, err
	}
	if data.CountryID != nil && city.CountryID != *data.CountryID {
		return nil, fmt.Errorf("%w: city %d is not in country %d", service.ErrNotFound, city.ID, *data.CountryID)
	}
	return city, nil
}

func (w *Workflow) showDatesPrompt(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	back := backToken(workflow.StepEnterDates, data)
	city, err := w.selectedCity(ctx, data)
	if errors.Is(err, service.ErrNotFound) {
		return w.fail(m, ev, errCityNotFound, back)
	}
	if err != nil {
		return err
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepEnterDates, data); err != nil {
		return err
	}
	return w.reply(m, ev, fmt.Sprintf(textEnterDates, html.EscapeString(city.Name)), navKeyboard(back))
}

// handleDates parses "YYYY-MM-DD to YYYY-MM-DD". Invalid input re-prompts
// and leaves the session untouched.
func (w *Workflow) handleDates(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	back := backToken(workflow.StepEnterDates, data)
	match := dateRangePattern.FindStringSubmatch(strings.TrimSpace(ev.Text))
	if match == nil {
		return m.SendText(ev.ChatID, errDateFormat, navKeyboard(back))
	}
	start, err := w.service.ParseDate(match[1])
	if err != nil {
		return m.SendText(ev.ChatID, errDateFormat, navKeyboard(back))
	}
	end, err := w.service.ParseDate(match[2])
	if err != nil {
		return m.SendText(ev.ChatID, errDateFormat, navKeyboard(back))
	}
	switch err = w.service.ValidateDates(start, end); {
	case errors.Is(err, service.ErrDateInPast):
		return m.SendText(ev.ChatID, errDatePast, navKeyboard(back))
	case errors.Is(err, service.ErrInvalidDates):
		return m.SendText(ev.ChatID, errDateOrder, navKeyboard(back))
	case err != nil:
		return err
	}

	data.StartDate = workflow.String(match[1])
	data.EndDate = workflow.String(match[2])
	return w.showHouses(ctx, m, ev, data)
}

// showHouses sends one card per available house followed by the code prompt.
func (w *Workflow) showHouses(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	back := backToken(workflow.StepSelectHouse, data)
	if data.StartDate == nil || data.EndDate == nil {
		return missing(workflow.KeyStartDate)
	}
	city, err := w.selectedCity(ctx, data)
	if errors.Is(err, service.ErrNotFound) {
		return w.fail(m, ev, errCityNotFound, back)
	}
	if err != nil {
		return err
	}
	start, err := w.service.ParseDate(*data.StartDate)
	if err != nil {
		return err
	}
	end, err := w.service.ParseDate(*data.EndDate)
	if err != nil {
		return err
	}
	switch err = w.service.ValidateDates(start, end); {
	case errors.Is(err, service.ErrDateInPast):
		return w.fail(m, ev, errDatePast, back)
	case errors.Is(err, service.ErrInvalidDates):
		return w.fail(m, ev, errDateOrder, back)
	case err != nil:
		return err
	}

	houses, err := w.service.AvailableHouses(ctx, city.ID, start, end)
	if err != nil {
		return err
	}
	if data.CountryID == nil {
		data.CountryID = workflow.Int64(city.CountryID)
		back = backToken(workflow.StepSelectHouse, data)
	}
	if err = w.sessions.Save(ctx, ev.ChatID, workflow.StepSelectHouse, data); err != nil {
		return err
	}

	cityName := html.EscapeString(city.Name)
	dates := formatRange(*data.StartDate, *data.EndDate)
	if len(houses) == 0 {
		return w.reply(m, ev, fmt.Sprintf(textNoHouses, cityName, dates), navKeyboard(back))
	}

	if err = w.reply(m, ev, fmt.Sprintf(textHousesHeader, cityName, dates), nil); err != nil {
		return err
	}
	nights := entity.Nights(start, end)
	for i := range houses {
		h := &houses[i]
		caption := houseCaption(h, nights, service.TotalPrice(h, start, end))
		if h.PhotoURL != "" {
			err = m.SendPhoto(ev.ChatID, h.PhotoURL, caption, nil)
		} else {
			err = m.SendText(ev.ChatID, caption, nil)
		}
		if err != nil {
			return err
		}
	}
	return m.SendText(ev.ChatID, textEnterHouseCode, navKeyboard(back))
}

// handleHouseCode accepts the code of a house of the selected city that is
// free for the selected dates.
func (w *Workflow) handleHouseCode(ctx context.Context, m chat.Messenger, ev chat.Event, data workflow.Data) error {
	back := backToken(workflow.StepSelectHouse, data)
	if data.CityID == nil {
		return missing(workflow.KeyCityID)
	}
	if data.StartDate == nil || data.EndDate == nil {
		return missing(workflow.KeyStartDate)
	}

	code := strings.TrimPrefix(strings.TrimSpace(ev.Text), "#")
	houseID, err := strconv.ParseInt(code, 10, 64)
	if err != nil || houseID <= 0 {
		return m.SendText(ev.ChatID, errHouseCode, navKeyboard(back))
	}

	house, err := w.service.HouseInCity(ctx, houseID, *data.CityID)
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrHouseNotInCity) {
		return m.SendText(ev.ChatID, fmt.Sprintf(errHouseNotInCity, houseID), navKeyboard(back))
	}
	if err != nil {
		return err
	}

	start, err := w.service.ParseDate(*data.StartDate)
	if err != nil {
		return err
	}
	end, err := w.service.ParseDate(*data.EndDate)
	if err != nil {
		return err
	}
	err = w.service.CheckAvailability(ctx, house, start, end, nil)
	if errors.Is(err, service.ErrHouseUnavailable) {
		return m.SendText(ev.ChatID, errHouseUnavailable, navKeyboard(back))
	}
	if err != nil {
		return err
	}

	data.HouseID = workflow.Int64(house.ID)
	return w.showPhonePrompt(ctx, m, ev, data)
}
