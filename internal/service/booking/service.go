package booking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"HouseBot/entity"
	"HouseBot/internal/lib/sl"
)

// Repository is the domain data store. Single-entity getters return
// nil, nil when nothing matches.
type Repository interface {
	ListCountries(ctx context.Context) ([]entity.Country, error)
	GetCountry(ctx context.Context, id int64) (*entity.Country, error)
	CreateCountry(ctx context.Context, country *entity.Country) error
	ListCities(ctx context.Context, countryID *int64) ([]entity.City, error)
	GetCity(ctx context.Context, id int64) (*entity.City, error)
	CreateCity(ctx context.Context, city *entity.City) error
	ListHouses(ctx context.Context, filter entity.HouseFilter) ([]entity.House, error)
	GetHouse(ctx context.Context, id int64) (*entity.House, error)
	CreateHouse(ctx context.Context, house *entity.House) error

	// WithHouseLock runs fn atomically with respect to other bookings of
	// the house; repository calls made with fn's context share its transaction.
	WithHouseLock(ctx context.Context, houseID int64, fn func(ctx context.Context) error) error

	CreateBooking(ctx context.Context, booking *entity.Booking) error
	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
	FindBookings(ctx context.Context, filter entity.BookingFilter) ([]entity.Booking, error)
	UpdateBooking(ctx context.Context, booking *entity.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
}

// CreateRequest carries every field of a booking.
type CreateRequest struct {
	HouseID     int64
	PhoneNumber string
	Comment     *string
	StartDate   time.Time
	EndDate     time.Time
	ChatID      int64
	UserID      int64
	Username    string
}

// Patch changes the set fields of a booking. ClearComment removes the comment.
type Patch struct {
	HouseID      *int64
	PhoneNumber  *string
	Comment      *string
	ClearComment bool
	StartDate    *time.Time
	EndDate      *time.Time
}

type Service struct {
	repository Repository
	location   *time.Location
	now        func() time.Time
	log        *slog.Logger
}

func NewService(repository Repository, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		repository: repository,
		location:   location,
		now:        time.Now,
		log:        logger.With(sl.Module("booking-service")),
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Location() *time.Location {
	return s.location
}

// Today is midnight of the current day in the service location.
func (s *Service) Today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

// ParseDate parses a YYYY-MM-DD date in the service location.
func (s *Service) ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(entity.DateLayout, strings.TrimSpace(value), s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrValidation, value)
	}
	return t, nil
}

// ValidateDates rejects a start before today or after the end.
func (s *Service) ValidateDates(start, end time.Time) error {
	if start.Before(s.Today()) {
		return ErrDateInPast
	}
	if start.After(end) {
		return ErrInvalidDates
	}
	return nil
}

// CheckAvailability confirms that house survives the store's availability
// filter for [start, end). excludeBookingID ignores one booking, so a booking
// does not conflict with itself on update.
func (s *Service) CheckAvailability(ctx context.Context, house *entity.House, start, end time.Time, excludeBookingID *int64) error {
	cityID := house.CityID
	available, err := s.repository.ListHouses(ctx, entity.HouseFilter{
		CityID:           &cityID,
		StartDate:        &start,
		EndDate:          &end,
		ExcludeBookingID: excludeBookingID,
	})
	if err != nil {
		return fmt.Errorf("list available houses: %w", err)
	}
	for _, h := range available {
		if h.ID == house.ID {
			return nil
		}
	}
	return ErrHouseUnavailable
}

// TotalPrice is nights times the nightly price. A same-day range costs nothing.
func TotalPrice(house *entity.House, start, end time.Time) float64 {
	nights := entity.Nights(start, end)
	if nights <= 0 {
		return 0
	}
	return math.Round(float64(nights)*house.Price*100) / 100
}

func (s *Service) Countries(ctx context.Context) ([]entity.Country, error) {
	return s.repository.ListCountries(ctx)
}

func (s *Service) Country(ctx context.Context, id int64) (*entity.Country, error) {
	country, err := s.repository.GetCountry(ctx, id)
	if err != nil {
		return nil, err
	}
	if country == nil {
		return nil, fmt.Errorf("%w: country %d", ErrNotFound, id)
	}
	return country, nil
}

func (s *Service) CreateCountry(ctx context.Context, country *entity.Country) error {
	if strings.TrimSpace(country.Name) == "" {
		return fmt.Errorf("%w: country name is required", ErrValidation)
	}
	return s.repository.CreateCountry(ctx, country)
}

func (s *Service) Cities(ctx context.Context, countryID *int64) ([]entity.City, error) {
	return s.repository.ListCities(ctx, countryID)
}

func (s *Service) City(ctx context.Context, id int64) (*entity.City, error) {
	city, err := s.repository.GetCity(ctx, id)
	if err != nil {
		return nil, err
	}
	if city == nil {
		return nil, fmt.Errorf("%w: city %d", ErrNotFound, id)
	}
	return city, nil
}

// CreateCity adds a city to an existing country.
func (s *Service) CreateCity(ctx context.Context, city *entity.City) error {
	if strings.TrimSpace(city.Name) == "" {
		return fmt.Errorf("%w: city name is required", ErrValidation)
	}
	if _, err := s.Country(ctx, city.CountryID); err != nil {
		return err
	}
	return s.repository.CreateCity(ctx, city)
}

func (s *Service) Houses(ctx context.Context, filter entity.HouseFilter) ([]entity.House, error) {
	return s.repository.ListHouses(ctx, filter)
}

// AvailableHouses lists the houses of a city free for [start, end).
func (s *Service) AvailableHouses(ctx context.Context, cityID int64, start, end time.Time) ([]entity.House, error) {
	return s.repository.ListHouses(ctx, entity.HouseFilter{
		CityID:    &cityID,
		StartDate: &start,
		EndDate:   &end,
	})
}

func (s *Service) House(ctx context.Context, id int64) (*entity.House, error) {
	house, err := s.repository.GetHouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if house == nil {
		return nil, fmt.Errorf("%w: house %d", ErrNotFound, id)
	}
	return house, nil
}

// CreateHouse adds a house to an existing city.
func (s *Service) CreateHouse(ctx context.Context, house *entity.House) error {
	if strings.TrimSpace(house.Name) == "" {
		return fmt.Errorf("%w: house name is required", ErrValidation)
	}
	if house.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if _, err := s.City(ctx, house.CityID); err != nil {
		return err
	}
	return s.repository.CreateHouse(ctx, house)
}

// HouseInCity returns the house when it exists and belongs to cityID.
func (s *Service) HouseInCity(ctx context.Context, houseID, cityID int64) (*entity.House, error) {
	house, err := s.House(ctx, houseID)
	if err != nil {
		return nil, err
	}
	if house.CityID != cityID {
		return nil, ErrHouseNotInCity
	}
	return house, nil
}

func (s *Service) Booking(ctx context.Context, id int64) (*entity.Booking, error) {
	booking, err := s.repository.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", ErrNotFound, id)
	}
	return booking, nil
}

// ChatBooking returns a booking only to the chat that made it.
func (s *Service) ChatBooking(ctx context.Context, chatID, id int64) (*entity.Booking, error) {
	booking, err := s.Booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.ChatID != chatID {
		return nil, ErrNotOwner
	}
	return booking, nil
}

func (s *Service) FindBookings(ctx context.Context, filter entity.BookingFilter) ([]entity.Booking, error) {
	return s.repository.FindBookings(ctx, filter)
}

// ChatBookings lists the bookings of a chat; actualOnly drops stays that ended before today.
func (s *Service) ChatBookings(ctx context.Context, chatID int64, actualOnly bool) ([]entity.Booking, error) {
	filter := entity.BookingFilter{ChatID: &chatID}
	if actualOnly {
		today := s.Today()
		filter.EndsAfter = &today
	}
	return s.repository.FindBookings(ctx, filter)
}

// CreateBooking re-validates the house, the dates and availability before persisting.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (*entity.Booking, error) {
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	house, err := s.House(ctx, req.HouseID)
	if err != nil {
		return nil, err
	}
	if err = s.ValidateDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	now := s.now()
	booking := &entity.Booking{
		HouseID:     house.ID,
		PhoneNumber: req.PhoneNumber,
		Comment:     req.Comment,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalPrice:  TotalPrice(house, req.StartDate, req.EndDate),
		ChatID:      req.ChatID,
		UserID:      req.UserID,
		Username:    req.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repository.WithHouseLock(ctx, house.ID, func(ctx context.Context) error {
		if err := s.CheckAvailability(ctx, house, req.StartDate, req.EndDate, nil); err != nil {
			return err
		}
		if err := s.repository.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.With(
		slog.Int64("booking_id", booking.ID),
		slog.Int64("house_id", booking.HouseID),
		slog.Int64("chat_id", booking.ChatID),
	).Info("booking created")
	return booking, nil
}

// UpdateBooking applies a partial change. A new house or new dates are
// validated and checked for availability, ignoring the booking itself.
func (s *Service) UpdateBooking(ctx context.Context, id int64, patch Patch) (*entity.Booking, error) {
	booking, err := s.Booking(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PhoneNumber != nil {
		if strings.TrimSpace(*patch.PhoneNumber) == "" {
			return nil, fmt.Errorf("%w: phone number is required", ErrValidation)
		}
		booking.PhoneNumber = *patch.PhoneNumber
	}
	if patch.ClearComment {
		booking.Comment = nil
	} else if patch.Comment != nil {
		comment := *patch.Comment
		booking.Comment = &comment
	}

	relocate := false
	if patch.HouseID != nil && *patch.HouseID != booking.HouseID {
		booking.HouseID = *patch.HouseID
		relocate = true
	}
	if patch.StartDate != nil && !patch.StartDate.Equal(booking.StartDate) {
		booking.StartDate = *patch.StartDate
		relocate = true
	}
	if patch.EndDate != nil && !patch.EndDate.Equal(booking.EndDate) {
		booking.EndDate = *patch.EndDate
		relocate = true
	}
	if relocate {
		return s.place(ctx, booking)
	}
	return s.save(ctx, booking)
}

// ReplaceBooking overwrites every field of a booking.
func (s *Service) ReplaceBooking(ctx context.Context, id int64, req CreateRequest) (*entity.Booking, error) {
	booking, err := s.Booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrValidation)
	}

	booking.HouseID = req.HouseID
	booking.PhoneNumber = req.PhoneNumber
	booking.Comment = req.Comment
	booking.StartDate = req.StartDate
	booking.EndDate = req.EndDate
	booking.ChatID = req.ChatID
	booking.UserID = req.UserID
	booking.Username = req.Username

	return s.place(ctx, booking)
}

// place validates the house and dates of booking, then checks availability,
// recomputes the price and saves under the house lock.
func (s *Service) place(ctx context.Context, booking *entity.Booking) (*entity.Booking, error) {
	house, err := s.House(ctx, booking.HouseID)
	if err != nil {
		return nil, err
	}
	if err = s.ValidateDates(booking.StartDate, booking.EndDate); err != nil {
		return nil, err
	}
	self := booking.ID
	err = s.repository.WithHouseLock(ctx, house.ID, func(ctx context.Context) error {
		if err := s.CheckAvailability(ctx, house, booking.StartDate, booking.EndDate, &self); err != nil {
			return err
		}
		booking.TotalPrice = TotalPrice(house, booking.StartDate, booking.EndDate)
		_, err := s.save(ctx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Service) save(ctx context.Context, booking *entity.Booking) (*entity.Booking, error) {
	booking.UpdatedAt = s.now()
	if err := s.repository.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	s.log.With(slog.Int64("booking_id", booking.ID)).Debug("booking updated")
	return booking, nil
}

// DeleteBooking removes a booking. The house needs no bookkeeping; its
// availability is derived from the remaining bookings.
func (s *Service) DeleteBooking(ctx context.Context, id int64) error {
	if _, err := s.Booking(ctx, id); err != nil {
		return err
	}
	if err := s.repository.DeleteBooking(ctx, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	s.log.With(slog.Int64("booking_id", id)).Info("booking deleted")
	return nil
}
