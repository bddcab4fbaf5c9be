package repository

import (
	"context"
	"errors"
	"fmt"

	"HouseBot/entity"

	"gorm.io/gorm"
)

func findError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("sql find error: %w", err)
}

func (s *Store) ListCountries(ctx context.Context) ([]entity.Country, error) {
	var rows []countryModel
	if err := s.conn(ctx).Order("name, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	out := make([]entity.Country, len(rows))
	for i, m := range rows {
		out[i] = toDomainCountry(m)
	}
	return out, nil
}

func (s *Store) GetCountry(ctx context.Context, id int64) (*entity.Country, error) {
	var m countryModel
	if err := s.conn(ctx).First(&m, id).Error; err != nil {
		return nil, findError(err)
	}
	c := toDomainCountry(m)
	return &c, nil
}

func (s *Store) CreateCountry(ctx context.Context, country *entity.Country) error {
	m := toCountryModel(country)
	if err := s.conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create country: %w", err)
	}
	country.ID = m.ID
	return nil
}

func (s *Store) ListCities(ctx context.Context, countryID *int64) ([]entity.City, error) {
	q := s.conn(ctx).Order("name, id")
	if countryID != nil {
		q = q.Where("country_id = ?", *countryID)
	}
	var rows []cityModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	out := make([]entity.City, len(rows))
	for i, m := range rows {
		out[i] = toDomainCity(m)
	}
	return out, nil
}

func (s *Store) GetCity(ctx context.Context, id int64) (*entity.City, error) {
	var m cityModel
	if err := s.conn(ctx).First(&m, id).Error; err != nil {
		return nil, findError(err)
	}
	c := toDomainCity(m)
	return &c, nil
}

func (s *Store) CreateCity(ctx context.Context, city *entity.City) error {
	m := toCityModel(city)
	if err := s.conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create city: %w", err)
	}
	city.ID = m.ID
	return nil
}

// ListHouses applies the filter. With a date range only houses without a
// booking overlapping [start, end) are returned.
func (s *Store) ListHouses(ctx context.Context, filter entity.HouseFilter) ([]entity.House, error) {
	q := s.conn(ctx).Model(&houseModel{}).Order("houses.id")
	if filter.CityID != nil {
		q = q.Where("houses.city_id = ?", *filter.CityID)
	}
	if filter.HasRange() {
		conflicts := s.db.Model(&bookingModel{}).
			Select("1").
			Where("bookings.house_id = houses.id").
			Where("bookings.start_date < ? AND bookings.end_date > ?", formatDate(*filter.EndDate), formatDate(*filter.StartDate))
		if filter.ExcludeBookingID != nil {
			conflicts = conflicts.Where("bookings.id <> ?", *filter.ExcludeBookingID)
		}
		q = q.Where("NOT EXISTS (?)", conflicts)
	}

	var rows []houseModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list houses: %w", err)
	}
	out := make([]entity.House, len(rows))
	for i, m := range rows {
		out[i] = toDomainHouse(m)
	}
	return out, nil
}

func (s *Store) GetHouse(ctx context.Context, id int64) (*entity.House, error) {
	var m houseModel
	if err := s.conn(ctx).First(&m, id).Error; err != nil {
		return nil, findError(err)
	}
	h := toDomainHouse(m)
	return &h, nil
}

func (s *Store) CreateHouse(ctx context.Context, house *entity.House) error {
	m := toHouseModel(house)
	if err := s.conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create house: %w", err)
	}
	house.ID = m.ID
	return nil
}

func (s *Store) CreateBooking(ctx context.Context, booking *entity.Booking) error {
	m := toBookingModel(booking)
	if err := s.conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	*booking = s.toDomainBooking(m)
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	var m bookingModel
	if err := s.conn(ctx).First(&m, id).Error; err != nil {
		return nil, findError(err)
	}
	b := s.toDomainBooking(m)
	return &b, nil
}

func (s *Store) FindBookings(ctx context.Context, filter entity.BookingFilter) ([]entity.Booking, error) {
	q := s.conn(ctx).Order("start_date, id")
	if filter.HouseID != nil {
		q = q.Where("house_id = ?", *filter.HouseID)
	}
	if filter.ChatID != nil {
		q = q.Where("chat_id = ?", *filter.ChatID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.EndsAfter != nil {
		q = q.Where("end_date >= ?", formatDate(*filter.EndsAfter))
	}

	var rows []bookingModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	out := make([]entity.Booking, len(rows))
	for i, m := range rows {
		out[i] = s.toDomainBooking(m)
	}
	return out, nil
}

func (s *Store) UpdateBooking(ctx context.Context, booking *entity.Booking) error {
	m := toBookingModel(booking)
	tx := s.conn(ctx).Save(&m)
	if tx.Error != nil {
		return fmt.Errorf("update booking: %w", tx.Error)
	}
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.conn(ctx).Delete(&bookingModel{}, id).Error; err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}
