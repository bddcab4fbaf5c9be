package repository

import (
	"time"

	"HouseBot/entity"
)

type countryModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;size:128;not null"`
}

func (countryModel) TableName() string { return "countries" }

type cityModel struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	CountryID int64  `gorm:"column:country_id;not null;index"`
	Name      string `gorm:"column:name;size:128;not null"`
}

func (cityModel) TableName() string { return "cities" }

type houseModel struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	CityID      int64   `gorm:"column:city_id;not null;index"`
	Name        string  `gorm:"column:name;size:255;not null"`
	Description string  `gorm:"column:description"`
	PhotoURL    string  `gorm:"column:photo_url"`
	Bedrooms    int     `gorm:"column:bedrooms"`
	Price       float64 `gorm:"column:price;not null"`
}

func (houseModel) TableName() string { return "houses" }

// Dates are kept as YYYY-MM-DD text so range predicates compare the same
// way on postgres and sqlite.
type bookingModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	HouseID     int64     `gorm:"column:house_id;not null;index"`
	PhoneNumber string    `gorm:"column:phone_number;size:32;not null"`
	Comment     *string   `gorm:"column:comment"`
	StartDate   string    `gorm:"column:start_date;size:10;not null;index"`
	EndDate     string    `gorm:"column:end_date;size:10;not null;index"`
	TotalPrice  float64   `gorm:"column:total_price"`
	ChatID      int64     `gorm:"column:chat_id;index"`
	UserID      int64     `gorm:"column:user_id"`
	Username    string    `gorm:"column:username;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainCountry(m countryModel) entity.Country {
	return entity.Country{ID: m.ID, Name: m.Name}
}

func toCountryModel(c *entity.Country) countryModel {
	return countryModel{ID: c.ID, Name: c.Name}
}

func toDomainCity(m cityModel) entity.City {
	return entity.City{ID: m.ID, CountryID: m.CountryID, Name: m.Name}
}

func toCityModel(c *entity.City) cityModel {
	return cityModel{ID: c.ID, CountryID: c.CountryID, Name: c.Name}
}

func toDomainHouse(m houseModel) entity.House {
	return entity.House{
		ID:          m.ID,
		CityID:      m.CityID,
		Name:        m.Name,
		Description: m.Description,
		PhotoURL:    m.PhotoURL,
		Bedrooms:    m.Bedrooms,
		Price:       m.Price,
	}
}

func toHouseModel(h *entity.House) houseModel {
	return houseModel{
		ID:          h.ID,
		CityID:      h.CityID,
		Name:        h.Name,
		Description: h.Description,
		PhotoURL:    h.PhotoURL,
		Bedrooms:    h.Bedrooms,
		Price:       h.Price,
	}
}

func formatDate(t time.Time) string {
	return t.Format(entity.DateLayout)
}

func (s *Store) parseDate(v string) time.Time {
	t, err := time.ParseInLocation(entity.DateLayout, v, s.location)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Store) toDomainBooking(m bookingModel) entity.Booking {
	return entity.Booking{
		ID:          m.ID,
		HouseID:     m.HouseID,
		PhoneNumber: m.PhoneNumber,
		Comment:     m.Comment,
		StartDate:   s.parseDate(m.StartDate),
		EndDate:     s.parseDate(m.EndDate),
		TotalPrice:  m.TotalPrice,
		ChatID:      m.ChatID,
		UserID:      m.UserID,
		Username:    m.Username,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toBookingModel(b *entity.Booking) bookingModel {
	return bookingModel{
		ID:          b.ID,
		HouseID:     b.HouseID,
		PhoneNumber: b.PhoneNumber,
		Comment:     b.Comment,
		StartDate:   formatDate(b.StartDate),
		EndDate:     formatDate(b.EndDate),
		TotalPrice:  b.TotalPrice,
		ChatID:      b.ChatID,
		UserID:      b.UserID,
		Username:    b.Username,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
