package entity

import "time"

const DateLayout = "2006-01-02"

type Booking struct {
	ID          int64     `json:"id"`
	HouseID     int64     `json:"house_id"`
	PhoneNumber string    `json:"phone_number"`
	Comment     *string   `json:"comment"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalPrice  float64   `json:"total_price"`
	ChatID      int64     `json:"chat_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Nights is the whole-day span between start and end date.
func Nights(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

func (b *Booking) Nights() int {
	return Nights(b.StartDate, b.EndDate)
}

// Overlaps reports whether the half-open ranges [StartDate, EndDate) and [start, end) intersect.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}

// IsActual reports whether the stay has not finished before the given day.
func (b *Booking) IsActual(today time.Time) bool {
	return !b.EndDate.Before(today)
}

type BookingFilter struct {
	HouseID   *int64
	ChatID    *int64
	UserID    *int64
	EndsAfter *time.Time
}
