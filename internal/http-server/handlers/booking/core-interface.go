package booking

import (
	"context"
	"time"

	"HouseBot/entity"
	service "HouseBot/internal/service/booking"
)

type Core interface {
	Booking(ctx context.Context, id int64) (*entity.Booking, error)
	FindBookings(ctx context.Context, filter entity.BookingFilter) ([]entity.Booking, error)
	CreateBooking(ctx context.Context, req service.CreateRequest) (*entity.Booking, error)
	UpdateBooking(ctx context.Context, id int64, patch service.Patch) (*entity.Booking, error)
	ReplaceBooking(ctx context.Context, id int64, req service.CreateRequest) (*entity.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	ParseDate(value string) (time.Time, error)
}
