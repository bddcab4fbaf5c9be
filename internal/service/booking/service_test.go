package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"HouseBot/entity"
	repository "HouseBot/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *Service
	city   entity.City
	house  entity.House
	second entity.House
}

func newFixture(t *testing.T) fixture {
	return newWrappedFixture(t, nil)
}

// newWrappedFixture lets wrap decorate the store the service talks to.
func newWrappedFixture(t *testing.T, wrap func(Repository) Repository) fixture {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Connect("file::memory:", log)
	require.NoError(t, err)
	store := repository.NewStore(db, time.UTC, log)
	require.NoError(t, store.Migrate())

	var repo Repository = store
	if wrap != nil {
		repo = wrap(store)
	}
	svc := NewService(repo, time.UTC, log)
	svc.SetClock(func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) })

	f := fixture{svc: svc}
	country := entity.Country{Name: "Ukraine"}
	require.NoError(t, svc.CreateCountry(ctx, &country))
	f.city = entity.City{CountryID: country.ID, Name: "Yaremche"}
	require.NoError(t, svc.CreateCity(ctx, &f.city))
	f.house = entity.House{CityID: f.city.ID, Name: "Pine", Price: 1000}
	require.NoError(t, svc.CreateHouse(ctx, &f.house))
	f.second = entity.House{CityID: f.city.ID, Name: "Birch", Price: 750.5}
	require.NoError(t, svc.CreateHouse(ctx, &f.second))
	return f
}

func (f fixture) date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := f.svc.ParseDate(s)
	require.NoError(t, err)
	return d
}

func (f fixture) request(t *testing.T, house entity.House, start, end string) CreateRequest {
	return CreateRequest{
		HouseID:     house.ID,
		PhoneNumber: "+380501112233",
		StartDate:   f.date(t, start),
		EndDate:     f.date(t, end),
		ChatID:      42,
		UserID:      42,
		Username:    "guest",
	}
}

func TestValidateDates(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.ValidateDates(f.date(t, "2024-12-31"), f.date(t, "2025-01-03")), ErrDateInPast)
	assert.ErrorIs(t, f.svc.ValidateDates(f.date(t, "2025-01-05"), f.date(t, "2025-01-03")), ErrInvalidDates)
	assert.NoError(t, f.svc.ValidateDates(f.date(t, "2025-01-01"), f.date(t, "2025-01-01")))
	assert.NoError(t, f.svc.ValidateDates(f.date(t, "2025-01-02"), f.date(t, "2025-01-05")))
}

func TestParseDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ParseDate("01/02/2025")
	assert.ErrorIs(t, err, ErrValidation)

	d, err := f.svc.ParseDate(" 2025-01-02 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), d)
}

func TestTotalPrice(t *testing.T) {
	house := &entity.House{Price: 1000}
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 5000.0, TotalPrice(house, start, start.AddDate(0, 0, 5)))
	assert.Equal(t, 0.0, TotalPrice(house, start, start))

	cents := &entity.House{Price: 33.333}
	assert.Equal(t, 100.0, TotalPrice(cents, start, start.AddDate(0, 0, 3)))
}

func TestCreateBookingChecksAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-10", "2025-01-15"))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, first.TotalPrice)
	assert.Equal(t, 5, first.Nights())

	_, err = f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-12", "2025-01-16"))
	assert.ErrorIs(t, err, ErrHouseUnavailable)

	_, err = f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-02-01", "2025-02-05"))
	assert.NoError(t, err)

	other, err := f.svc.CreateBooking(ctx, f.request(t, f.second, "2025-01-12", "2025-01-16"))
	require.NoError(t, err)
	assert.Equal(t, 3002.0, other.TotalPrice)

	houses, err := f.svc.AvailableHouses(ctx, f.city.ID, f.date(t, "2025-01-13"), f.date(t, "2025-01-14"))
	require.NoError(t, err)
	assert.Empty(t, houses)

	houses, err = f.svc.AvailableHouses(ctx, f.city.ID, f.date(t, "2025-01-11"), f.date(t, "2025-01-12"))
	require.NoError(t, err)
	require.Len(t, houses, 1)
	assert.Equal(t, f.second.ID, houses[0].ID)
}

// slowInserts delays every booking write, widening the gap between the
// availability check and the insert.
type slowInserts struct {
	Repository
	delay time.Duration
}

func (r slowInserts) CreateBooking(ctx context.Context, booking *entity.Booking) error {
	time.Sleep(r.delay)
	return r.Repository.CreateBooking(ctx, booking)
}

func (r slowInserts) UpdateBooking(ctx context.Context, booking *entity.Booking) error {
	time.Sleep(r.delay)
	return r.Repository.UpdateBooking(ctx, booking)
}

func TestConcurrentCreateBookingKeepsHouseExclusive(t *testing.T) {
	f := newWrappedFixture(t, func(r Repository) Repository {
		return slowInserts{Repository: r, delay: 20 * time.Millisecond}
	})
	ctx := context.Background()
	req := f.request(t, f.house, "2025-02-01", "2025-02-05")

	const chats = 20
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		created     int
		unavailable int
	)
	for i := 0; i < chats; i++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			r := req
			r.ChatID = chat
			_, err := f.svc.CreateBooking(ctx, r)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrHouseUnavailable):
				unavailable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, chats-1, unavailable)
	stored, err := f.svc.FindBookings(ctx, entity.BookingFilter{HouseID: &f.house.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestConcurrentUpdatesDoNotOverlap(t *testing.T) {
	f := newWrappedFixture(t, func(r Repository) Repository {
		return slowInserts{Repository: r, delay: 10 * time.Millisecond}
	})
	ctx := context.Background()

	var ids []int64
	for _, day := range []string{"2025-03-01", "2025-03-10", "2025-03-20"} {
		start := f.date(t, day)
		b, err := f.svc.CreateBooking(ctx, CreateRequest{
			HouseID:     f.house.ID,
			PhoneNumber: "+380501112233",
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 2),
			ChatID:      42,
		})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	start, end := f.date(t, "2025-04-01"), f.date(t, "2025-04-05")
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = f.svc.UpdateBooking(ctx, id, Patch{StartDate: &start, EndDate: &end})
		}(id)
	}
	wg.Wait()

	april := f.date(t, "2025-04-01")
	moved := 0
	stored, err := f.svc.FindBookings(ctx, entity.BookingFilter{HouseID: &f.house.ID})
	require.NoError(t, err)
	for _, b := range stored {
		if b.StartDate.Equal(april) {
			moved++
		}
	}
	assert.Equal(t, 1, moved)
}

func TestCreateBookingValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateBooking(ctx, f.request(t, f.house, "2024-12-20", "2024-12-25"))
	assert.ErrorIs(t, err, ErrDateInPast)

	req := f.request(t, f.house, "2025-01-10", "2025-01-12")
	req.PhoneNumber = " "
	_, err = f.svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = f.request(t, f.house, "2025-01-10", "2025-01-12")
	req.HouseID = 999
	_, err = f.svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-10", "2025-01-15"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-20", "2025-01-25"))
	require.NoError(t, err)

	// moving within its own range does not conflict with itself
	start, end := f.date(t, "2025-01-11"), f.date(t, "2025-01-14")
	updated, err := f.svc.UpdateBooking(ctx, booking.ID, Patch{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, updated.TotalPrice)

	end = f.date(t, "2025-01-21")
	_, err = f.svc.UpdateBooking(ctx, booking.ID, Patch{EndDate: &end})
	assert.ErrorIs(t, err, ErrHouseUnavailable)

	comment := "two dogs"
	phone := "+380509998877"
	updated, err = f.svc.UpdateBooking(ctx, booking.ID, Patch{Comment: &comment, PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "two dogs", *updated.Comment)
	assert.Equal(t, phone, updated.PhoneNumber)

	updated, err = f.svc.UpdateBooking(ctx, booking.ID, Patch{ClearComment: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Comment)

	stored, err := f.svc.Booking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Comment)
	assert.Equal(t, phone, stored.PhoneNumber)

	_, err = f.svc.UpdateBooking(ctx, 999, Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-10", "2025-01-15"))
	require.NoError(t, err)

	replaced, err := f.svc.ReplaceBooking(ctx, booking.ID, f.request(t, f.second, "2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	assert.Equal(t, f.second.ID, replaced.HouseID)
	assert.Equal(t, 1501.0, replaced.TotalPrice)

	houses, err := f.svc.AvailableHouses(ctx, f.city.ID, f.date(t, "2025-01-12"), f.date(t, "2025-01-14"))
	require.NoError(t, err)
	assert.Len(t, houses, 2)
}

func TestDeleteBookingFreesHouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-10", "2025-01-15"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteBooking(ctx, booking.ID))

	_, err = f.svc.Booking(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteBooking(ctx, booking.ID), ErrNotFound)

	_, err = f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-12", "2025-01-16"))
	assert.NoError(t, err)
}

func TestChatBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	booking, err := f.svc.CreateBooking(ctx, f.request(t, f.house, "2025-01-10", "2025-01-15"))
	require.NoError(t, err)

	got, err := f.svc.ChatBooking(ctx, 42, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = f.svc.ChatBooking(ctx, 7, booking.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	list, err := f.svc.ChatBookings(ctx, 42, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.svc.SetClock(func() time.Time { return time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC) })
	list, err = f.svc.ChatBookings(ctx, 42, true)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.ChatBookings(ctx, 42, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogChecksParents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.CreateCity(ctx, &entity.City{CountryID: 999, Name: "Nowhere"}), ErrNotFound)
	assert.ErrorIs(t, f.svc.CreateHouse(ctx, &entity.House{CityID: 999, Name: "Nowhere"}), ErrNotFound)
	assert.ErrorIs(t, f.svc.CreateCountry(ctx, &entity.Country{Name: " "}), ErrValidation)

	_, err := f.svc.HouseInCity(ctx, f.house.ID, f.city.ID+1)
	assert.ErrorIs(t, err, ErrHouseNotInCity)
}
