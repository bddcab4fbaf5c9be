package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"HouseBot/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Connect("file::memory:", log)
	require.NoError(t, err)
	store := NewStore(db, time.UTC, log)
	require.NoError(t, store.Migrate())
	return store
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(entity.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

type catalog struct {
	country entity.Country
	city    entity.City
	houses  []entity.House
}

func seed(t *testing.T, store *Store) catalog {
	t.Helper()
	ctx := context.Background()
	c := catalog{country: entity.Country{Name: "Ukraine"}}
	require.NoError(t, store.CreateCountry(ctx, &c.country))
	c.city = entity.City{CountryID: c.country.ID, Name: "Yaremche"}
	require.NoError(t, store.CreateCity(ctx, &c.city))
	for _, name := range []string{"Pine", "Birch"} {
		h := entity.House{CityID: c.city.ID, Name: name, Price: 1000}
		require.NoError(t, store.CreateHouse(ctx, &h))
		c.houses = append(c.houses, h)
	}
	return c
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := seed(t, store)

	countries, err := store.ListCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Country{c.country}, countries)

	cities, err := store.ListCities(ctx, &c.country.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.City{c.city}, cities)

	other := int64(999)
	cities, err = store.ListCities(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, cities)

	house, err := store.GetHouse(ctx, c.houses[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Birch", house.Name)

	missing, err := store.GetHouse(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	country, err := store.GetCountry(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, country)
}

func TestListHousesExcludesOverlaps(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := seed(t, store)

	booking := entity.Booking{
		HouseID:     c.houses[0].ID,
		PhoneNumber: "+380501112233",
		StartDate:   day("2025-01-10"),
		EndDate:     day("2025-01-15"),
	}
	require.NoError(t, store.CreateBooking(ctx, &booking))
	require.NotZero(t, booking.ID)

	available := func(start, end string, exclude *int64) []int64 {
		s, e := day(start), day(end)
		houses, err := store.ListHouses(ctx, entity.HouseFilter{
			CityID:           &c.city.ID,
			StartDate:        &s,
			EndDate:          &e,
			ExcludeBookingID: exclude,
		})
		require.NoError(t, err)
		ids := make([]int64, len(houses))
		for i, h := range houses {
			ids[i] = h.ID
		}
		return ids
	}

	both := []int64{c.houses[0].ID, c.houses[1].ID}
	onlyBirch := []int64{c.houses[1].ID}

	assert.Equal(t, onlyBirch, available("2025-01-12", "2025-01-16", nil))
	assert.Equal(t, onlyBirch, available("2025-01-05", "2025-01-11", nil))
	assert.Equal(t, both, available("2025-02-01", "2025-02-05", nil))
	assert.Equal(t, both, available("2025-01-15", "2025-01-18", nil), "checkout day is free")
	assert.Equal(t, both, available("2025-01-05", "2025-01-10", nil), "checkin day is free")
	assert.Equal(t, both, available("2025-01-12", "2025-01-16", &booking.ID))

	all, err := store.ListHouses(ctx, entity.HouseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListHousesMatchesOverlapPredicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := seed(t, store)

	booking := entity.Booking{
		HouseID:     c.houses[0].ID,
		PhoneNumber: "+380501112233",
		StartDate:   day("2025-01-10"),
		EndDate:     day("2025-01-15"),
	}
	require.NoError(t, store.CreateBooking(ctx, &booking))

	ranges := [][2]string{
		{"2025-01-01", "2025-01-09"},
		{"2025-01-01", "2025-01-10"},
		{"2025-01-01", "2025-01-11"},
		{"2025-01-10", "2025-01-15"},
		{"2025-01-11", "2025-01-12"},
		{"2025-01-14", "2025-01-20"},
		{"2025-01-15", "2025-01-20"},
		{"2025-01-16", "2025-01-20"},
		{"2025-01-05", "2025-01-25"},
		{"2025-01-12", "2025-01-12"},
	}
	for _, r := range ranges {
		start, end := day(r[0]), day(r[1])
		houses, err := store.ListHouses(ctx, entity.HouseFilter{CityID: &c.city.ID, StartDate: &start, EndDate: &end})
		require.NoError(t, err)
		free := false
		for _, h := range houses {
			if h.ID == booking.HouseID {
				free = true
			}
		}
		assert.Equal(t, !booking.Overlaps(start, end), free, "%s..%s", r[0], r[1])
	}
}

func TestEndsAfterMatchesIsActual(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := seed(t, store)

	for _, r := range [][2]string{{"2025-05-01", "2025-05-05"}, {"2025-05-10", "2025-05-20"}, {"2025-06-01", "2025-06-03"}} {
		b := entity.Booking{HouseID: c.houses[0].ID, PhoneNumber: "+380501112233", StartDate: day(r[0]), EndDate: day(r[1])}
		require.NoError(t, store.CreateBooking(ctx, &b))
	}
	all, err := store.FindBookings(ctx, entity.BookingFilter{})
	require.NoError(t, err)

	for _, today := range []string{"2025-05-04", "2025-05-05", "2025-05-06", "2025-05-20", "2025-06-04"} {
		d := day(today)
		actual, err := store.FindBookings(ctx, entity.BookingFilter{EndsAfter: &d})
		require.NoError(t, err)
		var want []int64
		for _, b := range all {
			if b.IsActual(d) {
				want = append(want, b.ID)
			}
		}
		var got []int64
		for _, b := range actual {
			got = append(got, b.ID)
		}
		assert.Equal(t, want, got, today)
	}
}

func TestWithHouseLockRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := seed(t, store)
	failed := errors.New("rejected")

	err := store.WithHouseLock(ctx, c.houses[0].ID, func(ctx context.Context) error {
		b := entity.Booking{HouseID: c.houses[0].ID, PhoneNumber: "+380501112233", StartDate: day("2025-01-10"), EndDate: day("2025-01-15")}
		require.NoError(t, store.CreateBooking(ctx, &b))
		inside, err := store.FindBookings(ctx, entity.BookingFilter{})
		require.NoError(t, err)
		assert.Len(t, inside, 1)
		return failed
	})
	assert.ErrorIs(t, err, failed)

	after, err := store.FindBookings(ctx, entity.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, after)

	err = store.WithHouseLock(ctx, c.houses[1].ID, func(ctx context.Context) error {
		b := entity.Booking{HouseID: c.houses[1].ID, PhoneNumber: "+380501112233", StartDate: day("2025-01-10"), EndDate: day("2025-01-15")}
		return store.CreateBooking(ctx, &b)
	})
	require.NoError(t, err)
	after, err = store.FindBookings(ctx, entity.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, after, 1)

	err = store.WithHouseLock(ctx, 999, func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := seed(t, store)

	comment := "late arrival"
	booking := entity.Booking{
		HouseID:     c.houses[0].ID,
		PhoneNumber: "+380501112233",
		Comment:     &comment,
		StartDate:   day("2025-06-15"),
		EndDate:     day("2025-06-20"),
		TotalPrice:  5000,
		ChatID:      42,
		UserID:      42,
		Username:    "guest",
		CreatedAt:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateBooking(ctx, &booking))

	got, err := store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.StartDate.Equal(day("2025-06-15")))
	assert.True(t, got.EndDate.Equal(day("2025-06-20")))
	assert.Equal(t, "late arrival", *got.Comment)
	assert.Equal(t, 5000.0, got.TotalPrice)

	got.Comment = nil
	got.PhoneNumber = "+380509998877"
	require.NoError(t, store.UpdateBooking(ctx, got))
	got, err = store.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Comment)
	assert.Equal(t, "+380509998877", got.PhoneNumber)

	chat := int64(42)
	list, err := store.FindBookings(ctx, entity.BookingFilter{ChatID: &chat})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	after := day("2025-06-21")
	list, err = store.FindBookings(ctx, entity.BookingFilter{ChatID: &chat, EndsAfter: &after})
	require.NoError(t, err)
	assert.Empty(t, list)

	lastDay := day("2025-06-20")
	list, err = store.FindBookings(ctx, entity.BookingFilter{EndsAfter: &lastDay})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteBooking(ctx, booking.ID))
	got, err = store.GetBooking(ctx, booking.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
