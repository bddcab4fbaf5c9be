package workflow

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTokenPositional(t *testing.T) {
	token, err := BuildToken(StepSelectHouse, nil, 7, "2025-06-15", "2025-06-20")
	require.NoError(t, err)
	assert.Equal(t, "houses_7_2025-06-15_2025-06-20", token)

	step, params, err := Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, StepSelectHouse, step)
	assert.Equal(t, map[string]string{
		KeyCityID:    "7",
		KeyStartDate: "2025-06-15",
		KeyEndDate:   "2025-06-20",
	}, params)
}

func TestBuildTokenNamed(t *testing.T) {
	token, err := BuildToken(StepSelectCity, map[string]string{
		KeyCountryID: "3",
		KeyPage:      "2",
		KeyHouseID:   "99",
	})
	require.NoError(t, err)
	assert.Equal(t, "cities_3_2", token)
}

func TestBuildTokenBareFormat(t *testing.T) {
	token, err := BuildToken(StepConfirmBooking, map[string]string{KeyHouseID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "confirm", token)

	token, err = BuildToken(StepBookingDetail, nil)
	require.NoError(t, err)
	assert.Equal(t, "booking_%d", token)
}

func TestBuildTokenErrors(t *testing.T) {
	_, err := BuildToken(StepSelectCity, nil, 3)
	assert.ErrorIs(t, err, ErrArgumentCount)

	_, err = BuildToken(StepSelectCity, map[string]string{KeyCountryID: "3"})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = BuildToken(StepBookingDetail, nil, "abc")
	assert.ErrorIs(t, err, ErrArgumentInvalid)

	_, err = BuildToken(StepSelectHouse, nil, 7, "2025_06_15", "2025-06-20")
	assert.ErrorIs(t, err, ErrArgumentInvalid)

	_, err = BuildToken("nowhere", nil)
	assert.ErrorIs(t, err, ErrUnknownStep)

	long := strings.Repeat("9", 30)
	_, err = BuildToken(StepSelectHouse, nil, 7, long, long)
	assert.ErrorIs(t, err, ErrTokenTooLong)
}

func TestIntegerBoundsRoundTrip(t *testing.T) {
	for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		token, err := BuildToken(StepBookingDetail, nil, v)
		require.NoError(t, err)

		step, params, err := Resolve(token)
		require.NoError(t, err)
		assert.Equal(t, StepBookingDetail, step)
		assert.Equal(t, strconv.FormatInt(v, 10), params[KeyBookingID])
	}
}

func TestResolveEveryStep(t *testing.T) {
	samples := map[Step][]any{
		StepSelectCountry:  {1},
		StepSelectCity:     {3, 1},
		StepEnterDates:     {3, 7},
		StepSelectHouse:    {7, "2025-01-10", "2025-01-15"},
		StepEnterPhone:     {12},
		StepManageBookings: {1, 2},
		StepBookingDetail:  {5},
		StepEditPhone:      {5},
		StepEditComment:    {5},
		StepDeleteBooking:  {5},
		StepBookingDeleted: {5},
	}
	for _, s := range Steps() {
		token, err := BuildToken(s, nil, samples[s]...)
		require.NoError(t, err, "step %s", s)
		assert.LessOrEqual(t, len(token), MaxTokenLength)

		got, params, err := Resolve(token)
		require.NoError(t, err, "token %q", token)
		assert.Equal(t, s, got, "token %q", token)
		assert.Len(t, params, len(Keys(s)))
	}
}

func TestResolvePrefersLongestPrefix(t *testing.T) {
	step, _, err := Resolve("bookings_1_1")
	require.NoError(t, err)
	assert.Equal(t, StepManageBookings, step)

	step, _, err = Resolve("deleted_4")
	require.NoError(t, err)
	assert.Equal(t, StepBookingDeleted, step)

	step, _, err = Resolve("editphone_4")
	require.NoError(t, err)
	assert.Equal(t, StepEditPhone, step)
}

func TestResolveUnknown(t *testing.T) {
	for _, token := range []string{"", "menu2", "booking_", "booking_x", "houses_7_2025-01-10", "summary_1", "countries_1_2"} {
		_, _, err := Resolve(token)
		assert.ErrorIs(t, err, ErrUnknownToken, "token %q", token)
	}
}

func TestParseTokenRejectsOtherStep(t *testing.T) {
	_, ok := ParseToken(StepBookingDetail, "delete_5")
	assert.False(t, ok)
	_, ok = ParseToken("nowhere", "menu")
	assert.False(t, ok)
}

func TestCompileFormat(t *testing.T) {
	layout, err := compileFormat("a_%d_%s")
	require.NoError(t, err)
	assert.Equal(t, 2, countVerbs(layout))

	layout, err = compileFormat("p%%_%d")
	require.NoError(t, err)
	assert.Equal(t, "p%_", layout[0].literal)

	_, err = compileFormat("a_%d%s")
	assert.Error(t, err)
	_, err = compileFormat("a_%x")
	assert.Error(t, err)
	_, err = compileFormat("a_%")
	assert.Error(t, err)
}
