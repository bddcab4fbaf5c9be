package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"HouseBot/internal/config"
	repository "HouseBot/internal/database"
	service "HouseBot/internal/service/booking"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-api-key-0123"

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

type updateRecorder struct {
	updates    []int64
	ctxErrs    []error
	requestIDs []string
}

func (u *updateRecorder) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	u.updates = append(u.updates, update.UpdateId)
	u.ctxErrs = append(u.ctxErrs, ctx.Err())
	u.requestIDs = append(u.requestIDs, middleware.GetReqID(ctx))
}

func newTestRouter(t *testing.T) (http.Handler, *updateRecorder) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Connect("file::memory:", log)
	require.NoError(t, err)
	store := repository.NewStore(db, time.UTC, log)
	require.NoError(t, store.Migrate())

	svc := service.NewService(store, time.UTC, log)
	svc.SetClock(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })

	conf := &config.Config{}
	conf.Listen.ApiKey = apiKey
	conf.Listen.Timeout = 5 * time.Second
	conf.Telegram.WebhookSecret = "hook-secret"

	updates := &updateRecorder{}
	return NewRouter(conf, log, svc, updates), updates
}

func call(t *testing.T, router http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeID(t *testing.T, env envelope) int64 {
	t.Helper()
	var obj struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &obj))
	require.NotZero(t, obj.ID)
	return obj.ID
}

func TestHealthIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/countries", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/countries", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/countries", nil)
	req.Header.Set("X-API-Key", apiKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalogAndBookings(t *testing.T) {
	router, _ := newTestRouter(t)

	code, env := call(t, router, http.MethodPost, "/api/v1/countries", `{"name":"Ukraine"}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	countryID := decodeID(t, env)

	code, env = call(t, router, http.MethodPost, "/api/v1/cities", `{"country_id":`+itoa(countryID)+`,"name":"Yaremche"}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	cityID := decodeID(t, env)

	code, _ = call(t, router, http.MethodPost, "/api/v1/cities", `{"country_id":999,"name":"Nowhere"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = call(t, router, http.MethodPost, "/api/v1/houses", `{"city_id":`+itoa(cityID)+`,"name":"Pine","price":1000}`)
	require.Equal(t, http.StatusCreated, code, env.Message)
	houseID := decodeID(t, env)

	code, _ = call(t, router, http.MethodPost, "/api/v1/houses", `{"city_id":`+itoa(cityID)+`,"name":"","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, router, http.MethodGet, "/api/v1/houses/"+itoa(houseID), "")
	require.Equal(t, http.StatusOK, code)
	code, _ = call(t, router, http.MethodGet, "/api/v1/houses/999", "")
	assert.Equal(t, http.StatusNotFound, code)

	booking := `{"house_id":` + itoa(houseID) + `,"phone_number":"+380501112233","comment":"late","start_date":"2025-06-15","end_date":"2025-06-20","chat_id":42}`
	code, env = call(t, router, http.MethodPost, "/api/v1/bookings", booking)
	require.Equal(t, http.StatusCreated, code, env.Message)
	bookingID := decodeID(t, env)
	var created struct {
		TotalPrice float64 `json:"total_price"`
		Comment    *string `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 5000.0, created.TotalPrice)
	assert.Equal(t, "late", *created.Comment)

	code, _ = call(t, router, http.MethodPost, "/api/v1/bookings", booking)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(t, router, http.MethodPost, "/api/v1/bookings", `{"house_id":`+itoa(houseID)+`,"phone_number":"+380501112233","start_date":"2025-05-01","end_date":"2025-05-03"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, router, http.MethodPost, "/api/v1/bookings", `{"house_id":`+itoa(houseID)+`,"start_date":"15.06.2025"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, router, http.MethodGet, "/api/v1/houses?city_id="+itoa(cityID)+"&start_date=2025-06-18&end_date=2025-06-19", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = call(t, router, http.MethodGet, "/api/v1/houses?city_id="+itoa(cityID)+"&start_date=2025-06-20&end_date=2025-06-22", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"Pine"`)

	code, _ = call(t, router, http.MethodGet, "/api/v1/houses?start_date=2025-06-20", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, router, http.MethodGet, "/api/v1/bookings?chat_id=42", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"phone_number":"+380501112233"`)

	code, _ = call(t, router, http.MethodGet, "/api/v1/bookings?chat_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, router, http.MethodPatch, "/api/v1/bookings/"+itoa(bookingID), `{"clear_comment":true,"end_date":"2025-06-18"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	var patched struct {
		TotalPrice float64 `json:"total_price"`
		Comment    *string `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &patched))
	assert.Nil(t, patched.Comment)
	assert.Equal(t, 3000.0, patched.TotalPrice)

	code, _ = call(t, router, http.MethodPatch, "/api/v1/bookings/"+itoa(bookingID), `{"clear_comment":true,"comment":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, router, http.MethodPut, "/api/v1/bookings/"+itoa(bookingID), `{"house_id":`+itoa(houseID)+`,"phone_number":"+380509998877","start_date":"2025-07-01","end_date":"2025-07-02","chat_id":42}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"total_price":1000`)

	code, _ = call(t, router, http.MethodDelete, "/api/v1/bookings/"+itoa(bookingID), "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, router, http.MethodGet, "/api/v1/bookings/"+itoa(bookingID), "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = call(t, router, http.MethodDelete, "/api/v1/bookings/"+itoa(bookingID), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebhook(t *testing.T) {
	router, updates := newTestRouter(t)

	post := func(secret, body string) int {
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
		if secret != "" {
			req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, post("", `{"update_id":1}`))
	assert.Equal(t, http.StatusUnauthorized, post("wrong", `{"update_id":1}`))
	assert.Equal(t, http.StatusNoContent, post("hook-secret", `{"update_id":7}`))
	assert.Equal(t, http.StatusNoContent, post("hook-secret", `not json`))
	assert.Equal(t, []int64{7}, updates.updates)
}

func TestWebhookOutlivesDroppedDelivery(t *testing.T) {
	router, updates := newTestRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":9}`)).WithContext(ctx)
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hook-secret")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, []int64{9}, updates.updates)
	assert.NoError(t, updates.ctxErrs[0])
	assert.NotEmpty(t, updates.requestIDs[0])
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)
	code, env := call(t, router, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
