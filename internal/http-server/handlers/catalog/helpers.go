package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"HouseBot/internal/lib/api/response"
	"HouseBot/internal/lib/sl"
	service "HouseBot/internal/service/booking"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const mod = "http.handlers.catalog"

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module(mod),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// queryInt64 returns nil for an absent parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidDates), errors.Is(err, service.ErrDateInPast):
		status = http.StatusBadRequest
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(err.Error()))
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(message))
}
