package booking

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"HouseBot/entity"
	"HouseBot/internal/lib/api/response"
	"HouseBot/internal/lib/sl"
	service "HouseBot/internal/service/booking"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const mod = "http.handlers.booking"

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module(mod),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrHouseUnavailable):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidDates),
		errors.Is(err, service.ErrDateInPast),
		errors.Is(err, service.ErrHouseNotInCity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, response.Error(message))
}

func failWith(logger *slog.Logger, w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, sl.Err(err))
		fail(w, r, status, "internal error")
		return
	}
	logger.Debug(msg, sl.Err(err))
	fail(w, r, status, err.Error())
}

func bookingID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

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

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, err := bookingID(r)
		if err != nil {
			fail(w, r, http.StatusBadRequest, "id must be an integer")
			return
		}

		booking, err := handler.Booking(r.Context(), id)
		if err != nil {
			failWith(logger, w, r, "failed to get booking", err)
			return
		}
		render.JSON(w, r, response.Ok(booking))
	}
}

// List filters bookings by house_id, chat_id and user_id.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var filter entity.BookingFilter
		var err error
		for name, dst := range map[string]**int64{
			"house_id": &filter.HouseID,
			"chat_id":  &filter.ChatID,
			"user_id":  &filter.UserID,
		} {
			if *dst, err = queryInt64(r, name); err != nil {
				fail(w, r, http.StatusBadRequest, name+" must be an integer")
				return
			}
		}

		bookings, err := handler.FindBookings(r.Context(), filter)
		if err != nil {
			failWith(logger, w, r, "failed to list bookings", err)
			return
		}

		logger.Debug("bookings listed", slog.Int("count", len(bookings)))
		render.JSON(w, r, response.Ok(bookings))
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var req Request
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		create, err := req.toCreate(handler)
		if err != nil {
			failWith(logger, w, r, "invalid dates", err)
			return
		}

		booking, err := handler.CreateBooking(r.Context(), create)
		if err != nil {
			failWith(logger, w, r, "failed to create booking", err)
			return
		}

		logger.Info("booking created", slog.Int64("id", booking.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(booking))
	}
}

// Update applies a partial change.
func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, err := bookingID(r)
		if err != nil {
			fail(w, r, http.StatusBadRequest, "id must be an integer")
			return
		}

		var req PatchRequest
		if err = render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		patch, err := req.toPatch(handler)
		if err != nil {
			failWith(logger, w, r, "invalid dates", err)
			return
		}

		booking, err := handler.UpdateBooking(r.Context(), id, patch)
		if err != nil {
			failWith(logger, w, r, "failed to update booking", err)
			return
		}

		logger.Info("booking updated", slog.Int64("id", booking.ID))
		render.JSON(w, r, response.Ok(booking))
	}
}

// Replace overwrites every field of a booking.
func Replace(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, err := bookingID(r)
		if err != nil {
			fail(w, r, http.StatusBadRequest, "id must be an integer")
			return
		}

		var req Request
		if err = render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		replace, err := req.toCreate(handler)
		if err != nil {
			failWith(logger, w, r, "invalid dates", err)
			return
		}

		booking, err := handler.ReplaceBooking(r.Context(), id, replace)
		if err != nil {
			failWith(logger, w, r, "failed to replace booking", err)
			return
		}

		logger.Info("booking replaced", slog.Int64("id", booking.ID))
		render.JSON(w, r, response.Ok(booking))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, err := bookingID(r)
		if err != nil {
			fail(w, r, http.StatusBadRequest, "id must be an integer")
			return
		}

		if err = handler.DeleteBooking(r.Context(), id); err != nil {
			failWith(logger, w, r, "failed to delete booking", err)
			return
		}

		logger.Info("booking deleted", slog.Int64("id", id))
		render.JSON(w, r, response.Ok(nil))
	}
}
