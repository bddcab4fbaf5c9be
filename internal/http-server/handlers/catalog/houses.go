package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"HouseBot/entity"
	"HouseBot/internal/lib/api/response"
	"HouseBot/internal/lib/sl"
	"HouseBot/internal/lib/validate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type HouseRequest struct {
	CityID      int64   `json:"city_id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description"`
	PhotoURL    string  `json:"photo_url" validate:"omitempty,url"`
	Bedrooms    int     `json:"bedrooms" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

func (h *HouseRequest) Bind(_ *http.Request) error {
	return validate.Struct(h)
}

// ListHouses filters by city_id and, when both start_date and end_date are
// given, keeps only houses free for that range.
func ListHouses(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var filter entity.HouseFilter
		cityID, err := queryInt64(r, "city_id")
		if err != nil {
			badRequest(w, r, "city_id must be an integer")
			return
		}
		filter.CityID = cityID

		q := r.URL.Query()
		start, end := q.Get("start_date"), q.Get("end_date")
		if (start == "") != (end == "") {
			badRequest(w, r, "start_date and end_date go together")
			return
		}
		if start != "" {
			s, err := handler.ParseDate(start)
			if err != nil {
				badRequest(w, r, "start_date must be YYYY-MM-DD")
				return
			}
			e, err := handler.ParseDate(end)
			if err != nil {
				badRequest(w, r, "end_date must be YYYY-MM-DD")
				return
			}
			if s.After(e) {
				badRequest(w, r, "start_date is after end_date")
				return
			}
			filter.StartDate, filter.EndDate = &s, &e
		}

		houses, err := handler.Houses(r.Context(), filter)
		if err != nil {
			logger.Error("failed to list houses", sl.Err(err))
			fail(w, r, err)
			return
		}

		logger.Debug("houses listed", slog.Int("count", len(houses)))
		render.JSON(w, r, response.Ok(houses))
	}
}

func GetHouse(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			badRequest(w, r, "id must be an integer")
			return
		}

		house, err := handler.House(r.Context(), id)
		if err != nil {
			logger.Debug("house lookup failed", sl.Err(err))
			fail(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(house))
	}
}

func CreateHouse(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var req HouseRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			badRequest(w, r, err.Error())
			return
		}

		house := entity.House{
			CityID:      req.CityID,
			Name:        req.Name,
			Description: req.Description,
			PhotoURL:    req.PhotoURL,
			Bedrooms:    req.Bedrooms,
			Price:       req.Price,
		}
		if err := handler.CreateHouse(r.Context(), &house); err != nil {
			logger.Error("failed to create house", sl.Err(err))
			fail(w, r, err)
			return
		}

		logger.Info("house created", slog.Int64("id", house.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(house))
	}
}
