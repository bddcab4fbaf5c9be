package catalog

import (
	"log/slog"
	"net/http"

	"HouseBot/entity"
	"HouseBot/internal/lib/api/response"
	"HouseBot/internal/lib/sl"
	"HouseBot/internal/lib/validate"

	"github.com/go-chi/render"
)

type CityRequest struct {
	CountryID int64  `json:"country_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=128"`
}

func (c *CityRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

// ListCities accepts an optional country_id filter.
func ListCities(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		countryID, err := queryInt64(r, "country_id")
		if err != nil {
			badRequest(w, r, "country_id must be an integer")
			return
		}

		cities, err := handler.Cities(r.Context(), countryID)
		if err != nil {
			logger.Error("failed to list cities", sl.Err(err))
			fail(w, r, err)
			return
		}

		logger.Debug("cities listed", slog.Int("count", len(cities)))
		render.JSON(w, r, response.Ok(cities))
	}
}

func CreateCity(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var req CityRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			badRequest(w, r, err.Error())
			return
		}

		city := entity.City{CountryID: req.CountryID, Name: req.Name}
		if err := handler.CreateCity(r.Context(), &city); err != nil {
			logger.Error("failed to create city", sl.Err(err))
			fail(w, r, err)
			return
		}

		logger.Info("city created", slog.Int64("id", city.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(city))
	}
}
