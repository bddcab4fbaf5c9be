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

type CountryRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

func (c *CountryRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

func ListCountries(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		countries, err := handler.Countries(r.Context())
		if err != nil {
			logger.Error("failed to list countries", sl.Err(err))
			fail(w, r, err)
			return
		}

		logger.Debug("countries listed", slog.Int("count", len(countries)))
		render.JSON(w, r, response.Ok(countries))
	}
}

func CreateCountry(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var req CountryRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("invalid request", sl.Err(err))
			badRequest(w, r, err.Error())
			return
		}

		country := entity.Country{Name: req.Name}
		if err := handler.CreateCountry(r.Context(), &country); err != nil {
			logger.Error("failed to create country", sl.Err(err))
			fail(w, r, err)
			return
		}

		logger.Info("country created", slog.Int64("id", country.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(country))
	}
}
