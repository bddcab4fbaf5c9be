package catalog

import (
	"context"
	"time"

	"HouseBot/entity"
)

type Core interface {
	Countries(ctx context.Context) ([]entity.Country, error)
	CreateCountry(ctx context.Context, country *entity.Country) error
	Cities(ctx context.Context, countryID *int64) ([]entity.City, error)
	CreateCity(ctx context.Context, city *entity.City) error
	Houses(ctx context.Context, filter entity.HouseFilter) ([]entity.House, error)
	House(ctx context.Context, id int64) (*entity.House, error)
	CreateHouse(ctx context.Context, house *entity.House) error
	ParseDate(value string) (time.Time, error)
}
