package entity

import "time"

type House struct {
	ID          int64   `json:"id"`
	CityID      int64   `json:"city_id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	PhotoURL    string  `json:"photo_url,omitempty"`
	Bedrooms    int     `json:"bedrooms,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// HouseFilter narrows a house listing. A date range keeps only houses with no
// booking overlapping [StartDate, EndDate).
type HouseFilter struct {
	CityID           *int64
	StartDate        *time.Time
	EndDate          *time.Time
	ExcludeBookingID *int64
}

func (f HouseFilter) HasRange() bool {
	return f.StartDate != nil && f.EndDate != nil
}
