package entity

type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type City struct {
	ID        int64  `json:"id"`
	CountryID int64  `json:"country_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
}
