package booking

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidDates     = errors.New("start date is after end date")
	ErrDateInPast       = errors.New("start date is in the past")
	ErrHouseUnavailable = errors.New("house is not available for these dates")
	ErrHouseNotInCity   = errors.New("house is not in the selected city")
	ErrNotOwner         = errors.New("booking belongs to another chat")
	ErrValidation       = errors.New("validation error")
)
