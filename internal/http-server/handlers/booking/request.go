package booking

import (
	"fmt"
	"net/http"
	"strings"

	"HouseBot/internal/lib/validate"
	service "HouseBot/internal/service/booking"
)

// Request is the full booking body for create and replace.
type Request struct {
	HouseID     int64   `json:"house_id" validate:"required,gt=0"`
	PhoneNumber string  `json:"phone_number" validate:"required,max=32"`
	Comment     *string `json:"comment" validate:"omitempty,max=1024"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	ChatID      int64   `json:"chat_id"`
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username" validate:"max=64"`
}

func (b *Request) Bind(_ *http.Request) error {
	return validate.Struct(b)
}

func (b *Request) toCreate(handler Core) (service.CreateRequest, error) {
	start, err := handler.ParseDate(b.StartDate)
	if err != nil {
		return service.CreateRequest{}, err
	}
	end, err := handler.ParseDate(b.EndDate)
	if err != nil {
		return service.CreateRequest{}, err
	}
	return service.CreateRequest{
		HouseID:     b.HouseID,
		PhoneNumber: strings.TrimSpace(b.PhoneNumber),
		Comment:     blankToNil(b.Comment),
		StartDate:   start,
		EndDate:     end,
		ChatID:      b.ChatID,
		UserID:      b.UserID,
		Username:    b.Username,
	}, nil
}

// PatchRequest carries the fields to change; absent fields stay as they are.
type PatchRequest struct {
	HouseID      *int64  `json:"house_id" validate:"omitempty,gt=0"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=32"`
	Comment      *string `json:"comment" validate:"omitempty,max=1024"`
	ClearComment bool    `json:"clear_comment"`
	StartDate    *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func (p *PatchRequest) Bind(_ *http.Request) error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.ClearComment && p.Comment != nil {
		return fmt.Errorf("comment and clear_comment are exclusive")
	}
	return nil
}

func (p *PatchRequest) toPatch(handler Core) (service.Patch, error) {
	patch := service.Patch{
		HouseID:      p.HouseID,
		Comment:      p.Comment,
		ClearComment: p.ClearComment,
	}
	if p.PhoneNumber != nil {
		phone := strings.TrimSpace(*p.PhoneNumber)
		patch.PhoneNumber = &phone
	}
	if p.StartDate != nil {
		start, err := handler.ParseDate(*p.StartDate)
		if err != nil {
			return patch, err
		}
		patch.StartDate = &start
	}
	if p.EndDate != nil {
		end, err := handler.ParseDate(*p.EndDate)
		if err != nil {
			return patch, err
		}
		patch.EndDate = &end
	}
	return patch, nil
}

func blankToNil(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
