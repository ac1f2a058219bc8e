package http

import (
	govalidator "github.com/go-playground/validator/v10"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/pkg/validator"
)

func init() {
	validator.RegisterStructValidation(validateCreateMedia, CreateMediaRequest{})
	validator.RegisterStructValidation(validateSelection, SelectMediaRequest{})
}

// --- Listing cases ---

// ListingCaseRequest is the JSON body for creating or replacing a listing
// case. Status and sale category are ignored on create.
type ListingCaseRequest struct {
	Title        string                   `json:"title" validate:"required,min=1,max=255"`
	Description  string                   `json:"description" validate:"max=4000"`
	Street       string                   `json:"street" validate:"required,max=255"`
	City         string                   `json:"city" validate:"required,max=100"`
	State        string                   `json:"state" validate:"required,max=50"`
	Postcode     int                      `json:"postcode" validate:"gte=0,lte=9999"`
	Longitude    float64                  `json:"longitude" validate:"gte=-180,lte=180"`
	Latitude     float64                  `json:"latitude" validate:"gte=-90,lte=90"`
	Price        float64                  `json:"price" validate:"gte=0"`
	Bedrooms     int                      `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int                      `json:"bathrooms" validate:"gte=0"`
	Garages      int                      `json:"garages" validate:"gte=0"`
	FloorArea    float64                  `json:"floor_area" validate:"gte=0"`
	PropertyType domain.PropertyType      `json:"property_type"`
	SaleCategory domain.SaleCategory      `json:"sale_category"`
	Status       domain.ListingCaseStatus `json:"listing_case_status"`
}

func (r ListingCaseRequest) attrs() domain.ListingCase {
	return domain.ListingCase{
		Title:        r.Title,
		Description:  r.Description,
		Street:       r.Street,
		City:         r.City,
		State:        r.State,
		Postcode:     r.Postcode,
		Longitude:    r.Longitude,
		Latitude:     r.Latitude,
		Price:        r.Price,
		Bedrooms:     r.Bedrooms,
		Bathrooms:    r.Bathrooms,
		Garages:      r.Garages,
		FloorArea:    r.FloorArea,
		PropertyType: r.PropertyType,
	}
}

func (r ListingCaseRequest) update() domain.ListingCaseUpdate {
	return domain.ListingCaseUpdate{
		Title:        r.Title,
		Description:  r.Description,
		Street:       r.Street,
		City:         r.City,
		State:        r.State,
		Postcode:     r.Postcode,
		Longitude:    r.Longitude,
		Latitude:     r.Latitude,
		Price:        r.Price,
		Bedrooms:     r.Bedrooms,
		Bathrooms:    r.Bathrooms,
		Garages:      r.Garages,
		FloorArea:    r.FloorArea,
		PropertyType: r.PropertyType,
		SaleCategory: r.SaleCategory,
		Status:       r.Status,
	}
}

// ChangeStatusRequest is the JSON body for PATCH /listings/{id}/status.
type ChangeStatusRequest struct {
	Status *domain.ListingCaseStatus `json:"listing_case_status" validate:"required"`
}

// AssignAgentRequest is the JSON body for POST /listings/{id}/agents.
type AssignAgentRequest struct {
	AgentID string `json:"agent_id" validate:"required,uuid"`
}

// ContactRequest is the JSON body for POST /listings/{id}/contacts.
type ContactRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	CompanyName string `json:"company_name" validate:"max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=30"`
	Email       string `json:"email" validate:"required,email"`
	ProfileURL  string `json:"profile_url" validate:"omitempty,url"`
}

func (r ContactRequest) contact() domain.CaseContact {
	return domain.CaseContact{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		CompanyName: r.CompanyName,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		ProfileURL:  r.ProfileURL,
	}
}

// --- Media assets ---

// CreateMediaRequest is the JSON body for POST /listings/{id}/media.
type CreateMediaRequest struct {
	MediaType *domain.MediaType `json:"media_type" validate:"required"`
	MediaURLs []string          `json:"media_urls" validate:"required,min=1,max=50,unique,dive,required,url"`
	IsHero    bool              `json:"is_hero"`
}

func validateCreateMedia(sl govalidator.StructLevel) {
	req := sl.Current().Interface().(CreateMediaRequest)
	if req.MediaType == nil || len(req.MediaURLs) <= 1 {
		return
	}
	if !req.MediaType.AllowsBatch() || req.IsHero {
		sl.ReportError(req.MediaURLs, "media_urls", "MediaURLs", "single_url", "")
	}
}

// SelectMediaRequest is the JSON body for PUT /listings/{id}/media/selection.
type SelectMediaRequest struct {
	SelectIDs   []int64 `json:"select_ids" validate:"omitempty,unique,dive,gt=0"`
	UnselectIDs []int64 `json:"unselect_ids" validate:"omitempty,unique,dive,gt=0"`
}

func validateSelection(sl govalidator.StructLevel) {
	req := sl.Current().Interface().(SelectMediaRequest)
	if len(req.SelectIDs)+len(req.UnselectIDs) == 0 {
		sl.ReportError(req.SelectIDs, "select_ids", "SelectIDs", "nonempty_selection", "")
		return
	}
	seen := make(map[int64]struct{}, len(req.SelectIDs))
	for _, id := range req.SelectIDs {
		seen[id] = struct{}{}
	}
	for _, id := range req.UnselectIDs {
		if _, ok := seen[id]; ok {
			sl.ReportError(req.UnselectIDs, "unselect_ids", "UnselectIDs", "disjoint", "")
			return
		}
	}
}
