package domain

import (
	"fmt"
	"slices"
	"time"
)

// ListingCase is a property listing owned by the photography company that
// created it.
type ListingCase struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Street       string            `json:"street"`
	City         string            `json:"city"`
	State        string            `json:"state"`
	Postcode     int               `json:"postcode"`
	Longitude    float64           `json:"longitude"`
	Latitude     float64           `json:"latitude"`
	Price        float64           `json:"price"`
	Bedrooms     int               `json:"bedrooms"`
	Bathrooms    int               `json:"bathrooms"`
	Garages      int               `json:"garages"`
	FloorArea    float64           `json:"floor_area"`
	PropertyType PropertyType      `json:"property_type"`
	SaleCategory SaleCategory      `json:"sale_category"`
	Status       ListingCaseStatus `json:"listing_case_status"`
	CreatedAt    time.Time         `json:"created_at"`
	IsDeleted    bool              `json:"is_deleted"`
	UserID       string            `json:"user_id"`

	// AgentIDs holds the agents assigned to the case. Loaders fill it
	// whenever the case is read for an access decision.
	AgentIDs []string `json:"agent_ids"`
}

// NewListingCase applies creation defaults to the given attributes: the case
// starts in Created status, for sale, not deleted, owned by ownerID.
func NewListingCase(attrs ListingCase, ownerID string, now time.Time) *ListingCase {
	lc := attrs
	lc.ID = 0
	lc.CreatedAt = now.UTC()
	lc.IsDeleted = false
	lc.SaleCategory = SaleCategoryForSale
	lc.Status = ListingCaseStatusCreated
	lc.UserID = ownerID
	lc.AgentIDs = nil
	return &lc
}

// HasAgent reports whether agentID is assigned to the case.
func (lc *ListingCase) HasAgent(agentID string) bool {
	return slices.Contains(lc.AgentIDs, agentID)
}

// ListingCaseUpdate carries the mutable attributes of a listing case.
// Every field is overwritten.
type ListingCaseUpdate struct {
	Title        string
	Description  string
	Street       string
	City         string
	State        string
	Postcode     int
	Longitude    float64
	Latitude     float64
	Price        float64
	Bedrooms     int
	Bathrooms    int
	Garages      int
	FloorArea    float64
	PropertyType PropertyType
	SaleCategory SaleCategory
	Status       ListingCaseStatus
}

// Validate rejects enum values outside their defined sets.
func (u ListingCaseUpdate) Validate() error {
	switch {
	case !u.PropertyType.IsValid():
		return fmt.Errorf("invalid property type %d", u.PropertyType)
	case !u.SaleCategory.IsValid():
		return fmt.Errorf("invalid sale category %d", u.SaleCategory)
	case !u.Status.IsValid():
		return fmt.Errorf("invalid listing case status %d", u.Status)
	}
	return nil
}

// Apply overwrites the mutable attributes of lc with u.
func (u ListingCaseUpdate) Apply(lc *ListingCase) {
	lc.Title = u.Title
	lc.Description = u.Description
	lc.Street = u.Street
	lc.City = u.City
	lc.State = u.State
	lc.Postcode = u.Postcode
	lc.Longitude = u.Longitude
	lc.Latitude = u.Latitude
	lc.Price = u.Price
	lc.Bedrooms = u.Bedrooms
	lc.Bathrooms = u.Bathrooms
	lc.Garages = u.Garages
	lc.FloorArea = u.FloorArea
	lc.PropertyType = u.PropertyType
	lc.SaleCategory = u.SaleCategory
	lc.Status = u.Status
}

// CaseContact is a point of contact for a listing, usually the selling agent.
type CaseContact struct {
	ID            int64  `json:"id"`
	ListingCaseID int64  `json:"listing_case_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	CompanyName   string `json:"company_name"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
	ProfileURL    string `json:"profile_url"`
}

// AgentAssignment links an agent to a listing case.
type AgentAssignment struct {
	AgentID       string `json:"agent_id"`
	ListingCaseID int64  `json:"listing_case_id"`
}
