package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// enumName returns names[v] or a placeholder for values outside the set.
func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("Unknown(%d)", v)
	}
	return names[v]
}

// parseEnum resolves a case-insensitive name or a decimal index.
func parseEnum(kind string, names []string, s string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(s); err == nil && idx >= 0 && idx < len(names) {
		return idx, nil
	}
	return 0, fmt.Errorf("invalid %s %q", kind, s)
}

// PropertyType classifies the building on a listing.
type PropertyType int16

const (
	PropertyTypeHouse PropertyType = iota
	PropertyTypeUnit
	PropertyTypeTownhouse
	PropertyTypeVilla
	PropertyTypeOther
)

var propertyTypeNames = []string{"House", "Unit", "Townhouse", "Villa", "Other"}

func (p PropertyType) String() string { return enumName(propertyTypeNames, int(p)) }

// IsValid reports whether p is a defined property type.
func (p PropertyType) IsValid() bool { return p >= 0 && int(p) < len(propertyTypeNames) }

func (p PropertyType) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid property type %d", p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText also accepts the legacy spelling "Others".
func (p *PropertyType) UnmarshalText(b []byte) error {
	if strings.EqualFold(string(b), "Others") {
		*p = PropertyTypeOther
		return nil
	}
	v, err := parseEnum("property type", propertyTypeNames, string(b))
	if err != nil {
		return err
	}
	*p = PropertyType(v)
	return nil
}

// SaleCategory is how a listing is brought to market.
type SaleCategory int16

const (
	SaleCategoryForSale SaleCategory = iota
	SaleCategoryForRent
	SaleCategoryAuction
)

var saleCategoryNames = []string{"ForSale", "ForRent", "Auction"}

func (c SaleCategory) String() string { return enumName(saleCategoryNames, int(c)) }

// IsValid reports whether c is a defined sale category.
func (c SaleCategory) IsValid() bool { return c >= 0 && int(c) < len(saleCategoryNames) }

func (c SaleCategory) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid sale category %d", c)
	}
	return []byte(c.String()), nil
}

func (c *SaleCategory) UnmarshalText(b []byte) error {
	v, err := parseEnum("sale category", saleCategoryNames, string(b))
	if err != nil {
		return err
	}
	*c = SaleCategory(v)
	return nil
}

// ListingCaseStatus tracks a listing through the shoot and delivery cycle.
// Any status may be set from any other.
type ListingCaseStatus int16

const (
	ListingCaseStatusCreated ListingCaseStatus = iota
	ListingCaseStatusPending
	ListingCaseStatusDelivered
)

var listingCaseStatusNames = []string{"Created", "Pending", "Delivered"}

func (s ListingCaseStatus) String() string { return enumName(listingCaseStatusNames, int(s)) }

// IsValid reports whether s is a defined status.
func (s ListingCaseStatus) IsValid() bool {
	return s >= 0 && int(s) < len(listingCaseStatusNames)
}

func (s ListingCaseStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid listing case status %d", s)
	}
	return []byte(s.String()), nil
}

func (s *ListingCaseStatus) UnmarshalText(b []byte) error {
	v, err := parseEnum("listing case status", listingCaseStatusNames, string(b))
	if err != nil {
		return err
	}
	*s = ListingCaseStatus(v)
	return nil
}

// MediaType is the kind of a media asset. Listings order assets by this
// value, so the declaration order is the display order.
type MediaType int16

const (
	MediaTypePhoto MediaType = iota
	MediaTypeVideo
	MediaTypeFloorPlan
	MediaTypeVRTour
)

var mediaTypeNames = []string{"Photo", "Video", "FloorPlan", "VRTour"}

func (m MediaType) String() string { return enumName(mediaTypeNames, int(m)) }

// IsValid reports whether m is a defined media type.
func (m MediaType) IsValid() bool { return m >= 0 && int(m) < len(mediaTypeNames) }

// AllowsBatch reports whether more than one asset of this type may be
// uploaded in a single request. Only photos do.
func (m MediaType) AllowsBatch() bool { return m == MediaTypePhoto }

func (m MediaType) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("invalid media type %d", m)
	}
	return []byte(m.String()), nil
}

func (m *MediaType) UnmarshalText(b []byte) error {
	v, err := parseEnum("media type", mediaTypeNames, string(b))
	if err != nil {
		return err
	}
	*m = MediaType(v)
	return nil
}
