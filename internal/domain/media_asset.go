package domain

import "time"

// MediaAsset is a photo, video, floor plan or virtual tour attached to a
// listing case.
type MediaAsset struct {
	ID            int64     `json:"id"`
	MediaType     MediaType `json:"media_type"`
	MediaURL      string    `json:"media_url"`
	UploadedAt    time.Time `json:"uploaded_at"`
	IsSelect      bool      `json:"is_select"`
	IsHero        bool      `json:"is_hero"`
	ListingCaseID int64     `json:"listing_case_id"`
	UserID        string    `json:"user_id"`
	IsDeleted     bool      `json:"is_deleted"`

	// ListingCase is the parent case with its owner and assignments, set
	// when the asset is loaded for an access decision.
	ListingCase *ListingCase `json:"-"`
}

// NewMediaAsset builds an unselected, non-deleted asset uploaded by userID.
func NewMediaAsset(listingCaseID int64, mediaType MediaType, url, userID string, hero bool, now time.Time) *MediaAsset {
	return &MediaAsset{
		MediaType:     mediaType,
		MediaURL:      url,
		UploadedAt:    now.UTC(),
		IsSelect:      false,
		IsHero:        hero,
		ListingCaseID: listingCaseID,
		UserID:        userID,
		IsDeleted:     false,
	}
}
