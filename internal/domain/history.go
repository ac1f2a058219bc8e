package domain

import (
	"fmt"
	"strconv"
	"time"
)

// History record kinds. They double as event types on the history topic.
const (
	HistoryKindCase     = "history.case"
	HistoryKindMedia    = "history.media"
	HistoryKindActivity = "history.activity"
)

// Case history changes.
const (
	CaseChangeCreation        = "Creation"
	CaseChangeUpdate          = "Update"
	CaseChangeStatus          = "StatusChange"
	CaseChangeDeletion        = "Deletion"
	CaseChangeAgentAssigned   = "AgentAssigned"
	CaseChangeAgentUnassigned = "AgentUnassigned"
	CaseChangeContactAdded    = "ContactAdded"
)

// Media asset history changes.
const (
	MediaChangeCreation  = "Creation"
	MediaChangeDeletion  = "Deletion"
	MediaChangeHero      = "HeroSet"
	MediaChangeSelection = "SelectionChange"
)

// HistoryRecord is an append-only audit entry.
type HistoryRecord interface {
	HistoryKind() string
	AggregateID() string
}

// CaseHistory records one change to a listing case.
type CaseHistory struct {
	ListingCaseID int64     `json:"listing_case_id"`
	Change        string    `json:"change"`
	Description   string    `json:"description,omitempty"`
	UserID        string    `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (h CaseHistory) HistoryKind() string { return HistoryKindCase }
func (h CaseHistory) AggregateID() string { return strconv.FormatInt(h.ListingCaseID, 10) }

// StatusChangeDescription renders an old to new status transition.
func StatusChangeDescription(from, to ListingCaseStatus) string {
	return fmt.Sprintf("%s -> %s", from, to)
}

// MediaAssetHistory records one change to a media asset.
type MediaAssetHistory struct {
	MediaAssetID  int64     `json:"media_asset_id"`
	ListingCaseID int64     `json:"listing_case_id"`
	Change        string    `json:"change"`
	MediaType     MediaType `json:"media_type"`
	UserID        string    `json:"user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (h MediaAssetHistory) HistoryKind() string { return HistoryKindMedia }
func (h MediaAssetHistory) AggregateID() string { return strconv.FormatInt(h.MediaAssetID, 10) }

// UserActivityLog records a mutating API call made by a user.
type UserActivityLog struct {
	UserID     string    `json:"user_id"`
	Method     string    `json:"method"`
	Route      string    `json:"route"`
	Status     int       `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (l UserActivityLog) HistoryKind() string { return HistoryKindActivity }
func (l UserActivityLog) AggregateID() string { return l.UserID }
