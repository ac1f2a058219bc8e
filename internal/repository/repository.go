package repository

import (
	"context"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
)

// Write methods that report an int64 return the number of rows affected.
// Callers decide what a zero count means for their operation.

// ListingCaseRepository defines persistence for listing cases.
type ListingCaseRepository interface {
	// Create inserts the case and sets its store-assigned ID.
	Create(ctx context.Context, lc *domain.ListingCase) error

	// GetByID returns a non-deleted case with its agent assignments loaded.
	// A missing or deleted case yields apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.ListingCase, error)

	// ListByOwner returns non-deleted cases owned by a photography company
	// and the total count.
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ListingCase, int, error)

	// ListByAgent returns non-deleted cases assigned to an agent and the
	// total count.
	ListByAgent(ctx context.Context, agentID string, offset, limit int) ([]domain.ListingCase, int, error)

	Update(ctx context.Context, lc *domain.ListingCase) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ListingCaseStatus) (int64, error)
	SoftDelete(ctx context.Context, id int64) (int64, error)
}

// AssignmentRepository defines persistence for agent links.
type AssignmentRepository interface {
	// IsAgentOfCompany reports whether the agent works with the company.
	IsAgentOfCompany(ctx context.Context, agentID, companyID string) (bool, error)

	// Assign links an agent to a case. A duplicate link yields
	// apperrors.ErrAlreadyExists.
	Assign(ctx context.Context, a domain.AgentAssignment) error

	Unassign(ctx context.Context, a domain.AgentAssignment) (int64, error)
}

// ContactRepository defines persistence for case contacts.
type ContactRepository interface {
	Create(ctx context.Context, c *domain.CaseContact) error
	ListByListingCase(ctx context.Context, listingCaseID int64) ([]domain.CaseContact, error)
}

// MediaAssetRepository defines persistence for media assets.
type MediaAssetRepository interface {
	// Create inserts the asset and sets its store-assigned ID.
	Create(ctx context.Context, a *domain.MediaAsset) error

	// GetByID returns a non-deleted asset together with its parent case
	// owner and agent assignments. Missing yields apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.MediaAsset, error)

	// ListByListingCase returns non-deleted assets ordered by media type,
	// then id.
	ListByListingCase(ctx context.Context, listingCaseID int64) ([]domain.MediaAsset, error)

	Delete(ctx context.Context, id int64) (int64, error)

	// SetSelection marks selectIDs selected and unselectIDs unselected,
	// touching only assets of the given case.
	SetSelection(ctx context.Context, listingCaseID int64, selectIDs, unselectIDs []int64) (int64, error)

	// ClearHero demotes the current hero of the case, if any.
	ClearHero(ctx context.Context, listingCaseID int64) (int64, error)

	// MarkHero promotes one asset of the case to hero.
	MarkHero(ctx context.Context, id, listingCaseID int64) (int64, error)
}

// Transactor runs fn in one store transaction. Repository calls made with
// the ctx passed to fn join it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
