package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
	"github.com/CindyCUI423/Recam-sub000/internal/repository"
	apperrors "github.com/CindyCUI423/Recam-sub000/pkg/errors"
)

// Messages returned to clients. They are part of the API contract.
const (
	msgInvalidListingCaseID = "Unable to find the resource. Please provide a valid listing case id."
	msgInvalidMediaAssetID  = "Unable to find the resource. Please provide a valid media asset id."
	msgForbiddenListingCase = "You do not have permission to access this listing case."
	msgForbiddenMediaAsset  = "You do not have permission to access this media asset."

	msgUpdateListingCaseFailed = "Failed to update listing case."
	msgChangeStatusFailed      = "Failed to change listing case status."
	msgDeleteListingCaseFailed = "Failed to delete listing case."
	msgDeleteMediaAssetFailed  = "Failed to delete media asset."
	msgSetHeroFailed           = "Failed to set hero media asset."
)

// authorizeListingCase loads a live listing case and checks p against it.
// A missing case is reported before any access decision is made.
func authorizeListingCase(ctx context.Context, cases repository.ListingCaseRepository, p policy.Principal, id int64) (*domain.ListingCase, error) {
	lc, err := cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidID(msgInvalidListingCaseID)
		}
		return nil, fmt.Errorf("load listing case %d: %w", id, err)
	}

	if policy.CanAccessListingCase(p, lc) == policy.Deny {
		return nil, apperrors.Forbidden(msgForbiddenListingCase)
	}
	return lc, nil
}

// authorizeMediaAsset loads a live media asset with its parent case and
// checks p against the asset.
func authorizeMediaAsset(ctx context.Context, media repository.MediaAssetRepository, p policy.Principal, id int64) (*domain.MediaAsset, error) {
	a, err := media.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidID(msgInvalidMediaAssetID)
		}
		return nil, fmt.Errorf("load media asset %d: %w", id, err)
	}

	if policy.CanAccessMediaAsset(p, a) == policy.Deny {
		return nil, apperrors.Forbidden(msgForbiddenMediaAsset)
	}
	return a, nil
}
