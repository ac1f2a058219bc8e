package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
	"github.com/CindyCUI423/Recam-sub000/internal/repository"
	apperrors "github.com/CindyCUI423/Recam-sub000/pkg/errors"
)

// MediaAssetService curates the media of a listing case.
type MediaAssetService struct {
	cases    repository.ListingCaseRepository
	media    repository.MediaAssetRepository
	tx       repository.Transactor
	recorder *history.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewMediaAssetService creates a new media asset service.
func NewMediaAssetService(
	cases repository.ListingCaseRepository,
	media repository.MediaAssetRepository,
	tx repository.Transactor,
	recorder *history.Recorder,
	logger *slog.Logger,
) *MediaAssetService {
	return &MediaAssetService{
		cases:    cases,
		media:    media,
		tx:       tx,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateMediaInput describes one upload request. Only photos may carry more
// than one URL, and a hero upload carries exactly one.
type CreateMediaInput struct {
	ListingCaseID int64
	MediaType     domain.MediaType
	URLs          []string
	IsHero        bool
}

func (in CreateMediaInput) validate() error {
	switch {
	case !in.MediaType.IsValid():
		return apperrors.InvalidInput(fmt.Sprintf("invalid media type %d", in.MediaType))
	case len(in.URLs) == 0:
		return apperrors.InvalidInput("at least one media url is required")
	case len(in.URLs) > 1 && !in.MediaType.AllowsBatch():
		return apperrors.InvalidInput(fmt.Sprintf("only photos may be uploaded in batches, got %d %s urls", len(in.URLs), in.MediaType))
	case len(in.URLs) > 1 && in.IsHero:
		return apperrors.InvalidInput("a hero upload must contain exactly one url")
	}
	return nil
}

// Create stores one or more media assets for a listing case. When the upload
// is a hero, the current hero is demoted first in the same transaction.
func (s *MediaAssetService) Create(ctx context.Context, p policy.Principal, in CreateMediaInput) ([]domain.MediaAsset, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	lc, err := authorizeListingCase(ctx, s.cases, p, in.ListingCaseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created := make([]domain.MediaAsset, 0, len(in.URLs))

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if in.IsHero {
			if _, err := s.media.ClearHero(ctx, lc.ID); err != nil {
				return fmt.Errorf("demote hero: %w", err)
			}
		}
		for _, url := range in.URLs {
			a := domain.NewMediaAsset(lc.ID, in.MediaType, url, p.UserID, in.IsHero, now)
			if err := s.media.Create(ctx, a); err != nil {
				return fmt.Errorf("create media asset: %w", err)
			}
			created = append(created, *a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "media assets created",
		slog.Int64("listing_case_id", lc.ID),
		slog.String("media_type", in.MediaType.String()),
		slog.Int("count", len(created)),
		slog.Bool("is_hero", in.IsHero),
	)

	recs := make([]domain.HistoryRecord, 0, len(created))
	for _, a := range created {
		recs = append(recs, s.mediaRecord(p, &a, domain.MediaChangeCreation))
	}
	s.recorder.Record(ctx, recs...)

	return created, nil
}

// Delete removes a media asset permanently.
func (s *MediaAssetService) Delete(ctx context.Context, p policy.Principal, id int64) error {
	a, err := authorizeMediaAsset(ctx, s.media, p, id)
	if err != nil {
		return err
	}

	n, err := s.media.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete media asset: %w", err)
	}
	if n == 0 {
		return apperrors.Fatal(msgDeleteMediaAssetFailed)
	}

	s.logger.InfoContext(ctx, "media asset deleted",
		slog.Int64("media_asset_id", id),
		slog.Int64("listing_case_id", a.ListingCaseID),
	)

	s.recorder.Record(ctx, s.mediaRecord(p, a, domain.MediaChangeDeletion))
	return nil
}

// ListByListingCase returns the live assets of a listing case ordered by
// media type, then id.
func (s *MediaAssetService) ListByListingCase(ctx context.Context, p policy.Principal, listingCaseID int64) ([]domain.MediaAsset, error) {
	if _, err := authorizeListingCase(ctx, s.cases, p, listingCaseID); err != nil {
		return nil, err
	}

	assets, err := s.media.ListByListingCase(ctx, listingCaseID)
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}
	return assets, nil
}

// SetSelection marks assets of a listing case selected or unselected. The id
// sets are disjoint and every id must belong to the case; otherwise nothing
// changes.
func (s *MediaAssetService) SetSelection(ctx context.Context, p policy.Principal, listingCaseID int64, selectIDs, unselectIDs []int64) error {
	if len(selectIDs)+len(unselectIDs) == 0 {
		return apperrors.InvalidInput("at least one media asset id is required")
	}

	if _, err := authorizeListingCase(ctx, s.cases, p, listingCaseID); err != nil {
		return err
	}

	want := int64(len(selectIDs) + len(unselectIDs))
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.media.SetSelection(ctx, listingCaseID, selectIDs, unselectIDs)
		if err != nil {
			return fmt.Errorf("update media selection: %w", err)
		}
		if n != want {
			return apperrors.InvalidInput("One or more media assets do not belong to this listing case.")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "media selection updated",
		slog.Int64("listing_case_id", listingCaseID),
		slog.Int("selected", len(selectIDs)),
		slog.Int("unselected", len(unselectIDs)),
	)
	return nil
}

// SetHero makes one asset the hero of its listing case, demoting the
// previous hero in the same transaction.
func (s *MediaAssetService) SetHero(ctx context.Context, p policy.Principal, id int64) (*domain.MediaAsset, error) {
	a, err := authorizeMediaAsset(ctx, s.media, p, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.media.ClearHero(ctx, a.ListingCaseID); err != nil {
			return fmt.Errorf("demote hero: %w", err)
		}
		n, err := s.media.MarkHero(ctx, id, a.ListingCaseID)
		if err != nil {
			return fmt.Errorf("promote hero: %w", err)
		}
		if n == 0 {
			return apperrors.Fatal(msgSetHeroFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.IsHero = true

	s.logger.InfoContext(ctx, "hero media asset set",
		slog.Int64("media_asset_id", id),
		slog.Int64("listing_case_id", a.ListingCaseID),
	)

	s.recorder.Record(ctx, s.mediaRecord(p, a, domain.MediaChangeHero))
	return a, nil
}

func (s *MediaAssetService) mediaRecord(p policy.Principal, a *domain.MediaAsset, change string) domain.MediaAssetHistory {
	return domain.MediaAssetHistory{
		MediaAssetID:  a.ID,
		ListingCaseID: a.ListingCaseID,
		Change:        change,
		MediaType:     a.MediaType,
		UserID:        p.UserID,
		OccurredAt:    s.now().UTC(),
	}
}
