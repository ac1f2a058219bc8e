package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
	apperrors "github.com/CindyCUI423/Recam-sub000/pkg/errors"
)

const mediaAssetColumns = `m.id, m.media_type, m.media_url, m.uploaded_at, m.is_select,
	m.is_hero, m.listing_case_id, m.user_id, m.is_deleted`

// MediaAssetRepository implements repository.MediaAssetRepository using PostgreSQL.
type MediaAssetRepository struct {
	pool database.DBTX
}

// NewMediaAssetRepository creates a new PostgreSQL-backed media asset repository.
func NewMediaAssetRepository(pool database.DBTX) *MediaAssetRepository {
	return &MediaAssetRepository{pool: pool}
}

// Create inserts a media asset and stores the generated id on a.
func (r *MediaAssetRepository) Create(ctx context.Context, a *domain.MediaAsset) (err error) {
	query := `
		INSERT INTO media_assets (media_type, media_url, uploaded_at, is_select, is_hero,
			listing_case_id, user_id, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateMediaAsset", query)
	defer func() { end(err) }()

	err = database.Conn(ctx, r.pool).QueryRow(ctx, query,
		int16(a.MediaType),
		a.MediaURL,
		a.UploadedAt,
		a.IsSelect,
		a.IsHero,
		a.ListingCaseID,
		a.UserID,
		a.IsDeleted,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("listing case already has a hero media asset")
		}
		return fmt.Errorf("insert media asset: %w", err)
	}
	return nil
}

// GetByID retrieves a live media asset with its parent case owner and
// agent assignments.
func (r *MediaAssetRepository) GetByID(ctx context.Context, id int64) (_ *domain.MediaAsset, err error) {
	query := fmt.Sprintf(`
		SELECT %s, lc.user_id,
			ARRAY(SELECT ala.agent_id FROM agent_listing_cases ala
				WHERE ala.listing_case_id = lc.id ORDER BY ala.agent_id) AS agent_ids
		FROM media_assets m
		JOIN listing_cases lc ON lc.id = m.listing_case_id
		WHERE m.id = $1 AND NOT m.is_deleted AND NOT lc.is_deleted`, mediaAssetColumns)

	ctx, end := database.TraceQuery(ctx, "GetMediaAsset", query)
	defer func() { end(err) }()

	parent := &domain.ListingCase{}
	a, err := scanMediaAsset(database.Conn(ctx, r.pool).QueryRow(ctx, query, id), &parent.UserID, &parent.AgentIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get media asset %d: %w", id, err)
	}

	parent.ID = a.ListingCaseID
	if parent.AgentIDs == nil {
		parent.AgentIDs = []string{}
	}
	a.ListingCase = parent
	return a, nil
}

// ListByListingCase returns the live assets of a case ordered by media type, then id.
func (r *MediaAssetRepository) ListByListingCase(ctx context.Context, listingCaseID int64) (_ []domain.MediaAsset, err error) {
	query := fmt.Sprintf(`
		SELECT %s FROM media_assets m
		WHERE m.listing_case_id = $1 AND NOT m.is_deleted
		ORDER BY m.media_type, m.id`, mediaAssetColumns)

	ctx, end := database.TraceQuery(ctx, "ListMediaAssets", query)
	defer func() { end(err) }()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, listingCaseID)
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.MediaAsset{}
	for rows.Next() {
		a, err := scanMediaAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media asset row: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media asset rows: %w", err)
	}
	return assets, nil
}

// Delete physically removes a media asset.
func (r *MediaAssetRepository) Delete(ctx context.Context, id int64) (_ int64, err error) {
	query := `DELETE FROM media_assets WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteMediaAsset", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete media asset %d: %w", id, err)
	}
	return ct.RowsAffected(), nil
}

// SetSelection flips is_select for the given ids in one statement.
func (r *MediaAssetRepository) SetSelection(ctx context.Context, listingCaseID int64, selectIDs, unselectIDs []int64) (_ int64, err error) {
	query := `
		UPDATE media_assets
		SET is_select = (id = ANY($2))
		WHERE listing_case_id = $1 AND NOT is_deleted
			AND (id = ANY($2) OR id = ANY($3))`

	ctx, end := database.TraceQuery(ctx, "SetMediaAssetSelection", query)
	defer func() { end(err) }()

	if selectIDs == nil {
		selectIDs = []int64{}
	}
	if unselectIDs == nil {
		unselectIDs = []int64{}
	}

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, listingCaseID, selectIDs, unselectIDs)
	if err != nil {
		return 0, fmt.Errorf("update media asset selection: %w", err)
	}
	return ct.RowsAffected(), nil
}

// ClearHero demotes whichever live asset of the case is currently hero.
func (r *MediaAssetRepository) ClearHero(ctx context.Context, listingCaseID int64) (_ int64, err error) {
	query := `UPDATE media_assets SET is_hero = FALSE WHERE listing_case_id = $1 AND is_hero AND NOT is_deleted`

	ctx, end := database.TraceQuery(ctx, "ClearHeroMediaAsset", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, listingCaseID)
	if err != nil {
		return 0, fmt.Errorf("clear hero media asset: %w", err)
	}
	return ct.RowsAffected(), nil
}

// MarkHero promotes one live asset of the case to hero.
func (r *MediaAssetRepository) MarkHero(ctx context.Context, id, listingCaseID int64) (_ int64, err error) {
	query := `UPDATE media_assets SET is_hero = TRUE WHERE id = $1 AND listing_case_id = $2 AND NOT is_deleted`

	ctx, end := database.TraceQuery(ctx, "MarkHeroMediaAsset", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, listingCaseID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.Conflict("listing case already has a hero media asset")
		}
		return 0, fmt.Errorf("mark hero media asset %d: %w", id, err)
	}
	return ct.RowsAffected(), nil
}

func scanMediaAsset(row pgx.Row, extra ...any) (*domain.MediaAsset, error) {
	var (
		a         domain.MediaAsset
		mediaType int16
	)

	dest := []any{
		&a.ID,
		&mediaType,
		&a.MediaURL,
		&a.UploadedAt,
		&a.IsSelect,
		&a.IsHero,
		&a.ListingCaseID,
		&a.UserID,
		&a.IsDeleted,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	a.MediaType = domain.MediaType(mediaType)
	return &a, nil
}
