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

// listingCaseColumns is the SELECT list for listing cases, assignments included.
const listingCaseColumns = `lc.id, lc.title, lc.description, lc.street, lc.city, lc.state,
	lc.postcode, lc.longitude, lc.latitude, lc.price, lc.bedrooms, lc.bathrooms,
	lc.garages, lc.floor_area, lc.property_type, lc.sale_category,
	lc.listing_case_status, lc.created_at, lc.is_deleted, lc.user_id,
	ARRAY(SELECT ala.agent_id FROM agent_listing_cases ala
		WHERE ala.listing_case_id = lc.id ORDER BY ala.agent_id) AS agent_ids`

// ListingCaseRepository implements repository.ListingCaseRepository using PostgreSQL.
type ListingCaseRepository struct {
	pool database.DBTX
}

// NewListingCaseRepository creates a new PostgreSQL-backed listing case repository.
func NewListingCaseRepository(pool database.DBTX) *ListingCaseRepository {
	return &ListingCaseRepository{pool: pool}
}

// Create inserts a listing case and stores the generated id on lc.
func (r *ListingCaseRepository) Create(ctx context.Context, lc *domain.ListingCase) (err error) {
	query := `
		INSERT INTO listing_cases (title, description, street, city, state, postcode,
			longitude, latitude, price, bedrooms, bathrooms, garages, floor_area,
			property_type, sale_category, listing_case_status, created_at, is_deleted, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateListingCase", query)
	defer func() { end(err) }()

	err = database.Conn(ctx, r.pool).QueryRow(ctx, query,
		lc.Title,
		lc.Description,
		lc.Street,
		lc.City,
		lc.State,
		lc.Postcode,
		lc.Longitude,
		lc.Latitude,
		lc.Price,
		lc.Bedrooms,
		lc.Bathrooms,
		lc.Garages,
		lc.FloorArea,
		int16(lc.PropertyType),
		int16(lc.SaleCategory),
		int16(lc.Status),
		lc.CreatedAt,
		lc.IsDeleted,
		lc.UserID,
	).Scan(&lc.ID)
	if err != nil {
		return fmt.Errorf("insert listing case: %w", err)
	}
	return nil
}

// GetByID retrieves a live listing case with its agent assignments.
func (r *ListingCaseRepository) GetByID(ctx context.Context, id int64) (_ *domain.ListingCase, err error) {
	query := fmt.Sprintf(`SELECT %s FROM listing_cases lc WHERE lc.id = $1 AND NOT lc.is_deleted`, listingCaseColumns)

	ctx, end := database.TraceQuery(ctx, "GetListingCase", query)
	defer func() { end(err) }()

	lc, err := scanListingCase(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get listing case %d: %w", id, err)
	}
	return lc, nil
}

// ListByOwner returns a page of a company's live listing cases, newest first.
func (r *ListingCaseRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ListingCase, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM listing_cases lc
		WHERE lc.user_id = $1 AND NOT lc.is_deleted
		ORDER BY lc.created_at DESC, lc.id DESC
		LIMIT $2 OFFSET $3`, listingCaseColumns)

	return r.list(ctx, "ListListingCasesByOwner", query, ownerID, limit, offset)
}

// ListByAgent returns a page of the live listing cases an agent is assigned to.
func (r *ListingCaseRepository) ListByAgent(ctx context.Context, agentID string, offset, limit int) ([]domain.ListingCase, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM listing_cases lc
		WHERE NOT lc.is_deleted AND EXISTS (
			SELECT 1 FROM agent_listing_cases a
			WHERE a.listing_case_id = lc.id AND a.agent_id = $1)
		ORDER BY lc.created_at DESC, lc.id DESC
		LIMIT $2 OFFSET $3`, listingCaseColumns)

	return r.list(ctx, "ListListingCasesByAgent", query, agentID, limit, offset)
}

func (r *ListingCaseRepository) list(ctx context.Context, op, query string, args ...any) (_ []domain.ListingCase, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list listing cases: %w", err)
	}
	defer rows.Close()

	var (
		cases      []domain.ListingCase
		totalCount int
	)
	for rows.Next() {
		lc, err := scanListingCase(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing case row: %w", err)
		}
		cases = append(cases, *lc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listing case rows: %w", err)
	}

	if cases == nil {
		cases = []domain.ListingCase{}
	}
	return cases, totalCount, nil
}

// Update overwrites the mutable attributes of a live listing case.
func (r *ListingCaseRepository) Update(ctx context.Context, lc *domain.ListingCase) (_ int64, err error) {
	query := `
		UPDATE listing_cases
		SET title = $1, description = $2, street = $3, city = $4, state = $5,
			postcode = $6, longitude = $7, latitude = $8, price = $9, bedrooms = $10,
			bathrooms = $11, garages = $12, floor_area = $13, property_type = $14,
			sale_category = $15, listing_case_status = $16
		WHERE id = $17 AND NOT is_deleted`

	ctx, end := database.TraceQuery(ctx, "UpdateListingCase", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		lc.Title,
		lc.Description,
		lc.Street,
		lc.City,
		lc.State,
		lc.Postcode,
		lc.Longitude,
		lc.Latitude,
		lc.Price,
		lc.Bedrooms,
		lc.Bathrooms,
		lc.Garages,
		lc.FloorArea,
		int16(lc.PropertyType),
		int16(lc.SaleCategory),
		int16(lc.Status),
		lc.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update listing case %d: %w", lc.ID, err)
	}
	return ct.RowsAffected(), nil
}

// UpdateStatus sets the status of a live listing case.
func (r *ListingCaseRepository) UpdateStatus(ctx context.Context, id int64, status domain.ListingCaseStatus) (_ int64, err error) {
	query := `UPDATE listing_cases SET listing_case_status = $1 WHERE id = $2 AND NOT is_deleted`

	ctx, end := database.TraceQuery(ctx, "UpdateListingCaseStatus", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, int16(status), id)
	if err != nil {
		return 0, fmt.Errorf("update listing case %d status: %w", id, err)
	}
	return ct.RowsAffected(), nil
}

// SoftDelete flags a live listing case as deleted.
func (r *ListingCaseRepository) SoftDelete(ctx context.Context, id int64) (_ int64, err error) {
	query := `UPDATE listing_cases SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`

	ctx, end := database.TraceQuery(ctx, "DeleteListingCase", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete listing case %d: %w", id, err)
	}
	return ct.RowsAffected(), nil
}

// scanListingCase reads one row selected with listingCaseColumns. Extra
// destinations are appended after the agent ids.
func scanListingCase(row pgx.Row, extra ...any) (*domain.ListingCase, error) {
	var (
		lc                             domain.ListingCase
		propertyType, category, status int16
	)

	dest := []any{
		&lc.ID,
		&lc.Title,
		&lc.Description,
		&lc.Street,
		&lc.City,
		&lc.State,
		&lc.Postcode,
		&lc.Longitude,
		&lc.Latitude,
		&lc.Price,
		&lc.Bedrooms,
		&lc.Bathrooms,
		&lc.Garages,
		&lc.FloorArea,
		&propertyType,
		&category,
		&status,
		&lc.CreatedAt,
		&lc.IsDeleted,
		&lc.UserID,
		&lc.AgentIDs,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	lc.PropertyType = domain.PropertyType(propertyType)
	lc.SaleCategory = domain.SaleCategory(category)
	lc.Status = domain.ListingCaseStatus(status)
	if lc.AgentIDs == nil {
		lc.AgentIDs = []string{}
	}
	return &lc, nil
}
