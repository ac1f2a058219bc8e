package postgres

import (
	"context"
	"fmt"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
)

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	pool database.DBTX
}

// NewContactRepository creates a new PostgreSQL-backed case contact repository.
func NewContactRepository(pool database.DBTX) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create inserts a case contact and stores the generated id on c.
func (r *ContactRepository) Create(ctx context.Context, c *domain.CaseContact) (err error) {
	query := `
		INSERT INTO case_contacts (listing_case_id, first_name, last_name, company_name,
			phone_number, email, profile_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateCaseContact", query)
	defer func() { end(err) }()

	err = database.Conn(ctx, r.pool).QueryRow(ctx, query,
		c.ListingCaseID,
		c.FirstName,
		c.LastName,
		c.CompanyName,
		c.PhoneNumber,
		c.Email,
		c.ProfileURL,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert case contact: %w", err)
	}
	return nil
}

// ListByListingCase returns the contacts of a listing case in insertion order.
func (r *ContactRepository) ListByListingCase(ctx context.Context, listingCaseID int64) (_ []domain.CaseContact, err error) {
	query := `
		SELECT id, listing_case_id, first_name, last_name, company_name,
			phone_number, email, profile_url
		FROM case_contacts
		WHERE listing_case_id = $1
		ORDER BY id`

	ctx, end := database.TraceQuery(ctx, "ListCaseContacts", query)
	defer func() { end(err) }()

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, listingCaseID)
	if err != nil {
		return nil, fmt.Errorf("list case contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.CaseContact{}
	for rows.Next() {
		var c domain.CaseContact
		if err := rows.Scan(
			&c.ID,
			&c.ListingCaseID,
			&c.FirstName,
			&c.LastName,
			&c.CompanyName,
			&c.PhoneNumber,
			&c.Email,
			&c.ProfileURL,
		); err != nil {
			return nil, fmt.Errorf("scan case contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case contact rows: %w", err)
	}
	return contacts, nil
}
