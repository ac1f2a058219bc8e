package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/pkg/database"
	apperrors "github.com/CindyCUI423/Recam-sub000/pkg/errors"
)

// AssignmentRepository implements repository.AssignmentRepository using PostgreSQL.
type AssignmentRepository struct {
	pool database.DBTX
}

// NewAssignmentRepository creates a new PostgreSQL-backed assignment repository.
func NewAssignmentRepository(pool database.DBTX) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// IsAgentOfCompany reports whether an agent is linked to a photography company.
func (r *AssignmentRepository) IsAgentOfCompany(ctx context.Context, agentID, companyID string) (_ bool, err error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM agent_photography_companies
		WHERE agent_id = $1 AND photography_company_id = $2)`

	ctx, end := database.TraceQuery(ctx, "IsAgentOfCompany", query)
	defer func() { end(err) }()

	var exists bool
	if err = database.Conn(ctx, r.pool).QueryRow(ctx, query, agentID, companyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check agent company link: %w", err)
	}
	return exists, nil
}

// Assign links an agent to a listing case.
func (r *AssignmentRepository) Assign(ctx context.Context, a domain.AgentAssignment) (err error) {
	query := `INSERT INTO agent_listing_cases (agent_id, listing_case_id) VALUES ($1, $2)`

	ctx, end := database.TraceQuery(ctx, "AssignAgent", query)
	defer func() { end(err) }()

	if _, err = database.Conn(ctx, r.pool).Exec(ctx, query, a.AgentID, a.ListingCaseID); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("agent assignment", "listing case", strconv.FormatInt(a.ListingCaseID, 10))
		}
		return fmt.Errorf("insert agent assignment: %w", err)
	}
	return nil
}

// Unassign removes an agent's link to a listing case.
func (r *AssignmentRepository) Unassign(ctx context.Context, a domain.AgentAssignment) (_ int64, err error) {
	query := `DELETE FROM agent_listing_cases WHERE agent_id = $1 AND listing_case_id = $2`

	ctx, end := database.TraceQuery(ctx, "UnassignAgent", query)
	defer func() { end(err) }()

	ct, err := database.Conn(ctx, r.pool).Exec(ctx, query, a.AgentID, a.ListingCaseID)
	if err != nil {
		return 0, fmt.Errorf("delete agent assignment: %w", err)
	}
	return ct.RowsAffected(), nil
}
