package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
	"github.com/CindyCUI423/Recam-sub000/internal/repository"
	apperrors "github.com/CindyCUI423/Recam-sub000/pkg/errors"
)

// ListingCaseService implements the listing case lifecycle.
type ListingCaseService struct {
	cases       repository.ListingCaseRepository
	assignments repository.AssignmentRepository
	contacts    repository.ContactRepository
	recorder    *history.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewListingCaseService creates a new listing case service.
func NewListingCaseService(
	cases repository.ListingCaseRepository,
	assignments repository.AssignmentRepository,
	contacts repository.ContactRepository,
	recorder *history.Recorder,
	logger *slog.Logger,
) *ListingCaseService {
	return &ListingCaseService{
		cases:       cases,
		assignments: assignments,
		contacts:    contacts,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// StatusChange reports the outcome of ChangeStatus.
type StatusChange struct {
	ListingCaseID int64                    `json:"listing_case_id"`
	OldStatus     domain.ListingCaseStatus `json:"old_status"`
	NewStatus     domain.ListingCaseStatus `json:"new_status"`
}

// Create persists a new listing case owned by the calling photography company.
func (s *ListingCaseService) Create(ctx context.Context, p policy.Principal, attrs domain.ListingCase) (*domain.ListingCase, error) {
	if !p.Authenticated() || p.Role != policy.RolePhotographyCompany {
		return nil, apperrors.Forbidden("Only photography companies can create listing cases.")
	}

	if !attrs.PropertyType.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid property type %d", attrs.PropertyType))
	}

	lc := domain.NewListingCase(attrs, p.UserID, s.now())
	if err := s.cases.Create(ctx, lc); err != nil {
		return nil, fmt.Errorf("create listing case: %w", err)
	}
	lc.AgentIDs = []string{}

	s.logger.InfoContext(ctx, "listing case created",
		slog.Int64("listing_case_id", lc.ID),
		slog.String("user_id", p.UserID),
	)

	s.recordCase(ctx, p, lc.ID, domain.CaseChangeCreation, "")
	return lc, nil
}

// Get returns one listing case the caller may access.
func (s *ListingCaseService) Get(ctx context.Context, p policy.Principal, id int64) (*domain.ListingCase, error) {
	return authorizeListingCase(ctx, s.cases, p, id)
}

// List returns the caller's listing cases: owned ones for a photography
// company, assigned ones for an agent.
func (s *ListingCaseService) List(ctx context.Context, p policy.Principal, offset, limit int) ([]domain.ListingCase, int, error) {
	if !p.Authenticated() {
		return nil, 0, apperrors.Unauthorized("authentication required")
	}

	var (
		cases []domain.ListingCase
		total int
		err   error
	)
	switch p.Role {
	case policy.RolePhotographyCompany:
		cases, total, err = s.cases.ListByOwner(ctx, p.UserID, offset, limit)
	case policy.RoleAgent:
		cases, total, err = s.cases.ListByAgent(ctx, p.UserID, offset, limit)
	default:
		return nil, 0, apperrors.Forbidden(msgForbiddenListingCase)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list listing cases: %w", err)
	}
	return cases, total, nil
}

// Update overwrites the mutable attributes of a listing case.
func (s *ListingCaseService) Update(ctx context.Context, p policy.Principal, id int64, upd domain.ListingCaseUpdate) (*domain.ListingCase, error) {
	if err := upd.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	lc, err := authorizeListingCase(ctx, s.cases, p, id)
	if err != nil {
		return nil, err
	}

	upd.Apply(lc)
	n, err := s.cases.Update(ctx, lc)
	if err != nil {
		return nil, fmt.Errorf("update listing case: %w", err)
	}
	if n == 0 {
		return nil, apperrors.Fatal(msgUpdateListingCaseFailed)
	}

	s.logger.InfoContext(ctx, "listing case updated", slog.Int64("listing_case_id", id))

	s.recordCase(ctx, p, id, domain.CaseChangeUpdate, "")
	return lc, nil
}

// ChangeStatus moves a listing case to any defined status.
func (s *ListingCaseService) ChangeStatus(ctx context.Context, p policy.Principal, id int64, status domain.ListingCaseStatus) (*StatusChange, error) {
	if !status.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid listing case status %d", status))
	}

	lc, err := authorizeListingCase(ctx, s.cases, p, id)
	if err != nil {
		return nil, err
	}

	change := &StatusChange{ListingCaseID: id, OldStatus: lc.Status, NewStatus: status}
	n, err := s.cases.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("change listing case status: %w", err)
	}
	if n == 0 {
		return nil, apperrors.Fatal(msgChangeStatusFailed)
	}

	s.logger.InfoContext(ctx, "listing case status changed",
		slog.Int64("listing_case_id", id),
		slog.String("old_status", change.OldStatus.String()),
		slog.String("new_status", change.NewStatus.String()),
	)

	s.recordCase(ctx, p, id, domain.CaseChangeStatus, domain.StatusChangeDescription(change.OldStatus, change.NewStatus))
	return change, nil
}

// Delete soft-deletes a listing case.
func (s *ListingCaseService) Delete(ctx context.Context, p policy.Principal, id int64) error {
	if _, err := authorizeListingCase(ctx, s.cases, p, id); err != nil {
		return err
	}

	n, err := s.cases.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete listing case: %w", err)
	}
	if n == 0 {
		return apperrors.Fatal(msgDeleteListingCaseFailed)
	}

	s.logger.InfoContext(ctx, "listing case deleted", slog.Int64("listing_case_id", id))

	s.recordCase(ctx, p, id, domain.CaseChangeDeletion, "")
	return nil
}

// AssignAgent grants an agent that works with the owning company access to
// a listing case.
func (s *ListingCaseService) AssignAgent(ctx context.Context, p policy.Principal, id int64, agentID string) error {
	if _, err := s.authorizeOwner(ctx, p, id); err != nil {
		return err
	}

	ok, err := s.assignments.IsAgentOfCompany(ctx, agentID, p.UserID)
	if err != nil {
		return fmt.Errorf("check agent: %w", err)
	}
	if !ok {
		return apperrors.InvalidInput("The agent is not associated with this photography company.")
	}

	if err := s.assignments.Assign(ctx, domain.AgentAssignment{AgentID: agentID, ListingCaseID: id}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "agent assigned",
		slog.Int64("listing_case_id", id),
		slog.String("agent_id", agentID),
	)

	s.recordCase(ctx, p, id, domain.CaseChangeAgentAssigned, agentID)
	return nil
}

// UnassignAgent revokes an agent's access to a listing case.
func (s *ListingCaseService) UnassignAgent(ctx context.Context, p policy.Principal, id int64, agentID string) error {
	if _, err := s.authorizeOwner(ctx, p, id); err != nil {
		return err
	}

	n, err := s.assignments.Unassign(ctx, domain.AgentAssignment{AgentID: agentID, ListingCaseID: id})
	if err != nil {
		return fmt.Errorf("unassign agent: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("agent assignment", agentID)
	}

	s.logger.InfoContext(ctx, "agent unassigned",
		slog.Int64("listing_case_id", id),
		slog.String("agent_id", agentID),
	)

	s.recordCase(ctx, p, id, domain.CaseChangeAgentUnassigned, agentID)
	return nil
}

// AddContact attaches a contact person to a listing case.
func (s *ListingCaseService) AddContact(ctx context.Context, p policy.Principal, id int64, c domain.CaseContact) (*domain.CaseContact, error) {
	if _, err := authorizeListingCase(ctx, s.cases, p, id); err != nil {
		return nil, err
	}

	c.ID = 0
	c.ListingCaseID = id
	if err := s.contacts.Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("add case contact: %w", err)
	}

	s.recordCase(ctx, p, id, domain.CaseChangeContactAdded, strconv.FormatInt(c.ID, 10))
	return &c, nil
}

// ListContacts returns the contacts of a listing case.
func (s *ListingCaseService) ListContacts(ctx context.Context, p policy.Principal, id int64) ([]domain.CaseContact, error) {
	if _, err := authorizeListingCase(ctx, s.cases, p, id); err != nil {
		return nil, err
	}

	contacts, err := s.contacts.ListByListingCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list case contacts: %w", err)
	}
	return contacts, nil
}

// authorizeOwner passes only the photography company that owns the case.
func (s *ListingCaseService) authorizeOwner(ctx context.Context, p policy.Principal, id int64) (*domain.ListingCase, error) {
	lc, err := authorizeListingCase(ctx, s.cases, p, id)
	if err != nil {
		return nil, err
	}
	if p.Role != policy.RolePhotographyCompany {
		return nil, apperrors.Forbidden("Only the owning photography company can manage agents.")
	}
	return lc, nil
}

func (s *ListingCaseService) recordCase(ctx context.Context, p policy.Principal, id int64, change, description string) {
	s.recorder.Record(ctx, domain.CaseHistory{
		ListingCaseID: id,
		Change:        change,
		Description:   description,
		UserID:        p.UserID,
		OccurredAt:    s.now().UTC(),
	})
}
