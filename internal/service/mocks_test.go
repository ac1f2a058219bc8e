package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
)

// --- Mock Repositories ---

type mockListingCaseRepository struct {
	mock.Mock
}

func (m *mockListingCaseRepository) Create(ctx context.Context, lc *domain.ListingCase) error {
	args := m.Called(ctx, lc)
	return args.Error(0)
}

func (m *mockListingCaseRepository) GetByID(ctx context.Context, id int64) (*domain.ListingCase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so a service mutating its result cannot leak into
	// later expectations.
	lc := *args.Get(0).(*domain.ListingCase)
	return &lc, args.Error(1)
}

func (m *mockListingCaseRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ListingCase, int, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	return args.Get(0).([]domain.ListingCase), args.Int(1), args.Error(2)
}

func (m *mockListingCaseRepository) ListByAgent(ctx context.Context, agentID string, offset, limit int) ([]domain.ListingCase, int, error) {
	args := m.Called(ctx, agentID, offset, limit)
	return args.Get(0).([]domain.ListingCase), args.Int(1), args.Error(2)
}

func (m *mockListingCaseRepository) Update(ctx context.Context, lc *domain.ListingCase) (int64, error) {
	args := m.Called(ctx, lc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockListingCaseRepository) UpdateStatus(ctx context.Context, id int64, status domain.ListingCaseStatus) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockListingCaseRepository) SoftDelete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type mockAssignmentRepository struct {
	mock.Mock
}

func (m *mockAssignmentRepository) IsAgentOfCompany(ctx context.Context, agentID, companyID string) (bool, error) {
	args := m.Called(ctx, agentID, companyID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAssignmentRepository) Assign(ctx context.Context, a domain.AgentAssignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAssignmentRepository) Unassign(ctx context.Context, a domain.AgentAssignment) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

type mockContactRepository struct {
	mock.Mock
}

func (m *mockContactRepository) Create(ctx context.Context, c *domain.CaseContact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockContactRepository) ListByListingCase(ctx context.Context, listingCaseID int64) ([]domain.CaseContact, error) {
	args := m.Called(ctx, listingCaseID)
	return args.Get(0).([]domain.CaseContact), args.Error(1)
}

type mockMediaAssetRepository struct {
	mock.Mock
}

func (m *mockMediaAssetRepository) Create(ctx context.Context, a *domain.MediaAsset) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockMediaAssetRepository) GetByID(ctx context.Context, id int64) (*domain.MediaAsset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	a := *args.Get(0).(*domain.MediaAsset)
	return &a, args.Error(1)
}

func (m *mockMediaAssetRepository) ListByListingCase(ctx context.Context, listingCaseID int64) ([]domain.MediaAsset, error) {
	args := m.Called(ctx, listingCaseID)
	return args.Get(0).([]domain.MediaAsset), args.Error(1)
}

func (m *mockMediaAssetRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMediaAssetRepository) SetSelection(ctx context.Context, listingCaseID int64, selectIDs, unselectIDs []int64) (int64, error) {
	args := m.Called(ctx, listingCaseID, selectIDs, unselectIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMediaAssetRepository) ClearHero(ctx context.Context, listingCaseID int64) (int64, error) {
	args := m.Called(ctx, listingCaseID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMediaAssetRepository) MarkHero(ctx context.Context, id, listingCaseID int64) (int64, error) {
	args := m.Called(ctx, id, listingCaseID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Transactor ---

// fakeTx runs fn directly and counts how often it was used and how often
// fn failed, which is what a rollback would have been.
type fakeTx struct {
	calls     int
	rollbacks int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if err := fn(ctx); err != nil {
		t.rollbacks++
		return err
	}
	return nil
}

// --- History Sink ---

// recordingSink keeps every appended record and optionally fails.
type recordingSink struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
	err     error
}

func (s *recordingSink) Append(_ context.Context, rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func (s *recordingSink) all() []domain.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistoryRecord(nil), s.records...)
}

var errSinkDown = errors.New("history store unavailable")

// --- Test Helpers ---

var fixedNow = time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRecorder(sink *recordingSink) *history.Recorder {
	return history.NewRecorder(sink, newTestLogger())
}

func companyPrincipal(id string) policy.Principal {
	return policy.Principal{UserID: id, Role: policy.RolePhotographyCompany}
}

func agentPrincipal(id string) policy.Principal {
	return policy.Principal{UserID: id, Role: policy.RoleAgent}
}

// existingCase is listing case 1 owned by pc1 with agent a1 assigned.
func existingCase() *domain.ListingCase {
	return &domain.ListingCase{
		ID:           1,
		Title:        "Unit 4B",
		Street:       "1 King St",
		City:         "Sydney",
		State:        "NSW",
		Postcode:     2000,
		PropertyType: domain.PropertyTypeUnit,
		SaleCategory: domain.SaleCategoryForSale,
		Status:       domain.ListingCaseStatusCreated,
		CreatedAt:    fixedNow.Add(-24 * time.Hour),
		UserID:       "pc1",
		AgentIDs:     []string{"a1"},
	}
}
