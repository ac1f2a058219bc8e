package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CindyCUI423/Recam-sub000/internal/auth"
	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
	"github.com/CindyCUI423/Recam-sub000/internal/repository"
	"github.com/CindyCUI423/Recam-sub000/internal/service"
	"github.com/CindyCUI423/Recam-sub000/pkg/health"
	"github.com/CindyCUI423/Recam-sub000/pkg/httputil"
	"github.com/CindyCUI423/Recam-sub000/pkg/middleware"
)

// Ensure interfaces are satisfied at compile time.
var (
	_ repository.ListingCaseRepository = (*mockListingCaseRepository)(nil)
	_ repository.AssignmentRepository  = (*mockAssignmentRepository)(nil)
	_ repository.ContactRepository     = (*mockContactRepository)(nil)
	_ repository.MediaAssetRepository  = (*mockMediaAssetRepository)(nil)
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

// --- Test Doubles ---

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingSink struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
}

func (s *recordingSink) Append(_ context.Context, rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) activity() []domain.UserActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserActivityLog
	for _, rec := range s.records {
		if l, ok := rec.(domain.UserActivityLog); ok {
			out = append(out, l)
		}
	}
	return out
}

// --- Test Helpers ---

const (
	testSecret = "test-secret-key-for-jwt-signing"
	companyID  = "8f1f2a52-5f0e-4b8e-9d7a-1c2b3d4e5f60"
	otherCoID  = "0b7e6a14-2c3d-4e5f-8a9b-0c1d2e3f4a5b"
	agentID    = "3c9d5e7f-1a2b-4c3d-9e8f-7a6b5c4d3e2f"
	strangerID = "6e5d4c3b-2a19-4f8e-8d7c-6b5a49382716"
)

type testServer struct {
	handler     http.Handler
	jwt         *auth.JWTManager
	cases       *mockListingCaseRepository
	assignments *mockAssignmentRepository
	contacts    *mockContactRepository
	media       *mockMediaAssetRepository
	sink        *recordingSink
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		jwt:         auth.NewJWTManager(testSecret, time.Hour),
		cases:       new(mockListingCaseRepository),
		assignments: new(mockAssignmentRepository),
		contacts:    new(mockContactRepository),
		media:       new(mockMediaAssetRepository),
		sink:        &recordingSink{},
	}
	logger := testLogger()
	recorder := history.NewRecorder(ts.sink, logger)

	listingCases := service.NewListingCaseService(ts.cases, ts.assignments, ts.contacts, recorder, logger)
	mediaAssets := service.NewMediaAssetService(ts.cases, ts.media, passthroughTx{}, recorder, logger)

	ts.handler = NewRouter(
		RouterConfig{CORS: middleware.DefaultCORSConfig()},
		listingCases,
		mediaAssets,
		recorder,
		ts.jwt.Validator(),
		health.NewHandler(),
		logger,
	)
	return ts
}

func (ts *testServer) token(t *testing.T, userID string, role policy.Role) string {
	t.Helper()
	tok, err := ts.jwt.GenerateAccessToken(userID, "", role)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request as the holder of token. An empty token sends no
// Authorization header.
func (ts *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	contentType := ""
	if body != "" {
		contentType = "application/json"
	}
	return ts.doRaw(t, method, path, token, contentType, body)
}

func (ts *testServer) doRaw(t *testing.T, method, path, token, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) asCompany(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	return ts.do(t, method, path, ts.token(t, companyID, policy.RolePhotographyCompany), body)
}

func (ts *testServer) asAgent(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	return ts.do(t, method, path, ts.token(t, agentID, policy.RoleAgent), body)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	return resp.Error
}

// jsonField returns the raw JSON of one top-level field of the body.
func jsonField(t *testing.T, rec *httptest.ResponseRecorder, field string) string {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	raw, ok := body[field]
	require.True(t, ok, "missing field %q", field)
	return string(raw)
}

// sampleCase is listing case 1 owned by companyID with agentID assigned.
func sampleCase() *domain.ListingCase {
	return &domain.ListingCase{
		ID:           1,
		Title:        "3 bed house in Carlton",
		Street:       "12 Lygon St",
		City:         "Melbourne",
		State:        "VIC",
		Postcode:     3053,
		Bedrooms:     3,
		Bathrooms:    2,
		PropertyType: domain.PropertyTypeHouse,
		SaleCategory: domain.SaleCategoryForSale,
		Status:       domain.ListingCaseStatusCreated,
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UserID:       companyID,
		AgentIDs:     []string{agentID},
	}
}

// sampleAsset is photo 10 of case 1 uploaded by companyID.
func sampleAsset() *domain.MediaAsset {
	return &domain.MediaAsset{
		ID:            10,
		MediaType:     domain.MediaTypePhoto,
		MediaURL:      "https://cdn.recam.test/10.jpg",
		UploadedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ListingCaseID: 1,
		UserID:        companyID,
		ListingCase:   sampleCase(),
	}
}
