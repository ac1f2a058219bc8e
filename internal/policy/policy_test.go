package policy

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
)

func company(id string) Principal { return Principal{UserID: id, Role: RolePhotographyCompany} }
func agent(id string) Principal   { return Principal{UserID: id, Role: RoleAgent} }

// ============================================================================
// Listing case rules
// ============================================================================

func TestCheck_ListingCase(t *testing.T) {
	lc := &domain.ListingCase{ID: 1, UserID: "P1", AgentIDs: []string{"A1"}}

	tests := []struct {
		name      string
		principal Principal
		want      Decision
	}{
		{"owner company", company("P1"), Allow},
		{"other company", company("P2"), Deny},
		{"assigned agent", agent("A1"), Allow},
		{"unassigned agent", agent("A2"), Deny},
		{"agent with owner id", agent("P1"), Deny},
		{"company with assigned agent id", company("A1"), Deny},
		{"unknown role", Principal{UserID: "P1", Role: Role("Admin")}, Deny},
		{"missing user id", Principal{Role: RolePhotographyCompany}, Deny},
		{"missing role", Principal{UserID: "P1"}, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessListingCase(tt.principal, lc))
		})
	}
}

func TestCheck_NoAssignmentsDeniesEveryAgent(t *testing.T) {
	lc := &domain.ListingCase{ID: 1, UserID: "P1"}
	for _, id := range []string{"A1", "A2", "P1", ""} {
		assert.Equal(t, Deny, CanAccessListingCase(agent(id), lc), id)
	}
}

func TestCheck_ExactlyOneCompanyAllowed(t *testing.T) {
	lc := &domain.ListingCase{ID: 1, UserID: "P1", AgentIDs: []string{"A1"}}
	allowed := 0
	for _, id := range []string{"P1", "P2", "P3", "A1"} {
		if CanAccessListingCase(company(id), lc) == Allow {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

// ============================================================================
// Media asset rules
// ============================================================================

func TestCheck_MediaAsset(t *testing.T) {
	asset := &domain.MediaAsset{
		ID:            10,
		UserID:        "P1",
		ListingCaseID: 1,
		ListingCase:   &domain.ListingCase{ID: 1, UserID: "P1", AgentIDs: []string{"A1"}},
	}

	assert.Equal(t, Allow, CanAccessMediaAsset(company("P1"), asset))
	assert.Equal(t, Deny, CanAccessMediaAsset(company("P2"), asset))
	assert.Equal(t, Allow, CanAccessMediaAsset(agent("A1"), asset))
	assert.Equal(t, Deny, CanAccessMediaAsset(agent("A9"), asset))
}

func TestCheck_MediaAssetUsesUploaderNotCaseOwner(t *testing.T) {
	asset := &domain.MediaAsset{
		ID:          10,
		UserID:      "uploader",
		ListingCase: &domain.ListingCase{ID: 1, UserID: "P1"},
	}

	assert.Equal(t, Allow, CanAccessMediaAsset(company("uploader"), asset))
	assert.Equal(t, Deny, CanAccessMediaAsset(company("P1"), asset))
}

func TestCheck_MediaAssetWithoutParentDeniesAgents(t *testing.T) {
	asset := &domain.MediaAsset{ID: 10, UserID: "P1"}
	assert.Equal(t, Deny, CanAccessMediaAsset(agent("A1"), asset))
}

// ============================================================================
// Helpers
// ============================================================================

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("Agent")
	assert.True(t, ok)
	assert.Equal(t, RoleAgent, r)

	r, ok = ParseRole("PhotographyCompany")
	assert.True(t, ok)
	assert.Equal(t, RolePhotographyCompany, r)

	_, ok = ParseRole("agent")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestDeniedCounter(t *testing.T) {
	lc := &domain.ListingCase{ID: 1, UserID: "P1"}
	before := testutil.ToFloat64(deniedTotal.WithLabelValues("listing_case", "Agent"))

	CanAccessListingCase(agent("A1"), lc)
	CanAccessListingCase(company("P1"), lc)

	after := testutil.ToFloat64(deniedTotal.WithLabelValues("listing_case", "Agent"))
	assert.Equal(t, before+1, after)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
