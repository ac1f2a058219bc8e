// Package policy decides whether a principal may act on a listing case or a
// media asset. Decisions are pure functions of the principal and an ownership
// view built by the caller; loading and not-found handling happen elsewhere.
package policy

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
)

// Role is the closed set of account roles the policy understands.
type Role string

const (
	RoleAgent              Role = "Agent"
	RolePhotographyCompany Role = "PhotographyCompany"
)

// ParseRole maps a claim value to a Role. Unknown values yield ok=false and
// are always denied.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAgent, RolePhotographyCompany:
		return Role(s), true
	default:
		return "", false
	}
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}

// Authenticated reports whether both identity fields are present.
func (p Principal) Authenticated() bool {
	return p.UserID != "" && p.Role != ""
}

// Decision is the outcome of an access check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// OwnershipView is what the policy reads about a resource. For a media
// asset OwnerUserID is the uploader and AssignedAgentIDs are the parent
// case's assignments.
type OwnershipView struct {
	ResourceID       int64
	OwnerUserID      string
	AssignedAgentIDs []string
}

var deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recam_access_denied_total",
	Help: "Access checks that returned deny, by resource and role.",
}, []string{"resource", "role"})

// Check applies the ownership rule: a photography company must own the
// resource, an agent must be assigned to it. Anything else is denied.
func Check(p Principal, v OwnershipView) Decision {
	if !p.Authenticated() {
		return Deny
	}
	switch p.Role {
	case RolePhotographyCompany:
		return Decision(v.OwnerUserID == p.UserID)
	case RoleAgent:
		return Decision(slices.Contains(v.AssignedAgentIDs, p.UserID))
	default:
		return Deny
	}
}

// ListingCaseView builds the ownership view of a listing case.
func ListingCaseView(lc *domain.ListingCase) OwnershipView {
	return OwnershipView{
		ResourceID:       lc.ID,
		OwnerUserID:      lc.UserID,
		AssignedAgentIDs: lc.AgentIDs,
	}
}

// MediaAssetView builds the ownership view of a media asset. The asset must
// have been loaded with its parent case.
func MediaAssetView(a *domain.MediaAsset) OwnershipView {
	v := OwnershipView{ResourceID: a.ID, OwnerUserID: a.UserID}
	if a.ListingCase != nil {
		v.AssignedAgentIDs = a.ListingCase.AgentIDs
	}
	return v
}

// CanAccessListingCase checks p against a loaded listing case.
func CanAccessListingCase(p Principal, lc *domain.ListingCase) Decision {
	return record("listing_case", p, Check(p, ListingCaseView(lc)))
}

// CanAccessMediaAsset checks p against a media asset loaded with its case.
func CanAccessMediaAsset(p Principal, a *domain.MediaAsset) Decision {
	return record("media_asset", p, Check(p, MediaAssetView(a)))
}

func record(resource string, p Principal, d Decision) Decision {
	if d == Deny {
		role := string(p.Role)
		if role == "" {
			role = "none"
		}
		deniedTotal.WithLabelValues(resource, role).Inc()
	}
	return d
}
