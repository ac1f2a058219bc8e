package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CindyCUI423/Recam-sub000/pkg/httputil"
	"github.com/CindyCUI423/Recam-sub000/pkg/logger"
)

const agentUserID = "0b9a1c4e-6d2f-4a5b-9c3d-1e2f3a4b5c6d"

func stubValidator(token string) (*Claims, error) {
	switch token {
	case "agent-token":
		return &Claims{UserID: agentUserID, Email: "agent@recam.test", Role: "Agent"}, nil
	case "company-token":
		return &Claims{UserID: "company-1", Role: "PhotographyCompany"}, nil
	default:
		return nil, errors.New("bad token")
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestAuth_RejectsBadHeaders(t *testing.T) {
	h := Auth(stubValidator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic agent-token",
		"no token":      "Bearer",
		"blank token":   "Bearer   ",
		"invalid token": "Bearer forged",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestAuth_StoresClaims(t *testing.T) {
	var seen *Claims
	var logUser string
	h := Auth(stubValidator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		logUser = logger.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("Authorization", "bearer agent-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, agentUserID, seen.UserID)
	assert.Equal(t, "Agent", seen.Role)
	assert.Equal(t, agentUserID, logUser)
}

func TestContextAccessors_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, ClaimsFromContext(req.Context()))
	assert.Empty(t, UserIDFromContext(req.Context()))
	assert.Empty(t, RoleFromContext(req.Context()))
}

func TestRequireRole(t *testing.T) {
	h := Auth(stubValidator)(RequireRole("PhotographyCompany")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	))

	tests := []struct {
		token string
		want  int
	}{
		{"company-token", http.StatusCreated},
		{"agent-token", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tt.want, rec.Code, tt.token)
		if tt.want == http.StatusForbidden {
			assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
		}
	}
}

func TestCacheControl_OnlyOnGet(t *testing.T) {
	h := CacheControl("private, no-store")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))
	assert.Equal(t, "private, no-store", get.Header().Get("Cache-Control"))

	post := httptest.NewRecorder()
	h.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil))
	assert.Empty(t, post.Header().Get("Cache-Control"))
}
