package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/CindyCUI423/Recam-sub000/internal/domain"
	"github.com/CindyCUI423/Recam-sub000/internal/history"
	"github.com/CindyCUI423/Recam-sub000/internal/policy"
	"github.com/CindyCUI423/Recam-sub000/pkg/middleware"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ActivityLog appends one UserActivityLog per mutating request made by an
// authenticated user. It must run after Auth.
func ActivityLog(recorder *history.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			userID := middleware.UserIDFromContext(r.Context())
			if userID == "" {
				return
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.Record(r.Context(), domain.UserActivityLog{
				UserID:     userID,
				Method:     r.Method,
				Route:      route,
				Status:     status,
				OccurredAt: time.Now().UTC(),
			})
		})
	}
}

// principalFrom builds the caller's principal from the claims the auth
// middleware stored. Unknown roles are kept as-is and denied by the policy.
func principalFrom(r *http.Request) policy.Principal {
	return policy.Principal{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   policy.Role(middleware.RoleFromContext(r.Context())),
	}
}
