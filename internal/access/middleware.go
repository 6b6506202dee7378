package access

import (
	"net/http"

	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Require guards next behind req. Denials are answered here and never reach
// the central error responder.
func Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := req.Evaluate(IdentityFromContext(r.Context()))
			if !d.Allowed() {
				httpx.Fail(w, d.Status(), d.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated rejects requests without an identity with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return Require(AnyAuthenticated)(next)
}

// RequireRole rejects requests whose identity is outside tier.
func RequireRole(tier Tier) func(http.Handler) http.Handler {
	return Require(RequireTier(tier))
}

// RequireAdmin admits admins only.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(TierAdmin)(next)
}

// RequireLecturer admits lecturers and admins.
func RequireLecturer(next http.Handler) http.Handler {
	return RequireRole(TierLecturer)(next)
}
