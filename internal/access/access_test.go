package access

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeTable(t *testing.T) {
	admin := &Identity{ID: "a1", Role: RoleAdmin}
	lecturer := &Identity{ID: "l1", Role: RoleLecturer}
	student := &Identity{ID: "s1", Role: RoleStudent}
	unknown := &Identity{ID: "x1", Role: "janitor"}
	blank := &Identity{ID: "b1"}

	cases := []struct {
		name    string
		id      *Identity
		tier    Tier
		outcome Outcome
		message string
	}{
		{"admin passes admin", admin, TierAdmin, Allow, ""},
		{"admin passes lecturer", admin, TierLecturer, Allow, ""},
		{"lecturer denied admin", lecturer, TierAdmin, DenyForbidden, "Admin privileges required"},
		{"lecturer passes lecturer", lecturer, TierLecturer, Allow, ""},
		{"student denied admin", student, TierAdmin, DenyForbidden, "Admin privileges required"},
		{"student denied lecturer", student, TierLecturer, DenyForbidden, "Lecturer privileges required"},
		{"student passes student", student, TierStudent, Allow, ""},
		{"admin denied student", admin, TierStudent, DenyForbidden, "Student privileges required"},
		{"unknown role denied", unknown, TierLecturer, DenyForbidden, "Lecturer privileges required"},
		{"missing role denied", blank, TierAdmin, DenyForbidden, "Admin privileges required"},
		{"no identity admin", nil, TierAdmin, DenyUnauthenticated, MessageAuthenticationRequired},
		{"no identity lecturer", nil, TierLecturer, DenyUnauthenticated, MessageAuthenticationRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Authorize(tc.id, tc.tier)
			assert.Equal(t, tc.outcome, d.Outcome)
			assert.Equal(t, tc.message, d.Message)
		})
	}
}

func TestAuthenticatedAcceptsPresenceOnly(t *testing.T) {
	assert.True(t, Authenticated(&Identity{}).Allowed())
	d := Authenticated(nil)
	assert.Equal(t, http.StatusUnauthorized, d.Status())
}

func TestUnknownTierAcceptsNobody(t *testing.T) {
	d := Authorize(&Identity{ID: "a", Role: RoleAdmin}, Tier("dean"))
	assert.Equal(t, DenyForbidden, d.Outcome)
}

func TestParseRequirement(t *testing.T) {
	for in, want := range map[string]string{
		"public":        "public",
		"authenticated": "authenticated",
		" Admin ":       "admin",
		"lecturer":      "lecturer",
		"student":       "student",
	} {
		req, err := ParseRequirement(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, req.String())
	}
	_, err := ParseRequirement("superuser")
	assert.Error(t, err)

	var req Requirement
	require.NoError(t, req.UnmarshalText([]byte("lecturer")))
	assert.True(t, req.Evaluate(&Identity{Role: RoleAdmin}).Allowed())
}

func TestZeroRequirementIsPublic(t *testing.T) {
	var req Requirement
	assert.True(t, req.Evaluate(nil).Allowed())
}

func TestIdentityFromContextReturnsCopy(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{ID: "u1", Role: RoleStudent})
	id := IdentityFromContext(ctx)
	require.NotNil(t, id)
	id.Role = RoleAdmin

	again := IdentityFromContext(ctx)
	assert.Equal(t, RoleStudent, again.Role)
	assert.Nil(t, IdentityFromContext(context.Background()))
}

type gateResult struct {
	code    int
	called  int
	success any
	message any
}

func runGate(t *testing.T, mw func(http.Handler) http.Handler, id *Identity, method string) gateResult {
	t.Helper()
	var called int
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(method, "/api/anything", nil)
	if id != nil {
		req = req.WithContext(WithIdentity(req.Context(), *id))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	res := gateResult{code: rr.Code, called: called}
	if rr.Code != http.StatusNoContent {
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.NotContains(t, body, "data")
		res.success = body["success"]
		res.message = body["message"]
	}
	return res
}

func TestMiddlewareUnauthenticatedAlways401(t *testing.T) {
	gates := map[string]func(http.Handler) http.Handler{
		"authenticated": RequireAuthenticated,
		"admin":         RequireAdmin,
		"lecturer":      RequireLecturer,
		"student":       RequireRole(TierStudent),
	}
	for name, gate := range gates {
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete} {
			res := runGate(t, gate, nil, method)
			assert.Equal(t, http.StatusUnauthorized, res.code, name+" "+method)
			assert.Equal(t, false, res.success)
			assert.Equal(t, MessageAuthenticationRequired, res.message)
			assert.Zero(t, res.called)
		}
	}
}

func TestMiddlewareAdminSatisfiesEveryStaffTier(t *testing.T) {
	admin := &Identity{ID: "a", Role: RoleAdmin}
	assert.Equal(t, 1, runGate(t, RequireAdmin, admin, http.MethodGet).called)
	assert.Equal(t, 1, runGate(t, RequireLecturer, admin, http.MethodGet).called)
}

func TestMiddlewareLecturer(t *testing.T) {
	lecturer := &Identity{ID: "l", Role: RoleLecturer}
	res := runGate(t, RequireAdmin, lecturer, http.MethodGet)
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "Admin privileges required", res.message)
	assert.Equal(t, 1, runGate(t, RequireLecturer, lecturer, http.MethodGet).called)
}

func TestMiddlewareStudentDeniedStaffTiers(t *testing.T) {
	student := &Identity{ID: "s", Role: RoleStudent}
	for _, gate := range []func(http.Handler) http.Handler{RequireAdmin, RequireLecturer} {
		res := runGate(t, gate, student, http.MethodGet)
		assert.Equal(t, http.StatusForbidden, res.code)
		assert.Zero(t, res.called)
	}
}

func TestComposedGatesShortCircuit(t *testing.T) {
	composed := func(next http.Handler) http.Handler {
		return RequireAuthenticated(RequireLecturer(RequireAdmin(next)))
	}
	res := runGate(t, composed, &Identity{ID: "s", Role: RoleStudent}, http.MethodGet)
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "Lecturer privileges required", res.message)

	res = runGate(t, composed, nil, http.MethodGet)
	assert.Equal(t, http.StatusUnauthorized, res.code)
}
