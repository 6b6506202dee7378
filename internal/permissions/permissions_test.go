package permissions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/permissions"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
	"github.com/smart-attendance/attendance/jobs"
	_ "github.com/smart-attendance/attendance/testing"
)

type memoryRepo struct {
	mu      sync.Mutex
	items   map[string]permissions.Request
	txCalls int
}

func newMemoryRepo(items ...permissions.Request) *memoryRepo {
	repo := &memoryRepo{items: make(map[string]permissions.Request)}
	for _, it := range items {
		repo.items[it.ID] = it
	}
	return repo
}

func (m *memoryRepo) List(_ context.Context, f permissions.Filter) ([]permissions.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]permissions.Request, 0)
	for _, it := range m.items {
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		if f.StudentID != "" && it.StudentID != f.StudentID {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (*permissions.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, permissions.ErrNotFound
	}
	return &it, nil
}

func (m *memoryRepo) Create(_ context.Context, in permissions.CreateInput) (*permissions.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := permissions.Request{
		ID: uuid.NewString(), StudentID: in.StudentID, Type: in.Type, Reason: in.Reason,
		StartDate: in.StartDate, EndDate: in.EndDate, Status: permissions.StatusPending,
	}
	m.items[it.ID] = it
	return &it, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, permissions.TxRepository) error) error {
	m.mu.Lock()
	m.txCalls++
	snapshot := make(map[string]permissions.Request, len(m.items))
	for k, v := range m.items {
		snapshot[k] = v
	}
	m.mu.Unlock()
	if err := fn(ctx, memoryTx{m}); err != nil {
		m.mu.Lock()
		m.items = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

type memoryTx struct{ m *memoryRepo }

func (t memoryTx) GetForUpdate(ctx context.Context, id string) (*permissions.Request, error) {
	return t.m.Get(ctx, id)
}

func (t memoryTx) Get(ctx context.Context, id string) (*permissions.Request, error) {
	return t.m.Get(ctx, id)
}

func (t memoryTx) ApplyReview(_ context.Context, id string, r permissions.Review) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	it, ok := t.m.items[id]
	if !ok {
		return permissions.ErrNotFound
	}
	it.Status = r.Status
	reviewer := r.ReviewerID
	at := r.ReviewedAt
	it.ReviewedBy = &reviewer
	it.ReviewedAt = &at
	t.m.items[id] = it
	return nil
}

type recordingPublisher struct {
	payloads []jobs.PermissionDecidedPayload
	err      error
}

func (p *recordingPublisher) EnqueuePermissionDecided(_ context.Context, payload jobs.PermissionDecidedPayload) error {
	p.payloads = append(p.payloads, payload)
	return p.err
}

var (
	adminID    = uuid.NewString()
	lecturerID = uuid.NewString()
	studentA   = uuid.NewString()
	studentB   = uuid.NewString()
	requestA   = uuid.NewString()
	requestB   = uuid.NewString()
)

func seed() []permissions.Request {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return []permissions.Request{
		{ID: requestA, StudentID: studentA, StudentName: "Ayu", Type: permissions.TypeSick, Reason: "flu", StartDate: day, EndDate: day, Status: permissions.StatusPending},
		{ID: requestB, StudentID: studentB, StudentName: "Budi", Type: permissions.TypeLeave, Reason: "family", StartDate: day, EndDate: day.AddDate(0, 0, 1), Status: permissions.StatusApproved},
	}
}

// identityFromHeader stands in for the token provider.
func identityFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, role := r.Header.Get("X-Test-User"), r.Header.Get("X-Test-Role")
		if id != "" {
			r = r.WithContext(access.WithIdentity(r.Context(), access.Identity{ID: id, Role: access.Role(role)}))
		}
		next.ServeHTTP(w, r)
	})
}

type harness struct {
	router    http.Handler
	repo      *memoryRepo
	publisher *recordingPublisher
}

func newHarness(t *testing.T, rules permissions.Rules) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemoryRepo(seed()...)
	publisher := &recordingPublisher{}
	svc := permissions.NewService(repo, publisher, logger)
	responder := httpx.NewResponder(logger, false)

	r := chi.NewRouter()
	r.Use(identityFromHeader)
	permissions.NewHandler(logger, svc, responder, rules).MountRoutes(r)
	return &harness{router: r, repo: repo, publisher: publisher}
}

func (h *harness) do(t *testing.T, method, path, userID string, role access.Role, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
		req.Header.Set("X-Test-Role", string(role))
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestApproveValidRequest(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	code, env := h.do(t, http.MethodPatch, "/permissions/"+requestA+"/status", adminID, access.RoleAdmin,
		map[string]string{"status": "approved", "admin_id": adminID})

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env["success"])
	data := env["data"].(map[string]any)
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, adminID, data["reviewed_by"])
	assert.NotEmpty(t, data["reviewed_at"])

	require.Len(t, h.publisher.payloads, 1)
	assert.Equal(t, jobs.PermissionDecidedPayload{PermissionID: requestA, StudentID: studentA, Status: "approved", ReviewerID: adminID}, h.publisher.payloads[0])
}

func TestApproveWithoutAdminID(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	code, env := h.do(t, http.MethodPatch, "/permissions/"+requestA+"/status", adminID, access.RoleAdmin,
		map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "rejected", env["data"].(map[string]any)["status"])
}

func TestUpdateStatusUnknownID(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		code, env := h.do(t, http.MethodPatch, "/permissions/"+id+"/status", adminID, access.RoleAdmin,
			map[string]string{"status": "approved"})
		assert.Equal(t, http.StatusNotFound, code, id)
		assert.Equal(t, false, env["success"])
		assert.Equal(t, "Permission request not found", env["message"])
		assert.NotContains(t, env, "data")
	}
	assert.Empty(t, h.publisher.payloads)
}

func TestUpdateStatusRejectsInvalidStatus(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	for _, status := range []string{"pending", "maybe", ""} {
		code, env := h.do(t, http.MethodPatch, "/permissions/"+requestA+"/status", adminID, access.RoleAdmin,
			map[string]string{"status": status})
		assert.Equal(t, http.StatusBadRequest, code, status)
		assert.Equal(t, false, env["success"])
	}
	item, err := h.repo.Get(context.Background(), requestA)
	require.NoError(t, err)
	assert.Equal(t, permissions.StatusPending, item.Status)
	assert.Zero(t, h.repo.txCalls)
}

func TestUpdateStatusAdminMismatch(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	code, env := h.do(t, http.MethodPatch, "/permissions/"+requestA+"/status", adminID, access.RoleAdmin,
		map[string]string{"status": "approved", "admin_id": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "admin_id does not match the authenticated user", env["message"])
}

func TestUpdateStatusGate(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	path := "/permissions/" + requestA + "/status"
	body := map[string]string{"status": "approved"}

	code, env := h.do(t, http.MethodPatch, path, "", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Authentication required", env["message"])

	for _, tc := range []struct {
		id   string
		role access.Role
	}{{lecturerID, access.RoleLecturer}, {studentA, access.RoleStudent}, {adminID, "janitor"}} {
		code, env = h.do(t, http.MethodPatch, path, tc.id, tc.role, body)
		assert.Equal(t, http.StatusForbidden, code, tc.role)
		assert.Equal(t, "Admin privileges required", env["message"])
	}
	assert.Zero(t, h.repo.txCalls)
}

func TestPublisherFailureDoesNotFailReview(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	h.publisher.err = errors.New("redis down")
	code, _ := h.do(t, http.MethodPatch, "/permissions/"+requestA+"/status", adminID, access.RoleAdmin,
		map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusOK, code)
}

func TestListFiltersByStatus(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())

	code, env := h.do(t, http.MethodGet, "/permissions?status=all", adminID, access.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, listed(t, env), 2)

	code, env = h.do(t, http.MethodGet, "/permissions?status=approved", lecturerID, access.RoleLecturer, nil)
	require.Equal(t, http.StatusOK, code)
	items := listed(t, env)
	require.Len(t, items, 1)
	assert.Equal(t, requestB, items[0].(map[string]any)["id"])

	code, env = h.do(t, http.MethodGet, "/permissions?status=bogus", adminID, access.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, env["success"])
}

func TestListEmptyIsArray(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	code, env := h.do(t, http.MethodGet, "/permissions?status=rejected", adminID, access.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, listed(t, env))
}

func TestStudentsSeeOnlyTheirOwn(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())

	code, env := h.do(t, http.MethodGet, "/permissions", studentA, access.RoleStudent, nil)
	require.Equal(t, http.StatusOK, code)
	items := listed(t, env)
	require.Len(t, items, 1)
	assert.Equal(t, requestA, items[0].(map[string]any)["id"])

	code, _ = h.do(t, http.MethodGet, "/permissions/"+requestB, studentA, access.RoleStudent, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(t, http.MethodGet, "/permissions/"+requestA, studentA, access.RoleStudent, nil)
	assert.Equal(t, http.StatusOK, code)
}

// listed returns data.permissions from a list envelope.
func listed(t *testing.T, env map[string]any) []any {
	t.Helper()
	data, ok := env["data"].(map[string]any)
	require.True(t, ok, "data is %T", env["data"])
	items, ok := data["permissions"].([]any)
	require.True(t, ok, "permissions is %T", data["permissions"])
	return items
}

func TestListTierIsConfigurable(t *testing.T) {
	rules := permissions.DefaultRules()
	rules.List = access.RequireTier(access.TierLecturer)
	h := newHarness(t, rules)

	code, env := h.do(t, http.MethodGet, "/permissions", studentA, access.RoleStudent, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Lecturer privileges required", env["message"])

	code, _ = h.do(t, http.MethodGet, "/permissions", lecturerID, access.RoleLecturer, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDetail(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())

	code, env := h.do(t, http.MethodGet, "/permissions/"+requestA, adminID, access.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ayu", env["data"].(map[string]any)["student_name"])

	code, env = h.do(t, http.MethodGet, "/permissions/"+uuid.NewString(), adminID, access.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Permission request not found", env["message"])

	code, _ = h.do(t, http.MethodGet, "/permissions/"+requestA, "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreate(t *testing.T) {
	h := newHarness(t, permissions.DefaultRules())
	body := map[string]string{"type": "sick", "reason": "fever", "start_date": "2024-05-01", "end_date": "2024-05-02"}

	code, env := h.do(t, http.MethodPost, "/permissions", studentB, access.RoleStudent, body)
	require.Equal(t, http.StatusCreated, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, studentB, data["student_id"])

	code, _ = h.do(t, http.MethodPost, "/permissions", adminID, access.RoleAdmin, body)
	assert.Equal(t, http.StatusForbidden, code)

	body["end_date"] = "2024-04-30"
	code, env = h.do(t, http.MethodPost, "/permissions", studentB, access.RoleStudent, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "end_date must not be before start_date", env["message"])

	code, _ = h.do(t, http.MethodPost, "/permissions", studentB, access.RoleStudent, map[string]string{"type": "vacation"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestParseStatusFilter(t *testing.T) {
	for raw, want := range map[string]permissions.Status{"": "", "all": "", "pending": permissions.StatusPending, "approved": permissions.StatusApproved, "rejected": permissions.StatusRejected} {
		got, err := permissions.ParseStatusFilter(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := permissions.ParseStatusFilter("APPROVED")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
