package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHandleMapsKnownErrors(t *testing.T) {
	rs := NewResponder(nil, false)
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{NotFound("Permission request not found"), http.StatusNotFound, "Permission request not found"},
		{Validation("status is invalid"), http.StatusBadRequest, "status is invalid"},
		{Conflict("already recorded"), http.StatusConflict, "already recorded"},
		{Forbidden("nope"), http.StatusForbidden, "nope"},
		{Unauthenticated("Authentication required"), http.StatusUnauthorized, "Authentication required"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
		rs.Handle(func(w http.ResponseWriter, r *http.Request) error { return tc.err })(rr, req)

		assert.Equal(t, tc.status, rr.Code)
		body := decodeEnvelope(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, tc.msg, body["message"])
		assert.NotContains(t, body, "data")
		assert.NotContains(t, body, "error")
	}
}

func TestInternalErrorDetailOnlyInDevelopment(t *testing.T) {
	failing := func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("db: connection refused")
	}

	rr := httptest.NewRecorder()
	NewResponder(nil, false).Handle(failing)(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, MessageInternal, body["message"])
	assert.NotContains(t, body, "error")

	rr = httptest.NewRecorder()
	NewResponder(nil, true).Handle(failing)(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	body = decodeEnvelope(t, rr)
	assert.Equal(t, "db: connection refused", body["error"])
}

func TestHandleDoesNotWriteTwice(t *testing.T) {
	rs := NewResponder(nil, true)
	rr := httptest.NewRecorder()
	rs.Handle(func(w http.ResponseWriter, r *http.Request) error {
		OK(w, http.StatusOK, "", map[string]int{"n": 1})
		return errors.New("late failure")
	})(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, strings.Count(rr.Body.String(), "success"))
}

func TestRecovererProducesEnvelope(t *testing.T) {
	rs := NewResponder(nil, false)
	h := rs.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, MessageInternal, body["message"])
	assert.NotContains(t, body, "error")
}

func TestNotFoundEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponder(nil, false).NotFound(rr, httptest.NewRequest(http.MethodDelete, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, rr.Body.String())
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Status string `json:"status"`
	}
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"approved","extra":1}`))
	err := DecodeJSON(req, &target)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"approved"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "approved", target.Status)
}

func TestTimeoutAnswersStalledHandler(t *testing.T) {
	rs := NewResponder(nil, false)
	stalled := rs.Timeout(10 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rr := httptest.NewRecorder()
	stalled.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	require.Equal(t, http.StatusGatewayTimeout, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, MessageTimeout, body["message"])
}

func TestTimeoutWritesOneEnvelopeForDeadlineErrors(t *testing.T) {
	rs := NewResponder(nil, true)
	handler := rs.Timeout(10 * time.Millisecond)(rs.Handle(func(_ http.ResponseWriter, r *http.Request) error {
		<-r.Context().Done()
		return fmt.Errorf("query: %w", r.Context().Err())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	require.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Equal(t, `{"success":false,"message":"Request timed out"}`+"\n", rr.Body.String())
}

func TestTimeoutLeavesFastHandlersAlone(t *testing.T) {
	rs := NewResponder(nil, false)
	handler := rs.Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		OK(w, http.StatusOK, "done", nil)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "done", decodeEnvelope(t, rr)["message"])
}
