package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, resp *http.Response) (string, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env struct {
		Status  string         `json:"status"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &env))
	return env.Status, env.Data
}

func loginAs(t *testing.T, s *Server, username, password string) (string, string) {
	t.Helper()
	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status, data := decodeEnvelope(t, resp)
	require.Equal(t, "SUCCESS", status)
	access, _ := data["token"].(string)
	refresh, _ := data["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

func TestLoginIssuesTokenPairWithUser(t *testing.T) {
	s := New(Config{}, nil)
	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "admin123",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, []any{"ROLE_ADMIN"}, user["roles"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := New(Config{}, nil)
	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	status, _ := decodeEnvelope(t, resp)
	assert.Equal(t, "ERROR", status)
}

func TestProtectedRouteRequiresBearer(t *testing.T) {
	s := New(Config{}, nil)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/courses/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	access, _ := loginAs(t, s, "teacher", "teach123")
	req := httptest.NewRequest(http.MethodGet, "/api/courses/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCourseCreationEnforcesAdminRole(t *testing.T) {
	s := New(Config{}, nil)

	teacherTok, _ := loginAs(t, s, "teacher", "teach123")
	req := jsonRequest(t, http.MethodPost, "/api/courses/", map[string]any{"name": "Go 101"})
	req.Header.Set("Authorization", "Bearer "+teacherTok)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminTok, _ := loginAs(t, s, "admin", "admin123")
	req = jsonRequest(t, http.MethodPost, "/api/courses/", map[string]any{"name": "Go 101"})
	req.Header.Set("Authorization", "Bearer "+adminTok)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, data := decodeEnvelope(t, resp)
	assert.EqualValues(t, 1, data["id"])
}

func TestSuperAdminBypassesRoleChecks(t *testing.T) {
	s := New(Config{}, nil)
	rootTok, _ := loginAs(t, s, "root", "root123")
	req := jsonRequest(t, http.MethodPost, "/api/courses/", map[string]any{"name": "Go 101"})
	req.Header.Set("Authorization", "Bearer "+rootTok)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshRotatesPair(t *testing.T) {
	s := New(Config{}, nil)
	access, refresh := loginAs(t, s, "admin", "admin123")

	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": refresh,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, data := decodeEnvelope(t, resp)
	newAccess, _ := data["token"].(string)
	require.NotEmpty(t, newAccess)
	assert.NotEmpty(t, data["refreshToken"])
	_ = access

	// An access token is not accepted as a refresh token.
	resp, err = s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": newAccess,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	s := New(Config{}, nil)
	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": "not-a-token",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePasswordRequiresCurrentPassword(t *testing.T) {
	s := New(Config{}, nil)
	access, _ := loginAs(t, s, "admin", "admin123")

	req := jsonRequest(t, http.MethodPost, "/api/users/change-password", map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "next-password",
	})
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req = jsonRequest(t, http.MethodPost, "/api/users/change-password", map[string]string{
		"currentPassword": "admin123",
		"newPassword":     "next-password",
	})
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The new password is live for the next login.
	loginAs(t, s, "admin", "next-password")
}

func TestRegisterConflictOnDuplicate(t *testing.T) {
	s := New(Config{}, nil)
	body := map[string]string{"email": "ada@example.com", "password": "password123"}

	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/register", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = s.App().Test(jsonRequest(t, http.MethodPost, "/api/auth/register", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
