package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdsc-dev/portalclient/session"
	"github.com/gdsc-dev/portalclient/token"
)

type authServer struct {
	t        *testing.T
	login    func(w http.ResponseWriter, body map[string]any)
	refresh  func(w http.ResponseWriter, body map[string]any)
	register func(w http.ResponseWriter, body map[string]any)
}

func (s *authServer) start() *httptest.Server {
	mux := http.NewServeMux()
	route := func(path string, h func(w http.ResponseWriter, body map[string]any)) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if h == nil {
				s.t.Fatalf("unexpected call to %s", path)
			}
			var body map[string]any
			require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))
			h(w, body)
		})
	}
	route("/auth/login", s.login)
	route("/auth/refresh", s.refresh)
	route("/auth/register", s.register)
	srv := httptest.NewServer(mux)
	s.t.Cleanup(srv.Close)
	return srv
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	kind := "SUCCESS"
	if status >= 400 {
		kind = "ERROR"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  kind,
		"message": message,
		"data":    data,
	})
}

func newTestClient(t *testing.T, baseURL string) (*Client, token.Store, *session.Store) {
	tokens := token.NewMemoryStore()
	sessions := session.NewStore()
	client := New(Config{BaseURL: baseURL}, tokens, sessions, nil)
	return client, tokens, sessions
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := (&authServer{t: t, login: func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, "admin", body["username"])
		assert.Equal(t, "admin123", body["password"])
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"token":        "access-1",
			"refreshToken": "refresh-1",
			"user": map[string]any{
				"id":       7,
				"username": "admin",
				"roles":    []string{"ROLE_ADMIN"},
			},
		})
	}}).start()

	client, tokens, sessions := newTestClient(t, srv.URL)
	sess, err := client.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	assert.True(t, sess.Authenticated)
	assert.Equal(t, "admin", sess.Username)
	assert.True(t, sess.HasRole(session.RoleAdmin))
	assert.Equal(t, "access-1", tokens.AccessToken())
	assert.Equal(t, "refresh-1", tokens.RefreshToken())
	assert.True(t, sessions.IsAuthenticated())

	raw, ok := tokens.User()
	require.True(t, ok)
	rec, err := session.DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "7", rec.UserID)
}

func TestLoginAcceptsLegacyFlatPayload(t *testing.T) {
	srv := (&authServer{t: t, login: func(w http.ResponseWriter, body map[string]any) {
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"token":        "access-1",
			"refreshToken": "refresh-1",
			"username":     "admin",
			"roles":        []string{"ROLE_ADMIN"},
		})
	}}).start()

	client, _, _ := newTestClient(t, srv.URL)
	sess, err := client.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "admin", sess.Username)
	assert.True(t, sess.HasRole(session.RoleAdmin))
}

func TestLoginInvalidCredentialsLeavesStateUntouched(t *testing.T) {
	srv := (&authServer{t: t, login: func(w http.ResponseWriter, body map[string]any) {
		writeEnvelope(w, http.StatusUnauthorized, "bad credentials", nil)
	}}).start()

	client, tokens, sessions := newTestClient(t, srv.URL)
	_, err := client.Login(context.Background(), LoginRequest{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, tokens.AccessToken())
	assert.False(t, sessions.IsAuthenticated())
}

func TestLoginValidatesInputBeforeNetwork(t *testing.T) {
	srv := (&authServer{t: t}).start()
	client, _, _ := newTestClient(t, srv.URL)

	_, err := client.Login(context.Background(), LoginRequest{Username: "admin"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterWithoutTokenDoesNotEstablishSession(t *testing.T) {
	srv := (&authServer{t: t, register: func(w http.ResponseWriter, body map[string]any) {
		writeEnvelope(w, http.StatusOK, "registered", map[string]any{})
	}}).start()

	client, tokens, sessions := newTestClient(t, srv.URL)
	sess, err := client.Register(context.Background(), RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "password123",
	})
	require.NoError(t, err)
	assert.False(t, sess.Authenticated)
	assert.Empty(t, tokens.AccessToken())
	assert.False(t, sessions.IsAuthenticated())
}

func TestRefreshRotatesBothTokens(t *testing.T) {
	srv := (&authServer{t: t, refresh: func(w http.ResponseWriter, body map[string]any) {
		assert.Equal(t, "refresh-1", body["refreshToken"])
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"token":        "access-2",
			"refreshToken": "refresh-2",
		})
	}}).start()

	client, tokens, _ := newTestClient(t, srv.URL)
	require.NoError(t, tokens.SetAccessToken("access-1"))
	require.NoError(t, tokens.SetRefreshToken("refresh-1"))

	got, err := client.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", got)
	assert.Equal(t, "access-2", tokens.AccessToken())
	assert.Equal(t, "refresh-2", tokens.RefreshToken())
}

func TestRefreshRejectionTearsDownSession(t *testing.T) {
	srv := (&authServer{t: t, refresh: func(w http.ResponseWriter, body map[string]any) {
		writeEnvelope(w, http.StatusUnauthorized, "refresh token expired", nil)
	}}).start()

	client, tokens, sessions := newTestClient(t, srv.URL)
	require.NoError(t, tokens.SetAccessToken("access-1"))
	require.NoError(t, tokens.SetRefreshToken("refresh-1"))
	sessions.Set(session.Session{Username: "admin", Authenticated: true})

	_, err := client.Refresh(context.Background())
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
	assert.Empty(t, tokens.AccessToken())
	assert.Empty(t, tokens.RefreshToken())
	assert.False(t, sessions.IsAuthenticated())
}

type faultyStore struct {
	token.Store
	failWrites bool
}

func (s *faultyStore) SetAccessToken(v string) error {
	if s.failWrites {
		return errors.New("disk full")
	}
	return s.Store.SetAccessToken(v)
}

func TestRefreshStorageFailureTearsDownSession(t *testing.T) {
	srv := (&authServer{t: t, refresh: func(w http.ResponseWriter, body map[string]any) {
		writeEnvelope(w, http.StatusOK, "ok", map[string]any{
			"token":        "access-2",
			"refreshToken": "refresh-2",
		})
	}}).start()

	store := &faultyStore{Store: token.NewMemoryStore()}
	sessions := session.NewStore()
	client := New(Config{BaseURL: srv.URL}, store, sessions, nil)

	require.NoError(t, store.SetRefreshToken("refresh-1"))
	sessions.Set(session.Session{Username: "admin", Authenticated: true})
	store.failWrites = true

	_, err := client.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, sessions.IsAuthenticated())
	assert.Empty(t, store.RefreshToken())
}

func TestRefreshWithoutStoredTokenFailsFast(t *testing.T) {
	client, _, sessions := newTestClient(t, "http://127.0.0.1:0")
	sessions.Set(session.Session{Username: "admin", Authenticated: true})

	_, err := client.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.False(t, sessions.IsAuthenticated(), "teardown must run even without a network call")
}

func TestLogoutIsIdempotent(t *testing.T) {
	client, tokens, sessions := newTestClient(t, "http://127.0.0.1:0")
	require.NoError(t, tokens.SetAccessToken("access-1"))
	sessions.Set(session.Session{Username: "admin", Authenticated: true})

	require.NoError(t, client.Logout())
	assert.Empty(t, tokens.AccessToken())
	assert.False(t, sessions.IsAuthenticated())
	require.NoError(t, client.Logout())
}

func TestNetworkFailureIsTyped(t *testing.T) {
	client, _, _ := newTestClient(t, "http://127.0.0.1:1")
	_, err := client.Login(context.Background(), LoginRequest{Username: "admin", Password: "x"})
	require.Error(t, err)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}
