package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gdsc-dev/portalclient/apierr"
	"github.com/gdsc-dev/portalclient/session"
	"github.com/gdsc-dev/portalclient/token"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Client performs the auth network calls and is the only writer of the
// token store and session state. It deliberately bypasses the request
// pipeline: auth endpoints are exempt from bearer attachment and 401
// interception.
type Client struct {
	http     *http.Client
	baseURL  string
	tokens   token.Store
	sessions *session.Store
	validate *validator.Validate
	logger   *zap.Logger
}

func New(config Config, tokens token.Store, sessions *session.Store, logger *zap.Logger) *Client {
	config = config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:     &http.Client{Timeout: config.Timeout},
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		tokens:   tokens,
		sessions: sessions,
		validate: validator.New(),
		logger:   logger,
	}
}

// Login authenticates and, on success, stores the credential pair and
// publishes the new session. On failure nothing is mutated.
func (c *Client) Login(ctx context.Context, req LoginRequest) (session.Session, error) {
	if err := c.validate.Struct(req); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	data, err := c.post(ctx, "/auth/login", req)
	if err != nil {
		return session.Session{}, loginError(err)
	}
	if data.Token == "" {
		return session.Session{}, fmt.Errorf("%w: empty token in response", ErrNetwork)
	}

	sess, err := c.establish(data)
	if err != nil {
		return session.Session{}, err
	}
	c.logger.Info("login succeeded", zap.String("username", sess.Username))
	return sess, nil
}

// Register creates an account. The session is established only when the
// API chooses to return a token with the registration response.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (session.Session, error) {
	if err := c.validate.Struct(req); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	data, err := c.post(ctx, "/auth/register", req)
	if err != nil {
		return session.Session{}, loginError(err)
	}
	if data.Token == "" {
		return session.Session{}, nil
	}
	return c.establish(data)
}

// Refresh exchanges the stored refresh token for a new access token.
// Any failure - expired token, revoked token, network - tears the whole
// session down: this is the only background path allowed to do that.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		return "", c.teardownAfter(ErrNoRefreshToken)
	}

	data, err := c.post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		if apierr.IsKind(err, apierr.KindUnauthorized) || apierr.IsKind(err, apierr.KindForbidden) {
			err = fmt.Errorf("%w: %v", ErrRefreshTokenExpired, err)
		}
		return "", c.teardownAfter(err)
	}
	if data.Token == "" {
		return "", c.teardownAfter(fmt.Errorf("%w: empty token in refresh response", ErrNetwork))
	}

	if err := c.tokens.SetAccessToken(data.Token); err != nil {
		return "", c.teardownAfter(fmt.Errorf("authclient: store access token: %w", err))
	}
	if data.RefreshToken != "" {
		if err := c.tokens.SetRefreshToken(data.RefreshToken); err != nil {
			return "", c.teardownAfter(fmt.Errorf("authclient: store refresh token: %w", err))
		}
	}
	c.logger.Debug("access token refreshed")
	return data.Token, nil
}

// Logout clears the credential pair and session state. It is client-local,
// never calls the network, and is a no-op when already logged out.
func (c *Client) Logout() error {
	err := c.tokens.Clear()
	c.sessions.Clear()
	if err != nil {
		return fmt.Errorf("authclient: logout: %w", err)
	}
	return nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	req := ForgotPasswordRequest{Email: email}
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	_, err := c.post(ctx, "/auth/forgot-password", req)
	return err
}

func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	req := ResetPasswordRequest{Token: resetToken, NewPassword: newPassword}
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	_, err := c.post(ctx, "/auth/reset-password", req)
	return err
}

// establish persists the credential pair and user record, then publishes
// the session. Storage errors abort before the session flips.
func (c *Client) establish(data authData) (session.Session, error) {
	if err := c.tokens.SetAccessToken(data.Token); err != nil {
		return session.Session{}, fmt.Errorf("authclient: store access token: %w", err)
	}
	if data.RefreshToken != "" {
		if err := c.tokens.SetRefreshToken(data.RefreshToken); err != nil {
			return session.Session{}, fmt.Errorf("authclient: store refresh token: %w", err)
		}
	}

	record := session.Record{
		UserID:   data.User.ID.String(),
		Username: data.username(),
		Roles:    data.roles(),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return session.Session{}, fmt.Errorf("authclient: encode user record: %w", err)
	}
	if err := c.tokens.SetUser(raw); err != nil {
		return session.Session{}, fmt.Errorf("authclient: store user record: %w", err)
	}

	sess := record.Session()
	c.sessions.Set(sess)
	return sess, nil
}

func (c *Client) teardownAfter(cause error) error {
	return multierr.Append(cause, c.Logout())
}

func (c *Client) post(ctx context.Context, path string, body any) (authData, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return authData{}, fmt.Errorf("authclient: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return authData{}, fmt.Errorf("authclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return authData{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return authData{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var env envelope
	_ = json.Unmarshal(payload, &env)
	if resp.StatusCode >= 400 {
		return authData{}, apierr.FromStatus(resp.StatusCode, env.Message)
	}

	var data authData
	source := payload
	if len(env.Data) > 0 {
		source = env.Data
	}
	if err := json.Unmarshal(source, &data); err != nil {
		return authData{}, fmt.Errorf("authclient: decode response: %w", err)
	}
	return data, nil
}

// loginError maps the wire failure onto the login/register taxonomy.
func loginError(err error) error {
	switch {
	case apierr.IsKind(err, apierr.KindUnauthorized):
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case apierr.IsKind(err, apierr.KindForbidden):
		return fmt.Errorf("%w: %v", ErrAccountDisabled, err)
	default:
		return err
	}
}
