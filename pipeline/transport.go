package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gdsc-dev/portalclient/apierr"
	"github.com/gdsc-dev/portalclient/token"
)

var ErrNotReplayable = errors.New("pipeline: request body cannot be replayed")

// Refresher obtains a fresh access token from the stored refresh token.
// Implementations must update the token store on success and tear the
// session down on failure.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Transport is the request pipeline: it attaches the bearer credential to
// every outgoing API call, retries idempotent requests with backoff, and
// coordinates a single refresh-and-retry cycle across all requests that
// observe a 401 concurrently.
type Transport struct {
	Base      http.RoundTripper
	Tokens    token.Store
	Refresher Refresher
	Retry     RetryConfig
	Logger    *zap.Logger

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

type refreshOutcome struct {
	token string
	err   error
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport wires the pipeline. base defaults to
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, tokens token.Store, refresher Refresher, retry RetryConfig, logger *zap.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		Base:      base,
		Tokens:    tokens,
		Refresher: refresher,
		Retry:     retry.withDefaults(),
		Logger:    logger,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Auth endpoints carry no bearer token and are exempt from 401
	// interception, otherwise an expired refresh token loops forever.
	if isAuthEndpoint(req.URL.Path) {
		return t.base().RoundTrip(req)
	}

	out := t.prepare(req, t.Tokens.AccessToken())
	resp, err := t.send(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// 401: join (or start) the shared refresh cycle, then retry exactly
	// once with the fresh token. A second 401 is terminal.
	discard(resp)
	newToken, refreshErr := t.awaitRefresh(req.Context())
	if refreshErr != nil {
		// A caller that gave up while queued is cancelled, not
		// unauthorized; the shared refresh keeps running for the rest.
		if errors.Is(refreshErr, context.Canceled) || errors.Is(refreshErr, context.DeadlineExceeded) {
			return nil, refreshErr
		}
		return nil, &apierr.Error{
			Kind:    apierr.KindUnauthorized,
			Status:  http.StatusUnauthorized,
			Message: "session expired",
			Cause:   refreshErr,
		}
	}

	t.Logger.Debug("retrying request with refreshed token",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
	return t.send(t.prepare(req, newToken))
}

// prepare clones the request with the bearer credential and a request id
// attached. The original request is never mutated.
func (t *Transport) prepare(req *http.Request, accessToken string) *http.Request {
	out := req.Clone(req.Context())
	if accessToken != "" {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	return out
}

// send dispatches the request, retrying idempotent methods with bounded
// backoff on transport errors, 429 and 5xx. Non-idempotent requests get a
// single attempt.
func (t *Transport) send(req *http.Request) (*http.Response, error) {
	attempts := 1
	if isIdempotent(req.Method) {
		attempts += t.Retry.Attempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := t.Retry.delay(i - 1)
			t.Logger.Debug("retrying request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("attempt", i+1),
				zap.Duration("delay", delay),
			)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		attempt, err := cloneForAttempt(req)
		if err != nil {
			return nil, err
		}
		resp, err := t.base().RoundTrip(attempt)
		if err != nil {
			lastErr = err
			continue
		}
		if retryableStatus(resp.StatusCode) && i < attempts-1 {
			discard(resp)
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

// awaitRefresh enforces the single-in-flight-refresh invariant. The first
// caller runs the refresh; everyone else queues FIFO and is resumed with
// the outcome. The refresh itself runs on an uncancellable context: it is
// a process-wide resource and must not die with one caller's navigation.
func (t *Transport) awaitRefresh(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.refreshing {
		ch := make(chan refreshOutcome, 1)
		t.waiters = append(t.waiters, ch)
		t.mu.Unlock()
		select {
		case out := <-ch:
			return out.token, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	t.refreshing = true
	t.mu.Unlock()

	accessToken, err := t.Refresher.Refresh(context.WithoutCancel(ctx))
	if err != nil {
		t.Logger.Warn("token refresh failed", zap.Error(err))
	}
	t.completeRefresh(accessToken, err)
	return accessToken, err
}

// completeRefresh clears the in-flight flag and resumes queued requests
// in arrival order, each with the refresh outcome.
func (t *Transport) completeRefresh(accessToken string, err error) {
	t.mu.Lock()
	waiters := t.waiters
	t.waiters = nil
	t.refreshing = false
	t.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshOutcome{token: accessToken, err: err}
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func cloneForAttempt(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, nil
	}
	if req.GetBody == nil {
		return nil, ErrNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func isAuthEndpoint(path string) bool {
	for _, p := range authPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

var authPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
	"/auth/forgot-password",
	"/auth/reset-password",
}

func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
