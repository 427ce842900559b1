// Package portalclient ties the session, token and pipeline layers into
// one client for the institute management API.
//
// Typical use:
//
//	cfg, _ := config.Load("")
//	client, _ := portalclient.New(cfg)
//	sess, err := client.Auth.Login(ctx, authclient.LoginRequest{...})
//	courses, err := client.Institute.Courses.List(ctx, 0, 20)
package portalclient

import (
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/gdsc-dev/portalclient/apierr"
	"github.com/gdsc-dev/portalclient/authclient"
	"github.com/gdsc-dev/portalclient/config"
	"github.com/gdsc-dev/portalclient/guard"
	"github.com/gdsc-dev/portalclient/idle"
	"github.com/gdsc-dev/portalclient/institute"
	"github.com/gdsc-dev/portalclient/log"
	"github.com/gdsc-dev/portalclient/pipeline"
	"github.com/gdsc-dev/portalclient/session"
	"github.com/gdsc-dev/portalclient/token"
)

const stateDirName = ".portalclient"

// Client is the assembled SDK.
type Client struct {
	Config    config.Config
	Logger    *zap.Logger
	Tokens    token.Store
	Validator *token.Validator
	Sessions  *session.Store
	Auth      *authclient.Client
	API       *pipeline.Client
	Institute *institute.Service
	Guard     *guard.Authorizer
	Idle      *idle.Watcher
}

type options struct {
	tokens token.Store
	logger *zap.Logger
	base   http.RoundTripper
	hooks  apierr.Hooks
}

type Option func(*options)

// WithTokenStore swaps the default file-backed store for another backend.
func WithTokenStore(store token.Store) Option {
	return func(o *options) { o.tokens = store }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBaseTransport replaces the underlying HTTP transport, mainly for
// tests.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithHooks installs the navigation/notification side effects the shell
// owns. The ForceLogout hook always runs in addition to the SDK's own
// session teardown.
func WithHooks(hooks apierr.Hooks) Option {
	return func(o *options) { o.hooks = hooks }
}

func New(cfg config.Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = log.New(cfg.Log, cfg.Development)
		if err != nil {
			return nil, err
		}
	}

	tokens := o.tokens
	if tokens == nil {
		path, err := defaultStatePath()
		if err != nil {
			return nil, err
		}
		tokens, err = token.NewFileStore(path)
		if err != nil {
			return nil, err
		}
	}

	validator := token.NewValidator()
	sessions := session.Restore(tokens, validator)

	auth := authclient.New(authclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens, sessions, logger)

	hooks := o.hooks
	userForceLogout := hooks.ForceLogout
	hooks.ForceLogout = func() {
		if err := auth.Logout(); err != nil {
			logger.Warn("forced logout failed", zap.Error(err))
		}
		if userForceLogout != nil {
			userForceLogout()
		}
	}
	translator := apierr.NewTranslator(hooks, logger)

	retry := pipeline.RetryConfig{
		Attempts:     cfg.API.RetryAttempts,
		InitialDelay: cfg.API.RetryDelay,
	}
	transport := pipeline.NewTransport(o.base, tokens, auth, retry, logger)
	api := pipeline.NewClient(pipeline.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Retry:   retry,
	}, transport, translator, logger)

	return &Client{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Validator: validator,
		Sessions:  sessions,
		Auth:      auth,
		API:       api,
		Institute: institute.NewService(api),
		Guard: guard.New(sessions).
			WithPaths(cfg.Auth.LoginPath, cfg.Auth.UnauthorizedPath),
		Idle: idle.NewWatcher(cfg.Auth.IdleTimeout, func() {
			if err := auth.Logout(); err != nil {
				logger.Warn("idle logout failed", zap.Error(err))
			}
		}, logger),
	}, nil
}

// Module wires the client into an fx application. The host app supplies
// config.Config (and optionally []Option).
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			func(cfg config.Config) (*zap.Logger, error) {
				return log.New(cfg.Log, cfg.Development)
			},
			func(cfg config.Config, logger *zap.Logger) (*Client, error) {
				return New(cfg, WithLogger(logger))
			},
			func(c *Client) *session.Store { return c.Sessions },
			func(c *Client) *authclient.Client { return c.Auth },
			func(c *Client) *institute.Service { return c.Institute },
			func(c *Client) *guard.Authorizer { return c.Guard },
		),
		fx.WithLogger(log.NewEventLogger),
	)
}

func defaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, stateDirName, "session.json"), nil
}
