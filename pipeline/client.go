package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gdsc-dev/portalclient/apierr"
)

const defaultTimeout = 60 * time.Second

// Config carries the environment-level knobs of the pipeline.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.Retry = c.Retry.withDefaults()
	return c
}

// Client is the JSON API client every resource service wraps. All
// failures come back as *apierr.Error after the translator's side
// effects have run; a recovered 401 cycle is invisible to the caller.
type Client struct {
	http       *http.Client
	baseURL    string
	translator *apierr.Translator
	logger     *zap.Logger
}

// envelope is the API's response wrapper: {status, message, data}.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(config Config, transport *Transport, translator *apierr.Translator, logger *zap.Logger) *Client {
	config = config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		translator: translator,
		logger:     logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends one API request. body is JSON-encoded when non-nil; on success
// the envelope's data field is decoded into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pipeline: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("pipeline: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) {
			return c.translator.Handle(apiErr)
		}
		return c.translator.Handle(apierr.FromTransport(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.translator.Handle(apierr.FromTransport(err))
	}

	if resp.StatusCode >= 400 {
		return c.translator.Handle(apierr.FromStatus(resp.StatusCode, serverMessage(payload)))
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && len(env.Data) > 0 {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("pipeline: decode response: %w", err)
	}
	return nil
}

func serverMessage(payload []byte) string {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	return env.Message
}
