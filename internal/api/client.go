// Package api is the single choke point for outbound marketplace requests:
// it attaches bearer credentials, runs the 401 refresh-and-replay protocol,
// and classifies every failure before it reaches a store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/doot/internal/notify"
	"github.com/example/doot/internal/storage"
)

const maxResponseBytes = 8 << 20

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Store    *storage.Store
	Notifier notify.Notifier
	Logger   zerolog.Logger
}

// Client is the HTTP adapter. All store operations that touch the network go
// through it; no caller builds its own request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *storage.Store
	notifier   notify.Notifier
	log        zerolog.Logger

	// refreshMu serializes token refreshes so concurrent 401s share a single
	// refresh call instead of each issuing their own.
	refreshMu sync.Mutex

	onSessionExpired func()
}

// New constructs a Client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      opts.Store,
		notifier:   notifier,
		log:        opts.Logger,
	}
}

// OnSessionExpired registers the hook invoked after a hard session
// termination (failed refresh). The storefront uses it to return the user to
// the login entry point.
func (c *Client) OnSessionExpired(fn func()) {
	c.onSessionExpired = fn
}

// Get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out, false)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) error {
	token, _ := c.store.Get(storage.KeyAccessToken)

	req, err := c.buildRequest(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := classifyTransport(err)
		c.notifier.Error(netErr.Message)
		return netErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Message: msgNetwork}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if retried {
			// The replay itself came back 401: hard termination, no loop.
			c.terminateSession()
			return c.authFailure(resp.StatusCode, respBody)
		}
		if _, err := c.refreshAccessToken(ctx, token); err != nil {
			c.terminateSession()
			c.log.Debug().Err(err).Str("path", path).Msg("token refresh failed")
			return c.authFailure(resp.StatusCode, respBody)
		}
		c.log.Debug().Str("path", path).Msg("replaying request with refreshed token")
		return c.do(ctx, method, path, body, out, true)
	}

	if resp.StatusCode >= 400 {
		apiErr := classify(resp.StatusCode, respBody)
		c.notifier.Error(apiErr.Message)
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: msgGeneric}
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, method, path string, body any, token string) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

type refreshResponse struct {
	Access string `json:"access"`
}

// refreshAccessToken exchanges the refresh token for a new access token.
// staleToken is the access token the failing request carried: if the stored
// token already differs, another request refreshed while we waited for the
// lock and no second refresh call is made.
func (c *Client) refreshAccessToken(ctx context.Context, staleToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current, ok := c.store.Get(storage.KeyAccessToken); ok && current != "" && current != staleToken {
		return current, nil
	}

	refreshToken, ok := c.store.Get(storage.KeyRefreshToken)
	if !ok || refreshToken == "" {
		return "", errors.New("no refresh token available")
	}

	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("marshal refresh payload: %w", err)
	}

	// Built directly so the refresh call can never recurse into do().
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute refresh request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("refresh failed: status %d", resp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal refresh response: %w", err)
	}
	if parsed.Access == "" {
		return "", errors.New("refresh response missing access token")
	}

	if err := c.store.Set(storage.KeyAccessToken, parsed.Access); err != nil {
		return "", fmt.Errorf("persist access token: %w", err)
	}

	c.log.Info().Msg("access token refreshed")
	return parsed.Access, nil
}

// authFailure classifies a terminal 401, keeping the server's message when it
// has one and falling back to the expired-session text otherwise.
func (c *Client) authFailure(status int, body []byte) *Error {
	authErr := classify(status, body)
	if authErr.Message == msgGeneric {
		authErr.Message = msgExpired
	}
	c.notifier.Error(authErr.Message)
	return authErr
}

// terminateSession clears all persisted credentials and invokes the
// session-expired hook. Called only from the failed-refresh path.
func (c *Client) terminateSession() {
	if err := c.store.DeleteMany(storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser); err != nil {
		c.log.Error().Err(err).Msg("failed to clear credentials")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func classifyTransport(err error) *Error {
	if isTimeout(err) {
		return &Error{Kind: KindNetwork, Message: msgTimeout}
	}
	return &Error{Kind: KindNetwork, Message: msgNetwork}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
